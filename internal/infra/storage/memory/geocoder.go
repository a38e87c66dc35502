package memory

import (
	"context"
	"strings"
	"sync"

	"tinyhouse/internal/app/policies"
)

// Geocoder resolves locations from a fixed lookup table keyed by lowercase query.
type Geocoder struct {
	mu    sync.RWMutex
	table map[string]policies.Location
}

func NewGeocoder(entries map[string]policies.Location) *Geocoder {
	g := &Geocoder{table: make(map[string]policies.Location, len(entries))}
	for query, loc := range entries {
		g.table[normalizeQuery(query)] = loc
	}
	return g
}

func (g *Geocoder) Add(query string, loc policies.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.table[normalizeQuery(query)] = loc
}

func (g *Geocoder) Geocode(ctx context.Context, query string) (policies.Location, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if loc, ok := g.table[normalizeQuery(query)]; ok {
		return loc, nil
	}
	return policies.Location{}, policies.ErrLocationNotFound
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

var _ policies.Geocoder = (*Geocoder)(nil)
