package policies

import (
	"context"
	"errors"
)

var ErrLocationNotFound = errors.New("geocoder: location not found")

// Location is a normalized geocoding result. Any field may be empty.
type Location struct {
	Country string
	Admin   string
	City    string
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (Location, error)
}
