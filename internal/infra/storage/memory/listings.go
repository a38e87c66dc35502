package memory

import (
	"context"
	"sort"
	"sync"

	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

// ListingRepository keeps listings in memory and clones on every read and write.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing.Clone(), nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[listing.ID]; ok {
		return domainlistings.ErrConcurrentUpdate
	}
	listing.Version = 0
	r.items[listing.ID] = listing.Clone()
	return nil
}

// Save replaces the listing only if the stored version still equals listing.Version.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[listing.ID]
	if !ok {
		return domainlistings.ErrNotFound
	}
	if stored.Version != listing.Version {
		return domainlistings.ErrConcurrentUpdate
	}
	listing.Version++
	r.items[listing.ID] = listing.Clone()
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	r.mu.RLock()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if opts.Matches(listing) {
			matches = append(matches, listing.Clone())
		}
	}
	r.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return domainlistings.SearchResult{}, err
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainlistings.SortPriceLowToHigh:
			if matches[i].Price != matches[j].Price {
				return matches[i].Price < matches[j].Price
			}
		case domainlistings.SortPriceHighToLow:
			if matches[i].Price != matches[j].Price {
				return matches[i].Price > matches[j].Price
			}
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return page(matches, opts.Offset(), opts.Limit), nil
}

func (r *ListingRepository) ByHost(ctx context.Context, host domainuser.ID, limit, offset int) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Host == host {
			matches = append(matches, listing.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return page(matches, offset, limit), nil
}

func page(items []*domainlistings.Listing, offset, limit int) domainlistings.SearchResult {
	total := len(items)
	start := offset
	if start > total {
		start = total
	}
	if start < 0 {
		start = 0
	}
	end := total
	if limit > 0 && start+limit < total {
		end = start + limit
	}
	return domainlistings.SearchResult{Items: items[start:end], Total: total}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
