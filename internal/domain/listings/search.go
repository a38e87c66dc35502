package listings

import (
	"strings"
)

// SortOrder is the price ordering of a search.
type SortOrder string

const (
	SortPriceLowToHigh SortOrder = "PRICE_LOW_TO_HIGH"
	SortPriceHighToLow SortOrder = "PRICE_HIGH_TO_LOW"

	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// SearchParams filter listings by geocoded location and page through them.
// Empty location fields do not filter.
type SearchParams struct {
	Country string
	Admin   string
	City    string
	Sort    SortOrder
	Limit   int
	Page    int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.Country = strings.TrimSpace(n.Country)
	n.Admin = strings.TrimSpace(n.Admin)
	n.City = strings.TrimSpace(n.City)
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Page < 1 {
		n.Page = 1
	}
	switch SortOrder(strings.ToUpper(string(n.Sort))) {
	case SortPriceLowToHigh:
		n.Sort = SortPriceLowToHigh
	case SortPriceHighToLow:
		n.Sort = SortPriceHighToLow
	default:
		n.Sort = ""
	}
	return n
}

// Offset is the number of items skipped for the current page.
func (p SearchParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Matches reports whether l satisfies the location filter.
func (p SearchParams) Matches(l *Listing) bool {
	if p.Country != "" && !strings.EqualFold(l.Country, p.Country) {
		return false
	}
	if p.Admin != "" && !strings.EqualFold(l.Admin, p.Admin) {
		return false
	}
	if p.City != "" && !strings.EqualFold(l.City, p.City) {
		return false
	}
	return true
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Listing
	Total int
}
