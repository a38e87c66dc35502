package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/handlers/support"
	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/uow"
	domainlistings "tinyhouse/internal/domain/listings"
)

const searchListingsKey = "listings.search"

var ErrNoCountry = errors.New("listings: no country found")

type SearchListingsQuery struct {
	Location string
	Filter   string `validate:"omitempty,oneof=PRICE_LOW_TO_HIGH PRICE_HIGH_TO_LOW"`
	Limit    int    `validate:"gte=0,lte=50"`
	Page     int    `validate:"gte=0"`
}

func (q SearchListingsQuery) Key() string { return searchListingsKey }

// SearchListingsHandler filters listings by a geocoded location.
// A location the geocoder does not know does not filter at all.
type SearchListingsHandler struct {
	UoWFactory uow.UoWFactory
	Geocoder   policies.Geocoder
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingPage, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingPage{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	limit, page := support.NormalizePage(q.Limit, q.Page)
	params := domainlistings.SearchParams{
		Sort:  domainlistings.SortOrder(q.Filter),
		Limit: limit,
		Page:  page,
	}
	region := ""
	if location := strings.TrimSpace(q.Location); location != "" && h.Geocoder != nil {
		loc, err := h.Geocoder.Geocode(execCtx, location)
		switch {
		case errors.Is(err, policies.ErrLocationNotFound):
		case err != nil:
			return dto.ListingPage{}, fmt.Errorf("geocode location: %w", err)
		default:
			if strings.TrimSpace(loc.Country) == "" {
				return dto.ListingPage{}, ErrNoCountry
			}
			params.Country, params.Admin, params.City = loc.Country, loc.Admin, loc.City
			region = regionLabel(loc)
		}
	}

	res, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingPage{}, err
	}
	return dto.ListingPage{Region: region, Total: res.Total, Result: dto.MapListings(res.Items)}, nil
}

func regionLabel(loc policies.Location) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{loc.City, loc.Admin, loc.Country} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

var _ queries.Handler[SearchListingsQuery, dto.ListingPage] = (*SearchListingsHandler)(nil)
