package listings

import (
	"context"
	"strings"

	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/handlers/support"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/uow"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

const getListingKey = "listings.get"

// GetListingQuery loads a listing. Bookings are listed only when the viewer hosts it.
type GetListingQuery struct {
	ListingID     string `validate:"required"`
	ViewerID      string
	BookingsLimit int `validate:"gte=0"`
	BookingsPage  int `validate:"gte=0"`
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Listing{}, err
	}
	result := dto.MapListing(listing)
	if !listing.IsHost(domainuser.ID(strings.TrimSpace(q.ViewerID))) {
		return result, nil
	}

	ids := support.PageOf(listing.Bookings, q.BookingsLimit, q.BookingsPage)
	bookingIDs := make([]domainbooking.BookingID, 0, len(ids))
	for _, id := range ids {
		bookingIDs = append(bookingIDs, domainbooking.BookingID(id))
	}
	bookings, err := unit.Bookings().ByIDs(execCtx, bookingIDs)
	if err != nil {
		return dto.Listing{}, err
	}
	result.Bookings = &dto.BookingPage{Total: len(listing.Bookings), Result: dto.MapBookings(bookings)}
	return result, nil
}

var _ queries.Handler[GetListingQuery, dto.Listing] = (*GetListingHandler)(nil)
