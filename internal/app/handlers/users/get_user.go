package users

import (
	"context"
	"strings"

	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/handlers/support"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/uow"
	domainbooking "tinyhouse/internal/domain/booking"
	domainuser "tinyhouse/internal/domain/user"
)

const getUserKey = "users.get"

type GetUserQuery struct {
	UserID        string `validate:"required"`
	ViewerID      string
	BookingsLimit int `validate:"gte=0"`
	BookingsPage  int `validate:"gte=0"`
	ListingsLimit int `validate:"gte=0"`
	ListingsPage  int `validate:"gte=0"`
}

func (q GetUserQuery) Key() string { return getUserKey }

// GetUserHandler returns a public profile. Income and bookings are only
// returned to the user themselves.
type GetUserHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (dto.UserProfile, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UserProfile{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	user, err := unit.Users().ByID(execCtx, domainuser.ID(strings.TrimSpace(q.UserID)))
	if err != nil {
		return dto.UserProfile{}, err
	}
	self := strings.TrimSpace(q.ViewerID) != "" && domainuser.ID(strings.TrimSpace(q.ViewerID)) == user.ID
	profile := dto.MapUserProfile(user, self)

	limit, page := support.NormalizePage(q.ListingsLimit, q.ListingsPage)
	listings, err := unit.Listings().ByHost(execCtx, user.ID, limit, (page-1)*limit)
	if err != nil {
		return dto.UserProfile{}, err
	}
	profile.Listings = dto.ListingPage{Total: listings.Total, Result: dto.MapListings(listings.Items)}

	if self {
		ids := support.PageOf(user.Bookings, q.BookingsLimit, q.BookingsPage)
		bookingIDs := make([]domainbooking.BookingID, 0, len(ids))
		for _, id := range ids {
			bookingIDs = append(bookingIDs, domainbooking.BookingID(id))
		}
		bookings, err := unit.Bookings().ByIDs(execCtx, bookingIDs)
		if err != nil {
			return dto.UserProfile{}, err
		}
		profile.Bookings = &dto.BookingPage{Total: len(user.Bookings), Result: dto.MapBookings(bookings)}
	}
	return profile, nil
}

var _ queries.Handler[GetUserQuery, dto.UserProfile] = (*GetUserHandler)(nil)
