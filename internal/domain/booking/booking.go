package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/events"
	"tinyhouse/internal/domain/shared/money"
	"tinyhouse/internal/domain/user"
)

var (
	ErrBookingNotFound = errors.New("booking: booking not found")
	ErrIDRequired      = errors.New("booking: id is required")
	ErrTenantRequired  = errors.New("booking: tenant is required")
	ErrDuplicate       = errors.New("booking: booking already exists")
)

type BookingID string

// Booking is immutable once created.
type Booking struct {
	ID        BookingID
	ListingID listings.ListingID
	TenantID  user.ID
	Range     daterange.DateRange
	Total     money.Money
	ChargeID  string
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByIDs(ctx context.Context, ids []BookingID) ([]*Booking, error)
	Create(ctx context.Context, booking *Booking) error
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	TenantID  user.ID
	Range     daterange.DateRange
	Total     money.Money
	ChargeID  string
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.TenantID)) == "" {
		return nil, ErrTenantRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, ErrInvalidRange
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		TenantID:  params.TenantID,
		Range:     params.Range,
		Total:     params.Total,
		ChargeID:  params.ChargeID,
		CreatedAt: now.UTC(),
	}
	b.Record(BookingCreated{
		BookingID: b.ID,
		ListingID: b.ListingID,
		TenantID:  b.TenantID,
		Range:     b.Range,
		Total:     b.Total,
		ChargeID:  b.ChargeID,
		At:        b.CreatedAt,
	})
	return b, nil
}

// TotalFor is the price of an inclusive stay: nightly price times the number of calendar days.
// It fails with money.ErrOverflow when the total does not fit in int64 minor units.
func TotalFor(nightly money.Money, dr daterange.DateRange) (money.Money, error) {
	return nightly.Multiply(int64(dr.Days()))
}
