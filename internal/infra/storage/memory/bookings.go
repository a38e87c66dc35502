package memory

import (
	"context"
	"sync"

	domainbooking "tinyhouse/internal/domain/booking"
)

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

// ByIDs returns the bookings found, in the order of ids. Unknown ids are skipped.
func (r *BookingRepository) ByIDs(ctx context.Context, ids []domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(ids))
	for _, id := range ids {
		if booking, ok := r.items[id]; ok {
			out = append(out, cloneBooking(booking))
		}
	}
	return out, nil
}

func (r *BookingRepository) Create(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[booking.ID]; ok {
		return domainbooking.ErrDuplicate
	}
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

// Len reports the number of stored bookings.
func (r *BookingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        b.ID,
		ListingID: b.ListingID,
		TenantID:  b.TenantID,
		Range:     b.Range,
		Total:     b.Total,
		ChargeID:  b.ChargeID,
		CreatedAt: b.CreatedAt,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
