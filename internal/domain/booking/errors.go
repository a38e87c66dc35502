package booking

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated         = errors.New("booking: viewer cannot be found")
	ErrNotFound                = errors.New("booking: not found")
	ErrSelfBookingForbidden    = errors.New("booking: viewer can't book own listing")
	ErrWindowExceeded          = errors.New("booking: dates can't be booked more than the booking window ahead")
	ErrInvalidRange            = errors.New("booking: check-out date can't be before check-in")
	ErrHostNotPayable          = errors.New("booking: the host has not connected a payout account")
	ErrPaymentDeclined         = errors.New("booking: payment declined")
	ErrContention              = errors.New("booking: listing is being booked concurrently, try again")
	ErrPersistenceInconsistent = errors.New("booking: payment captured but bookkeeping incomplete")
)

// Persistence steps run after a successful charge, in this order.
const (
	StepCreateBooking  = "booking.create"
	StepHostIncome     = "host.income"
	StepTenantBookings = "tenant.bookings"
	StepListingIndex   = "listing.index"
)

// InconsistencyError reports a bookkeeping failure after money has moved.
// It matches ErrPersistenceInconsistent and the underlying cause.
type InconsistencyError struct {
	Step      string
	BookingID BookingID
	ChargeID  string
	Err       error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: step %s failed for booking %s (charge %s): %v",
		ErrPersistenceInconsistent, e.Step, e.BookingID, e.ChargeID, e.Err)
}

// ReplayDetails exposes the ids support needs to reconcile the booking.
func (e *InconsistencyError) ReplayDetails() map[string]string {
	return map[string]string{"booking_id": string(e.BookingID), "charge_id": e.ChargeID, "step": e.Step}
}

func (e *InconsistencyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPersistenceInconsistent}
	}
	return []error{ErrPersistenceInconsistent, e.Err}
}
