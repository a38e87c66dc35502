package booking

import (
	"time"

	"tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/user"
)

const DefaultWindowDays = 90

// Validator applies the admission rules of a booking request. It is pure.
type Validator struct {
	WindowDays int
}

// Validate checks the request with the default booking window.
func Validate(listing *listings.Listing, viewer user.ID, checkIn, checkOut, now time.Time) error {
	return Validator{}.Validate(listing, viewer, checkIn, checkOut, now)
}

// Validate runs the rules in order and returns the first failure.
// Dates are compared as UTC calendar days.
func (v Validator) Validate(listing *listings.Listing, viewer user.ID, checkIn, checkOut, now time.Time) error {
	if listing == nil {
		return ErrNotFound
	}
	if viewer == "" {
		return ErrUnauthenticated
	}
	if listing.IsHost(viewer) {
		return ErrSelfBookingForbidden
	}
	in, out := daterange.Day(checkIn), daterange.Day(checkOut)
	limit := daterange.Day(now).AddDate(0, 0, v.window())
	if in.After(limit) {
		return ErrWindowExceeded
	}
	if out.After(limit) {
		return ErrWindowExceeded
	}
	if out.Before(in) {
		return ErrInvalidRange
	}
	return nil
}

func (v Validator) window() int {
	if v.WindowDays > 0 {
		return v.WindowDays
	}
	return DefaultWindowDays
}
