package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: check-out can't be before check-in")
)

// UTC days are always 86400 seconds long; Unix time ignores leap seconds.
const secondsPerDay = 86400

// DateRange represents an inclusive span of calendar days [checkIn, checkOut] in UTC.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day truncates t to the start of its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if dr.CheckOut.Before(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Days counts calendar days in the range, both ends included.
func (dr DateRange) Days() int {
	if dr.CheckOut.Before(dr.CheckIn) {
		return 0
	}
	return int((Day(dr.CheckOut).Unix()-Day(dr.CheckIn).Unix())/secondsPerDay) + 1
}

// Each calls fn for every day of the range in order until fn returns false.
func (dr DateRange) Each(fn func(day time.Time) bool) {
	for cursor := Day(dr.CheckIn); !cursor.After(dr.CheckOut); cursor = cursor.AddDate(0, 0, 1) {
		if !fn(cursor) {
			return
		}
	}
}
