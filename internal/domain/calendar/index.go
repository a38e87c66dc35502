package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tinyhouse/internal/domain/shared/daterange"
)

var ErrConflict = errors.New("calendar: dates already reserved")

// Index marks reserved calendar days of one listing as year -> zero-based month -> day -> true.
// Absence means the day is free.
type Index map[int]map[int]map[int]bool

// ConflictError identifies the first already reserved day found while reserving a range.
type ConflictError struct {
	Date time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("calendar: %s is already reserved", e.Date.Format(time.DateOnly))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func New() Index {
	return Index{}
}

// FromDays builds an index holding the provided days.
func FromDays(days ...time.Time) Index {
	idx := New()
	for _, d := range days {
		idx.set(daterange.Day(d))
	}
	return idx
}

// Reserve returns a copy of idx with every day of [checkIn, checkOut] marked.
// idx itself is never modified; on conflict it returns a *ConflictError and a nil index.
func Reserve(idx Index, checkIn, checkOut time.Time) (Index, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	next := idx.Clone()
	var conflict *ConflictError
	dr.Each(func(day time.Time) bool {
		if next.Has(day) {
			conflict = &ConflictError{Date: day}
			return false
		}
		next.set(day)
		return true
	})
	if conflict != nil {
		return nil, conflict
	}
	return next, nil
}

// Has reports whether the calendar day containing t is reserved.
func (idx Index) Has(t time.Time) bool {
	y, m, d := key(t)
	return idx[y][m][d]
}

// Clone deep-copies the index. The copy shares no nested maps with idx.
func (idx Index) Clone() Index {
	out := make(Index, len(idx))
	for y, months := range idx {
		mm := make(map[int]map[int]bool, len(months))
		for m, days := range months {
			dd := make(map[int]bool, len(days))
			for d, ok := range days {
				if ok {
					dd[d] = true
				}
			}
			mm[m] = dd
		}
		out[y] = mm
	}
	return out
}

func (idx Index) Len() int {
	n := 0
	for _, months := range idx {
		for _, days := range months {
			for _, ok := range days {
				if ok {
					n++
				}
			}
		}
	}
	return n
}

// Days lists reserved days in ascending order.
func (idx Index) Days() []time.Time {
	out := make([]time.Time, 0, idx.Len())
	for y, months := range idx {
		for m, days := range months {
			for d, ok := range days {
				if ok {
					out = append(out, time.Date(y, time.Month(m+1), d, 0, 0, 0, 0, time.UTC))
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (idx Index) set(t time.Time) {
	y, m, d := key(t)
	months, ok := idx[y]
	if !ok {
		months = make(map[int]map[int]bool)
		idx[y] = months
	}
	days, ok := months[m]
	if !ok {
		days = make(map[int]bool)
		months[m] = days
	}
	days[d] = true
}

func key(t time.Time) (int, int, int) {
	u := daterange.Day(t)
	return u.Year(), int(u.Month()) - 1, u.Day()
}
