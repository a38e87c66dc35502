package dto

import (
	"tinyhouse/internal/domain/calendar"
)

type Calendar struct {
	ListingID string   `json:"listing_id"`
	Reserved  []string `json:"reserved"`
}

func MapCalendar(listingID string, idx calendar.Index) Calendar {
	days := idx.Days()
	reserved := make([]string, 0, len(days))
	for _, d := range days {
		reserved = append(reserved, FormatDate(d))
	}
	return Calendar{ListingID: listingID, Reserved: reserved}
}

// MapBookingsIndex renders the index in its persisted nested shape with string keys.
func MapBookingsIndex(idx calendar.Index) map[string]map[string]map[string]bool {
	out := make(map[string]map[string]map[string]bool, len(idx))
	for y, months := range idx {
		mm := make(map[string]map[string]bool, len(months))
		for m, days := range months {
			dd := make(map[string]bool, len(days))
			for d, ok := range days {
				if ok {
					dd[itoa(d)] = true
				}
			}
			mm[itoa(m)] = dd
		}
		out[itoa(y)] = mm
	}
	return out
}
