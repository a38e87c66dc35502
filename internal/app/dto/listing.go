package dto

import (
	"strconv"
	"time"

	domainlistings "tinyhouse/internal/domain/listings"
)

type Listing struct {
	ID            string                                `json:"id"`
	Host          string                                `json:"host"`
	Title         string                                `json:"title"`
	Description   string                                `json:"description"`
	Type          string                                `json:"type"`
	Address       string                                `json:"address"`
	Country       string                                `json:"country"`
	Admin         string                                `json:"admin"`
	City          string                                `json:"city"`
	Image         string                                `json:"image"`
	Price         int64                                 `json:"price"`
	NumOfGuests   int                                   `json:"num_of_guests"`
	BookingsIndex map[string]map[string]map[string]bool `json:"bookings_index"`
	Bookings      *BookingPage                          `json:"bookings,omitempty"`
	CreatedAt     time.Time                             `json:"created_at"`
}

type ListingPage struct {
	Region string    `json:"region,omitempty"`
	Total  int       `json:"total"`
	Result []Listing `json:"result"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	return Listing{
		ID:            string(l.ID),
		Host:          string(l.Host),
		Title:         l.Title,
		Description:   l.Description,
		Type:          string(l.Type),
		Address:       l.Address,
		Country:       l.Country,
		Admin:         l.Admin,
		City:          l.City,
		Image:         l.ImageURL,
		Price:         l.Price,
		NumOfGuests:   l.NumOfGuests,
		BookingsIndex: MapBookingsIndex(l.BookingsIndex),
		CreatedAt:     l.CreatedAt,
	}
}

func MapListings(items []*domainlistings.Listing) []Listing {
	out := make([]Listing, 0, len(items))
	for _, l := range items {
		out = append(out, MapListing(l))
	}
	return out
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
