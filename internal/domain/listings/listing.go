package listings

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"tinyhouse/internal/domain/calendar"
	"tinyhouse/internal/domain/shared/events"
	"tinyhouse/internal/domain/user"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrConcurrentUpdate = errors.New("listings: concurrent update")
	ErrIDRequired       = errors.New("listings: id is required")
	ErrHostRequired     = errors.New("listings: host is required")
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrTitleTooLong     = errors.New("listings: title must be under 100 characters")
	ErrDescriptionLong  = errors.New("listings: description must be under 5000 characters")
	ErrInvalidType      = errors.New("listings: type must be APARTMENT or HOUSE")
	ErrNegativePrice    = errors.New("listings: price must not be negative")
	ErrGuestsLimit      = errors.New("listings: num of guests must be at least 1")
	ErrInvalidAddress   = errors.New("listings: invalid address")
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000
)

type ListingID string

type ListingType string

const (
	TypeApartment ListingType = "APARTMENT"
	TypeHouse     ListingType = "HOUSE"
)

func ParseType(raw string) (ListingType, error) {
	switch ListingType(strings.ToUpper(strings.TrimSpace(raw))) {
	case TypeApartment:
		return TypeApartment, nil
	case TypeHouse:
		return TypeHouse, nil
	default:
		return "", ErrInvalidType
	}
}

type Listing struct {
	ID            ListingID
	Host          user.ID
	Title         string
	Description   string
	Type          ListingType
	Address       string
	Country       string
	Admin         string
	City          string
	ImageURL      string
	Price         int64
	NumOfGuests   int
	BookingsIndex calendar.Index
	Bookings      []string
	// Version is the compare-and-swap token; every persisted update bumps it by one.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

// Repository persists listings. Save is a compare-and-swap: it succeeds only when the
// stored Version equals listing.Version, increments Version on success and returns
// ErrConcurrentUpdate otherwise. Create inserts a new listing at Version 0.
type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Create(ctx context.Context, listing *Listing) error
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	ByHost(ctx context.Context, host user.ID, limit, offset int) (SearchResult, error)
}

type CreateListingParams struct {
	ID          ListingID
	Host        user.ID
	Title       string
	Description string
	Type        string
	Address     string
	Country     string
	Admin       string
	City        string
	ImageURL    string
	Price       int64
	NumOfGuests int
	Now         time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	description := strings.TrimSpace(params.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, ErrDescriptionLong
	}
	kind, err := ParseType(params.Type)
	if err != nil {
		return nil, err
	}
	if params.Price < 0 {
		return nil, ErrNegativePrice
	}
	if params.NumOfGuests < 1 {
		return nil, ErrGuestsLimit
	}
	if strings.TrimSpace(params.Country) == "" || strings.TrimSpace(params.Admin) == "" || strings.TrimSpace(params.City) == "" {
		return nil, ErrInvalidAddress
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	listing := &Listing{
		ID:            params.ID,
		Host:          params.Host,
		Title:         title,
		Description:   description,
		Type:          kind,
		Address:       strings.TrimSpace(params.Address),
		Country:       strings.TrimSpace(params.Country),
		Admin:         strings.TrimSpace(params.Admin),
		City:          strings.TrimSpace(params.City),
		ImageURL:      strings.TrimSpace(params.ImageURL),
		Price:         params.Price,
		NumOfGuests:   params.NumOfGuests,
		BookingsIndex: calendar.New(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

func (l *Listing) IsHost(viewer user.ID) bool {
	return l != nil && viewer != "" && l.Host == viewer
}

// RecordReservation replaces the index with a freshly reserved one and appends the booking id.
func (l *Listing) RecordReservation(index calendar.Index, bookingID string, now time.Time) {
	l.BookingsIndex = index
	l.Bookings = append(l.Bookings, bookingID)
	l.UpdatedAt = now.UTC()
}

// Clone returns a deep copy without pending events.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	out := &Listing{
		ID:            l.ID,
		Host:          l.Host,
		Title:         l.Title,
		Description:   l.Description,
		Type:          l.Type,
		Address:       l.Address,
		Country:       l.Country,
		Admin:         l.Admin,
		City:          l.City,
		ImageURL:      l.ImageURL,
		Price:         l.Price,
		NumOfGuests:   l.NumOfGuests,
		BookingsIndex: l.BookingsIndex.Clone(),
		Bookings:      append([]string(nil), l.Bookings...),
		Version:       l.Version,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	return out
}
