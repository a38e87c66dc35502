package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired   = errors.New("user: id is required")
	ErrNameRequired = errors.New("user: name is required")
	ErrNotFound     = errors.New("user: not found")
	ErrInvalidDelta = errors.New("user: income delta must be positive")
)

type ID string

// User is both a tenant (Bookings) and a host (Listings, Income, WalletID).
type User struct {
	ID        ID
	Name      string
	Avatar    string
	Contact   string
	WalletID  string
	Income    int64
	Bookings  []string
	Listings  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository exposes whole-record reads and per-field atomic writes.
// AddIncome and AppendBooking never rewrite the rest of the record so concurrent
// bookings touching the same host or tenant do not lose updates.
type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	Save(ctx context.Context, user *User) error
	AddIncome(ctx context.Context, id ID, amount int64) error
	AppendBooking(ctx context.Context, id ID, bookingID string) error
	AppendListing(ctx context.Context, id ID, listingID string) error
	SetWallet(ctx context.Context, id ID, walletID string) error
}

type CreateParams struct {
	ID        ID
	Name      string
	Avatar    string
	Contact   string
	WalletID  string
	CreatedAt time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:        ID(id),
		Name:      name,
		Avatar:    strings.TrimSpace(params.Avatar),
		Contact:   strings.TrimSpace(params.Contact),
		WalletID:  strings.TrimSpace(params.WalletID),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasWallet reports whether the user can receive payouts.
func (u *User) HasWallet() bool {
	return u != nil && strings.TrimSpace(u.WalletID) != ""
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Bookings = append([]string(nil), u.Bookings...)
	out.Listings = append([]string(nil), u.Listings...)
	return &out
}
