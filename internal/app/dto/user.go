package dto

import (
	"time"

	domainuser "tinyhouse/internal/domain/user"
)

type UserProfile struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Avatar    string       `json:"avatar"`
	Contact   string       `json:"contact"`
	HasWallet bool         `json:"has_wallet"`
	Income    *int64       `json:"income,omitempty"`
	Bookings  *BookingPage `json:"bookings,omitempty"`
	Listings  ListingPage  `json:"listings"`
	CreatedAt time.Time    `json:"created_at"`
}

type Wallet struct {
	UserID    string `json:"user_id"`
	HasWallet bool   `json:"has_wallet"`
}

// MapUserProfile maps public fields. Income is included only when self is true.
func MapUserProfile(user *domainuser.User, self bool) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	profile := UserProfile{
		ID:        string(user.ID),
		Name:      user.Name,
		Avatar:    user.Avatar,
		Contact:   user.Contact,
		HasWallet: user.HasWallet(),
		Listings:  ListingPage{Result: []Listing{}},
		CreatedAt: user.CreatedAt,
	}
	if self {
		income := user.Income
		profile.Income = &income
	}
	return profile
}
