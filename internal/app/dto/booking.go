package dto

import (
	"time"

	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Booking struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	TenantID  string    `json:"tenant_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Total     MoneyDTO  `json:"total"`
	ChargeID  string    `json:"charge_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingPage struct {
	Total  int       `json:"total"`
	Result []Booking `json:"result"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapBooking(b *domainbooking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	return Booking{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		TenantID:  string(b.TenantID),
		CheckIn:   FormatDate(b.Range.CheckIn),
		CheckOut:  FormatDate(b.Range.CheckOut),
		Total:     MapMoney(b.Total),
		ChargeID:  b.ChargeID,
		CreatedAt: b.CreatedAt,
	}
}

func MapBookings(items []*domainbooking.Booking) []Booking {
	out := make([]Booking, 0, len(items))
	for _, b := range items {
		out = append(out, MapBooking(b))
	}
	return out
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
