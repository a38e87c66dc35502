package booking

import (
	"time"

	"tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/money"
	"tinyhouse/internal/domain/user"
)

type BookingCreated struct {
	BookingID BookingID           `json:"booking_id"`
	ListingID listings.ListingID  `json:"listing_id"`
	TenantID  user.ID             `json:"tenant_id"`
	Range     daterange.DateRange `json:"range"`
	Total     money.Money         `json:"total"`
	ChargeID  string              `json:"charge_id"`
	At        time.Time           `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

// PersistenceInconsistent is emitted when a captured charge could not be fully recorded.
type PersistenceInconsistent struct {
	BookingID BookingID           `json:"booking_id"`
	ListingID listings.ListingID  `json:"listing_id"`
	TenantID  user.ID             `json:"tenant_id"`
	HostID    user.ID             `json:"host_id"`
	Range     daterange.DateRange `json:"range"`
	Total     money.Money         `json:"total"`
	ChargeID  string              `json:"charge_id"`
	Step      string              `json:"step"`
	Reason    string              `json:"reason"`
	At        time.Time           `json:"at"`
}

func (e PersistenceInconsistent) EventName() string     { return "booking.persistence_inconsistent" }
func (e PersistenceInconsistent) AggregateID() string   { return string(e.BookingID) }
func (e PersistenceInconsistent) OccurredAt() time.Time { return e.At }
