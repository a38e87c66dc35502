package listings

import (
	"time"

	"tinyhouse/internal/domain/user"
)

type ListingCreatedEvent struct {
	ListingID ListingID
	HostID    user.ID
	At        time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }
