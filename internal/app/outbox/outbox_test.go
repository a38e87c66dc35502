package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/app/outbox"
	"tinyhouse/internal/domain/shared/events"
)

type listingHosted struct {
	Name      string    `json:"-"`
	ListingID string    `json:"listing_id"`
	At        time.Time `json:"at"`
}

func (e listingHosted) EventName() string     { return e.Name }
func (e listingHosted) AggregateID() string   { return e.ListingID }
func (e listingHosted) OccurredAt() time.Time { return e.At }

type recordingBox struct {
	records []outbox.EventRecord
	err     error
}

func (b *recordingBox) Add(_ context.Context, rec outbox.EventRecord) error {
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, rec)
	return nil
}

func (b *recordingBox) Flush(context.Context) error { return nil }

func TestJSONEventEncoder(t *testing.T) {
	fixed := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	enc := outbox.JSONEventEncoder{NewID: func() string { return "ev-1" }, Now: func() time.Time { return fixed }}

	rec, err := enc.Encode(listingHosted{Name: "listing.created", ListingID: "l-1"})
	require.NoError(t, err)
	require.Equal(t, "ev-1", rec.ID)
	require.Equal(t, "l-1", rec.Aggregate)
	require.Equal(t, fixed, rec.OccurredAt)
	require.Equal(t, "listing.created", rec.Headers[outbox.HeaderEventName])

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &body))
	require.Equal(t, "l-1", body["listing_id"])

	_, err = enc.Encode(listingHosted{ListingID: "l-1"})
	require.ErrorIs(t, err, outbox.ErrUnnamedEvent)
}

func TestRecordDomainEventsKeepsOrder(t *testing.T) {
	box := &recordingBox{}
	evs := []events.DomainEvent{
		listingHosted{Name: "listing.created", ListingID: "a"},
		listingHosted{Name: "listing.created", ListingID: "b"},
	}
	require.NoError(t, outbox.RecordDomainEvents(context.Background(), box, nil, evs))
	require.Len(t, box.records, 2)
	require.Equal(t, "a", box.records[0].Aggregate)
	require.Equal(t, "b", box.records[1].Aggregate)

	require.NoError(t, outbox.RecordDomainEvents(context.Background(), nil, nil, evs))

	box.err = errors.New("write conflict")
	require.ErrorIs(t, outbox.RecordDomainEvents(context.Background(), box, nil, evs), box.err)
}
