package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/domain/shared/events"
)

// HeaderEventName carries the event name next to the payload so relays can route
// without decoding it.
const HeaderEventName = "event-name"

var ErrUnnamedEvent = errors.New("outbox: event has no name")

// EventRecord is an encoded domain event waiting to be relayed to the broker.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox is written by command handlers. Flush is called by the command pipeline
// after each command; stores drained by a background relay may treat it as a no-op.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event struct as the payload.
type JSONEventEncoder struct {
	NewID func() string
	Now   func() time.Time
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	name := ev.EventName()
	if name == "" {
		return EventRecord{}, fmt.Errorf("%w: %T", ErrUnnamedEvent, ev)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", name, err)
	}
	occurred := ev.OccurredAt()
	if occurred.IsZero() {
		occurred = e.now()
	}
	return EventRecord{
		ID:         e.newID(),
		Name:       name,
		Payload:    payload,
		OccurredAt: occurred.UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{HeaderEventName: name},
	}, nil
}

func (e JSONEventEncoder) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e JSONEventEncoder) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// RecordDomainEvents encodes evs and appends them to box in emission order.
// A nil box drops the events, which is how handlers run without a relay in tests.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return fmt.Errorf("outbox: add %s: %w", rec.Name, err)
		}
	}
	return nil
}
