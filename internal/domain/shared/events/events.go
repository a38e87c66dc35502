package events

import "time"

// DomainEvent is a fact recorded by an aggregate and later published through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates (bookings, listings) that emit events.
// The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

// Record queues events in emission order. Nil events are skipped.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

// PendingEvents returns a copy of the queued events without draining them.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	if len(r.pending) == 0 {
		return nil
	}
	return append([]DomainEvent(nil), r.pending...)
}

// PullEvents drains the queue. Handlers call it once the aggregate is persisted.
func (r *EventRecorder) PullEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

// ClearEvents drops queued events, e.g. for aggregates loaded from fixtures.
func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
