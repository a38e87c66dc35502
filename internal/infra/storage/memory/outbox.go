package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "tinyhouse/internal/app/outbox"
)

// Outbox keeps events in memory until flushed; a flush logs and drops them.
type Outbox struct {
	Logger *slog.Logger

	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox(logger *slog.Logger) *Outbox {
	return &Outbox{Logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()
	if o.Logger != nil {
		for _, rec := range records {
			o.Logger.InfoContext(ctx, "event published", "event", rec.Name, "aggregate", rec.Aggregate, "event_id", rec.ID)
		}
	}
	return nil
}

// Pending returns a copy of the unflushed records.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
