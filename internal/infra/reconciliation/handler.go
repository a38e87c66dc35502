package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// EventType is the CloudEvents type of an inconsistent booking.
const EventType = "booking.persistence_inconsistent.v1"

// Entry is one captured charge whose records need to be completed or refunded.
type Entry struct {
	EventID    string    `bson:"_id" json:"event_id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	ListingID  string    `bson:"listing_id" json:"listing_id"`
	TenantID   string    `bson:"tenant_id" json:"tenant_id"`
	HostID     string    `bson:"host_id" json:"host_id"`
	ChargeID   string    `bson:"charge_id" json:"charge_id"`
	Amount     int64     `bson:"amount" json:"amount"`
	Currency   string    `bson:"currency" json:"currency"`
	CheckIn    time.Time `bson:"check_in" json:"check_in"`
	CheckOut   time.Time `bson:"check_out" json:"check_out"`
	Step       string    `bson:"step" json:"step"`
	Reason     string    `bson:"reason" json:"reason"`
	Status     string    `bson:"status" json:"status"`
	OccurredAt time.Time `bson:"occurred_at" json:"occurred_at"`
	ReceivedAt time.Time `bson:"received_at" json:"received_at"`
}

const StatusPending = "PENDING"

type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Queue interface {
	Enqueue(ctx context.Context, entry Entry) error
}

var ErrMalformedEvent = errors.New("reconciliation: malformed event")

// Handler consumes booking events and queues inconsistent bookings for the
// out-of-band sweep. Other event types are acknowledged and ignored.
type Handler struct {
	Inbox  Deduper
	Queue  Queue
	Logger *slog.Logger
	Clock  func() time.Time
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

type inconsistentData struct {
	BookingID string `json:"booking_id"`
	ListingID string `json:"listing_id"`
	TenantID  string `json:"tenant_id"`
	HostID    string `json:"host_id"`
	Range     struct {
		CheckIn  time.Time `json:"CheckIn"`
		CheckOut time.Time `json:"CheckOut"`
	} `json:"range"`
	Total struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"total"`
	ChargeID string    `json:"charge_id"`
	Step     string    `json:"step"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

func (h *Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.warn("dropping undecodable event", msg, err)
		return nil
	}
	if evt.Type != EventType {
		return nil
	}
	entry, err := h.entryFrom(evt)
	if err != nil {
		h.warn("dropping malformed inconsistency event", msg, err)
		return nil
	}

	seen, err := h.Inbox.Seen(ctx, entry.EventID)
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	if seen {
		return nil
	}
	if err := h.Queue.Enqueue(ctx, entry); err != nil {
		if ferr := h.Inbox.Forget(ctx, entry.EventID); ferr != nil && h.Logger != nil {
			h.Logger.Error("inbox forget failed", "event_id", entry.EventID, "error", ferr)
		}
		return fmt.Errorf("enqueue reconciliation: %w", err)
	}
	if h.Logger != nil {
		h.Logger.Warn("booking queued for reconciliation",
			"booking_id", entry.BookingID, "charge_id", entry.ChargeID, "step", entry.Step)
	}
	return nil
}

func (h *Handler) entryFrom(evt cloudEvent) (Entry, error) {
	if strings.TrimSpace(evt.ID) == "" {
		return Entry{}, ErrMalformedEvent
	}
	var data inconsistentData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if data.BookingID == "" || data.ChargeID == "" {
		return Entry{}, ErrMalformedEvent
	}
	occurred := data.At
	if occurred.IsZero() {
		occurred = evt.Time
	}
	return Entry{
		EventID:    evt.ID,
		BookingID:  data.BookingID,
		ListingID:  data.ListingID,
		TenantID:   data.TenantID,
		HostID:     data.HostID,
		ChargeID:   data.ChargeID,
		Amount:     data.Total.Amount,
		Currency:   data.Total.Currency,
		CheckIn:    data.Range.CheckIn,
		CheckOut:   data.Range.CheckOut,
		Step:       data.Step,
		Reason:     data.Reason,
		Status:     StatusPending,
		OccurredAt: occurred.UTC(),
		ReceivedAt: h.now().UTC(),
	}, nil
}

func (h *Handler) warn(msg string, m *sarama.ConsumerMessage, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, "topic", m.Topic, "offset", m.Offset, "error", err)
	}
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}
