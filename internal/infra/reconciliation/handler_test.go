package reconciliation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/money"
	"tinyhouse/internal/infra/reconciliation"
)

type memoryInbox struct {
	seen      map[string]bool
	forgotten []string
}

func (m *memoryInbox) Seen(_ context.Context, id string) (bool, error) {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

func (m *memoryInbox) Forget(_ context.Context, id string) error {
	delete(m.seen, id)
	m.forgotten = append(m.forgotten, id)
	return nil
}

type queueFunc func(ctx context.Context, e reconciliation.Entry) error

func (f queueFunc) Enqueue(ctx context.Context, e reconciliation.Entry) error { return f(ctx, e) }

func message(t *testing.T, id, typ string, data any) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"specversion": "1.0", "id": id, "type": typ, "time": time.Now().UTC(), "data": json.RawMessage(raw),
	})
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: body}
}

func inconsistent() domainbooking.PersistenceInconsistent {
	return domainbooking.PersistenceInconsistent{
		BookingID: "bk-1", ListingID: "l-1", TenantID: "tenant", HostID: "host",
		Range: daterange.DateRange{
			CheckIn:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		Total: money.Money{Amount: 30000, Currency: "USD"}, ChargeID: "ch_1",
		Step: domainbooking.StepHostIncome, Reason: "write timeout",
		At: time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandlerQueuesInconsistentBookingsOnce(t *testing.T) {
	var queued []reconciliation.Entry
	h := &reconciliation.Handler{
		Inbox: &memoryInbox{},
		Queue: queueFunc(func(_ context.Context, e reconciliation.Entry) error {
			queued = append(queued, e)
			return nil
		}),
	}
	msg := message(t, "ev-1", reconciliation.EventType, inconsistent())

	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, queued, 1)

	entry := queued[0]
	require.Equal(t, "bk-1", entry.BookingID)
	require.Equal(t, "ch_1", entry.ChargeID)
	require.Equal(t, int64(30000), entry.Amount)
	require.Equal(t, "USD", entry.Currency)
	require.Equal(t, domainbooking.StepHostIncome, entry.Step)
	require.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), entry.CheckOut)
	require.Equal(t, reconciliation.StatusPending, entry.Status)
}

func TestHandlerIgnoresOtherEvents(t *testing.T) {
	h := &reconciliation.Handler{
		Inbox: &memoryInbox{},
		Queue: queueFunc(func(context.Context, reconciliation.Entry) error {
			t.Fatal("unexpected enqueue")
			return nil
		}),
	}
	require.NoError(t, h.Handle(context.Background(), message(t, "ev-2", "booking.created.v1", map[string]string{"booking_id": "bk"})))
	require.NoError(t, h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("garbage")}))
	require.NoError(t, h.Handle(context.Background(), message(t, "ev-3", reconciliation.EventType, map[string]string{})))
}

func TestHandlerForgetsEventWhenEnqueueFails(t *testing.T) {
	inbox := &memoryInbox{}
	h := &reconciliation.Handler{
		Inbox: inbox,
		Queue: queueFunc(func(context.Context, reconciliation.Entry) error { return errors.New("mongo down") }),
	}
	err := h.Handle(context.Background(), message(t, "ev-1", reconciliation.EventType, inconsistent()))
	require.Error(t, err)
	require.Equal(t, []string{"ev-1"}, inbox.forgotten)
}
