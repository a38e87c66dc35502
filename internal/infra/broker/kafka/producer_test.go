package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

type fakeSyncProducer struct {
	sarama.SyncProducer
	SendFunc func(msg *sarama.ProducerMessage) error
	sent     []*sarama.ProducerMessage
}

func (p *fakeSyncProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if p.SendFunc != nil {
		if err := p.SendFunc(msg); err != nil {
			return 0, 0, err
		}
	}
	p.sent = append(p.sent, msg)
	return 0, int64(len(p.sent)), nil
}

func TestPublishBuildsMessage(t *testing.T) {
	fake := &fakeSyncProducer{}
	p := newProducerWith(fake)
	err := p.Publish(context.Background(), "booking.events.v1", "bk-1", []byte(`{}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	msg := fake.sent[0]
	require.Equal(t, "booking.events.v1", msg.Topic)
	key, err := msg.Key.Encode()
	require.NoError(t, err)
	require.Equal(t, "bk-1", string(key))
	require.Equal(t, []sarama.RecordHeader{{Key: []byte("content-type"), Value: []byte("application/cloudevents+json")}}, msg.Headers)
}

func TestPublishPropagatesErrors(t *testing.T) {
	fake := &fakeSyncProducer{SendFunc: func(*sarama.ProducerMessage) error { return sarama.ErrOutOfBrokers }}
	p := newProducerWith(fake)
	require.ErrorIs(t, p.Publish(context.Background(), "t", "k", nil, nil), sarama.ErrOutOfBrokers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.Is(p.Publish(ctx, "t", "k", nil, nil), context.Canceled))
}

func TestPublishOrdersHeaders(t *testing.T) {
	fake := &fakeSyncProducer{}
	p := newProducerWith(fake)
	require.NoError(t, p.Publish(context.Background(), "t", "k", nil, map[string]string{
		"traceparent":  "00-abc-def-01",
		"content-type": "application/cloudevents+json",
		"event-name":   "booking.created",
	}))
	var keys []string
	for _, h := range fake.sent[0].Headers {
		keys = append(keys, string(h.Key))
	}
	require.Equal(t, []string{"content-type", "event-name", "traceparent"}, keys)
}
