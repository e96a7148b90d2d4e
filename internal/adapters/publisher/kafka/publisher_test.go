package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
)

type fakeWriter struct {
	messages []kafka.Message
	failures int
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unreachable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestPublisher(writer *fakeWriter) *eventPublisher {
	return &eventPublisher{
		writer: writer,
		config: &config.KafkaConfig{
			Topic:        "loan-created",
			MaxRetry:     3,
			RetryBackoff: time.Millisecond,
		},
		logger: zap.NewNop(),
	}
}

func testEvent() domain.LoanEvent {
	return domain.LoanEvent{
		LoanID:    101,
		UserID:    42,
		BookID:    7,
		EventType: domain.EventTypeLoanCreated,
		Timestamp: time.Now(),
	}
}

func headerValue(t *testing.T, msg kafka.Message, key string) string {
	t.Helper()
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	t.Fatalf("header %q not found", key)
	return ""
}

func TestPublishKeysByLoanID(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	require.NoError(t, publisher.Publish(context.Background(), testEvent()))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "101", string(msg.Key))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &raw))
	assert.Equal(t, float64(101), raw["empruntId"])
	assert.Equal(t, float64(42), raw["userId"])
	assert.Equal(t, float64(7), raw["bookId"])
	assert.Equal(t, "LOAN_CREATED", raw["eventType"])

	assert.Equal(t, "LOAN_CREATED", headerValue(t, msg, "event-type"))
	assert.Equal(t, "application/json", headerValue(t, msg, "content-type"))
	assert.NotEmpty(t, headerValue(t, msg, "message-id"))
}

func TestPublishWriteFailure(t *testing.T) {
	writer := &fakeWriter{failures: 1}
	publisher := newTestPublisher(writer)

	err := publisher.Publish(context.Background(), testEvent())
	assert.ErrorIs(t, err, domain.ErrPublishFailed)
	assert.Empty(t, writer.messages)
}

func TestPublishWithRetryRecovers(t *testing.T) {
	writer := &fakeWriter{failures: 2}
	publisher := newTestPublisher(writer)

	err := publisher.PublishWithRetry(context.Background(), testEvent(), 3)
	require.NoError(t, err)
	assert.Len(t, writer.messages, 1)
}

func TestPublishWithRetryExhausted(t *testing.T) {
	writer := &fakeWriter{failures: 5}
	publisher := newTestPublisher(writer)

	err := publisher.PublishWithRetry(context.Background(), testEvent(), 3)
	assert.ErrorIs(t, err, domain.ErrPublishFailed)
	assert.Empty(t, writer.messages)
}

func TestPublishWithRetryHonorsContext(t *testing.T) {
	writer := &fakeWriter{failures: 5}
	publisher := newTestPublisher(writer)
	publisher.config.RetryBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishWithRetry(ctx, testEvent(), 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseClosesWriter(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newTestPublisher(writer)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}
