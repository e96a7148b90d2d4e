package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

type fakeNotifier struct {
	notified []domain.LoanEvent
	err      error
}

func (n *fakeNotifier) NotifyLoanCreated(ctx context.Context, event domain.LoanEvent) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, event)
	return nil
}

type memoryDedup struct {
	claims   map[string]bool
	claimErr error
}

func newMemoryDedup() *memoryDedup {
	return &memoryDedup{claims: make(map[string]bool)}
}

func (d *memoryDedup) Claim(ctx context.Context, key string) (bool, error) {
	if d.claimErr != nil {
		return false, d.claimErr
	}
	if d.claims[key] {
		return false, nil
	}
	d.claims[key] = true
	return true, nil
}

func (d *memoryDedup) Release(ctx context.Context, key string) error {
	delete(d.claims, key)
	return nil
}

func loanCreatedPayload(t *testing.T) []byte {
	t.Helper()
	event := domain.LoanEvent{
		LoanID:    101,
		UserID:    42,
		BookID:    7,
		EventType: domain.EventTypeLoanCreated,
		Timestamp: time.Now(),
	}
	payload, err := event.MarshalPayload()
	require.NoError(t, err)
	return payload
}

func TestHandleLoanCreatedNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	handlers := NewLoanEventHandlers(notifier, newMemoryDedup(), zap.NewNop())

	err := handlers.HandleLoanCreated(context.Background(), "101", loanCreatedPayload(t), map[string]string{"message-id": "m-1"})
	require.NoError(t, err)

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, int64(101), notifier.notified[0].LoanID)
	assert.Equal(t, int64(42), notifier.notified[0].UserID)
	assert.Equal(t, int64(7), notifier.notified[0].BookID)
}

func TestHandleLoanCreatedAbsorbsDuplicates(t *testing.T) {
	notifier := &fakeNotifier{}
	handlers := NewLoanEventHandlers(notifier, newMemoryDedup(), zap.NewNop())
	payload := loanCreatedPayload(t)

	// Same event delivered twice, as at-least-once delivery allows.
	require.NoError(t, handlers.HandleLoanCreated(context.Background(), "101", payload, map[string]string{"message-id": "m-1"}))
	require.NoError(t, handlers.HandleLoanCreated(context.Background(), "101", payload, map[string]string{"message-id": "m-1"}))

	assert.Len(t, notifier.notified, 1)
}

func TestHandleLoanCreatedMalformedPayload(t *testing.T) {
	notifier := &fakeNotifier{}
	handlers := NewLoanEventHandlers(notifier, newMemoryDedup(), zap.NewNop())

	err := handlers.HandleLoanCreated(context.Background(), "101", []byte("{not-json"), nil)
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
	assert.Empty(t, notifier.notified)
}

func TestHandleLoanCreatedDedupStoreDown(t *testing.T) {
	notifier := &fakeNotifier{}
	dedup := newMemoryDedup()
	dedup.claimErr = errors.New("redis unreachable")
	handlers := NewLoanEventHandlers(notifier, dedup, zap.NewNop())

	// A broken dedup store must not block notifications.
	err := handlers.HandleLoanCreated(context.Background(), "101", loanCreatedPayload(t), nil)
	require.NoError(t, err)
	assert.Len(t, notifier.notified, 1)
}

func TestHandleLoanCreatedNotifierFailureReleasesClaim(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("queue unreachable")}
	dedup := newMemoryDedup()
	handlers := NewLoanEventHandlers(notifier, dedup, zap.NewNop())
	payload := loanCreatedPayload(t)

	err := handlers.HandleLoanCreated(context.Background(), "101", payload, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMalformedEvent)

	// The claim was given back, so the redelivered event goes through once
	// the queue recovers.
	notifier.err = nil
	require.NoError(t, handlers.HandleLoanCreated(context.Background(), "101", payload, nil))
	assert.Len(t, notifier.notified, 1)
}
