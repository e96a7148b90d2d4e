package kafka

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
)

type LoanEventHandlers struct {
	notifier ports.Notifier
	dedup    ports.EventDeduplicator
	logger   *zap.Logger
}

func NewLoanEventHandlers(notifier ports.Notifier, dedup ports.EventDeduplicator, logger *zap.Logger) *LoanEventHandlers {
	return &LoanEventHandlers{
		notifier: notifier,
		dedup:    dedup,
		logger:   logger,
	}
}

// HandleLoanCreated triggers the notification hand-off for one loan-created
// event. Redelivered duplicates are absorbed through the dedup store; if that
// store is unreachable the event is handled anyway, since a duplicate
// notification beats a lost one.
func (h *LoanEventHandlers) HandleLoanCreated(ctx context.Context, key string, value []byte, headers map[string]string) error {
	event, err := domain.LoanEventFromPayload(value)
	if err != nil {
		return fmt.Errorf("decoding loan created event: %w", err)
	}

	h.logger.Info("Received loan created event",
		zap.Int64("loan_id", event.LoanID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("book_id", event.BookID),
		zap.String("message_id", headers["message-id"]),
	)

	dedupKey := fmt.Sprintf("loan-event:%s:%d", event.EventType, event.LoanID)
	claimed, claimErr := h.dedup.Claim(ctx, dedupKey)
	if claimErr != nil {
		h.logger.Warn("Dedup store unavailable, handling event anyway", zap.Error(claimErr))
	} else if !claimed {
		h.logger.Info("Duplicate delivery ignored",
			zap.Int64("loan_id", event.LoanID),
			zap.String("message_id", headers["message-id"]),
		)
		return nil
	}

	if err := h.notifier.NotifyLoanCreated(ctx, event); err != nil {
		// Give the claim back so a redelivery can retry the hand-off.
		if claimErr == nil {
			if relErr := h.dedup.Release(ctx, dedupKey); relErr != nil {
				h.logger.Warn("Failed to release dedup claim", zap.Error(relErr))
			}
		}
		return fmt.Errorf("notification hand-off failed for loan %d: %w", event.LoanID, err)
	}

	h.logger.Info("Notification triggered",
		zap.Int64("loan_id", event.LoanID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("book_id", event.BookID),
	)

	return nil
}

func (h *LoanEventHandlers) RegisterHandlers(consumer *Consumer) {
	consumer.RegisterHandler(domain.EventTypeLoanCreated, h.HandleLoanCreated)
}
