package ports

import (
	"context"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

// EventPublisher hands a loan event to the event channel. The contract ends
// when the channel acknowledges acceptance; delivery to consumers is the
// channel's business. Publish performs no retry of its own.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LoanEvent) error
	PublishWithRetry(ctx context.Context, event domain.LoanEvent, maxRetries int) error
	Close() error
}
