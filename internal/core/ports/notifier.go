package ports

import (
	"context"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

// Notifier is the hand-off point for notification side effects. What gets
// sent, and over which medium, is owned by the notification subsystem behind
// this interface.
type Notifier interface {
	NotifyLoanCreated(ctx context.Context, event domain.LoanEvent) error
}
