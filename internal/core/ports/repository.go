package ports

import (
	"context"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

// LoanRepository is the durable record store behind loan creation. Save
// assigns the loan id atomically; FindAll is an unbounded scan used by the
// listing path.
type LoanRepository interface {
	Save(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)
	FindAll(ctx context.Context) ([]domain.Loan, error)
}
