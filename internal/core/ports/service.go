package ports

import (
	"context"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

type LoanService interface {
	CreateLoan(ctx context.Context, userID, bookID int64) (*domain.CreateLoanResult, error)
	ListLoans(ctx context.Context) ([]domain.LoanDetailsView, error)
}
