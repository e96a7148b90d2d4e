package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
)

type loanRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLoanRepository(db *gorm.DB, logger *zap.Logger) ports.LoanRepository {
	return &loanRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts the loan and returns it with the store-assigned id. Id
// assignment is atomic at the database, so concurrent creates never collide.
func (r *loanRepository) Save(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		r.logger.Error("Failed to insert loan", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return loan, nil
}

func (r *loanRepository) FindAll(ctx context.Context) ([]domain.Loan, error) {
	var loans []domain.Loan
	if err := r.db.WithContext(ctx).Order("id").Find(&loans).Error; err != nil {
		r.logger.Error("Failed to scan loans", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return loans, nil
}
