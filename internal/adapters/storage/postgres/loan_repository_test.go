package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
)

func newTestRepository(t *testing.T) ports.LoanRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Loan{}))

	return NewLoanRepository(db, zap.NewNop())
}

func TestSaveAssignsID(t *testing.T) {
	repo := newTestRepository(t)

	loan := &domain.Loan{UserID: 42, BookID: 7, LoanDate: time.Now()}
	saved, err := repo.Save(context.Background(), loan)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	second, err := repo.Save(context.Background(), &domain.Loan{UserID: 42, BookID: 8, LoanDate: time.Now()})
	require.NoError(t, err)
	assert.Greater(t, second.ID, saved.ID)
}

func TestFindAllReturnsLoansInOrder(t *testing.T) {
	repo := newTestRepository(t)

	for bookID := int64(1); bookID <= 3; bookID++ {
		_, err := repo.Save(context.Background(), &domain.Loan{UserID: 42, BookID: bookID, LoanDate: time.Now()})
		require.NoError(t, err)
	}

	loans, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 3)
	for i := 1; i < len(loans); i++ {
		assert.Less(t, loans[i-1].ID, loans[i].ID)
	}
	assert.Equal(t, int64(1), loans[0].BookID)
	assert.Equal(t, int64(3), loans[2].BookID)
}

func TestFindAllEmptyStore(t *testing.T) {
	repo := newTestRepository(t)

	loans, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loans)
}
