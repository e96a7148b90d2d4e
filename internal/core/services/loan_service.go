package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
)

// Placeholder values for listing rows whose user or book no longer resolves.
// The listing keeps the row instead of failing the whole scan.
const (
	UnknownUserName  = "unknown user"
	UnknownBookTitle = "unknown title"
)

type loanService struct {
	repo      ports.LoanRepository
	users     ports.UserDirectory
	books     ports.BookCatalog
	publisher ports.EventPublisher
	logger    *zap.Logger
}

func NewLoanService(
	repo ports.LoanRepository,
	users ports.UserDirectory,
	books ports.BookCatalog,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) ports.LoanService {
	return &loanService{
		repo:      repo,
		users:     users,
		books:     books,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateLoan validates both references, persists the loan, then emits the
// loan-created event. A publish failure never rolls back the create: the loan
// is already durable, so the result only flags the notification as pending.
func (s *loanService) CreateLoan(ctx context.Context, userID, bookID int64) (*domain.CreateLoanResult, error) {
	// The two lookups are independent; join them before touching the store.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.users.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		_, err := s.books.GetBook(gctx, bookID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Loan validation failed",
			zap.Int64("user_id", userID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return nil, err
	}

	loan := &domain.Loan{
		UserID:   userID,
		BookID:   bookID,
		LoanDate: time.Now(),
	}

	saved, err := s.repo.Save(ctx, loan)
	if err != nil {
		s.logger.Error("Failed to persist loan",
			zap.Int64("user_id", userID),
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return nil, err
	}

	result := &domain.CreateLoanResult{Loan: saved}

	event := domain.NewLoanCreatedEvent(saved)
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Losing a notification must never look like losing the loan.
		s.logger.Error("Loan created but event publish failed, notification pending",
			zap.Int64("loan_id", saved.ID),
			zap.Error(err),
		)
		result.NotificationPending = true
	}

	s.logger.Info("Loan created",
		zap.Int64("loan_id", saved.ID),
		zap.Int64("user_id", saved.UserID),
		zap.Int64("book_id", saved.BookID),
		zap.Bool("notification_pending", result.NotificationPending),
	)

	return result, nil
}

// ListLoans scans the store and resolves each loan's user name and book title
// against the live registry. Rows whose references no longer resolve are kept
// with placeholder values; one bad reference never aborts the listing.
func (s *loanService) ListLoans(ctx context.Context) ([]domain.LoanDetailsView, error) {
	loans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to read loans", zap.Error(err))
		return nil, err
	}

	views := make([]domain.LoanDetailsView, 0, len(loans))
	for _, loan := range loans {
		view := domain.LoanDetailsView{
			LoanID:    loan.ID,
			UserName:  UnknownUserName,
			BookTitle: UnknownBookTitle,
			LoanDate:  loan.LoanDate,
		}

		if user, err := s.users.GetUser(ctx, loan.UserID); err == nil {
			view.UserName = user.Name
		} else {
			s.logger.Warn("User lookup failed during listing",
				zap.Int64("loan_id", loan.ID),
				zap.Int64("user_id", loan.UserID),
				zap.Error(err),
			)
		}

		if book, err := s.books.GetBook(ctx, loan.BookID); err == nil {
			view.BookTitle = book.Title
		} else {
			s.logger.Warn("Book lookup failed during listing",
				zap.Int64("loan_id", loan.ID),
				zap.Int64("book_id", loan.BookID),
				zap.Error(err),
			)
		}

		views = append(views, view)
	}

	return views, nil
}
