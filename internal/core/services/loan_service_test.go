package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

type fakeRepo struct {
	loans   []domain.Loan
	nextID  int64
	saveErr error
	findErr error
	saves   int
}

func (r *fakeRepo) Save(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	r.saves++
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.nextID++
	loan.ID = r.nextID + 100
	r.loans = append(r.loans, *loan)
	return loan, nil
}

func (r *fakeRepo) FindAll(ctx context.Context) ([]domain.Loan, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.loans, nil
}

type fakeUserDirectory struct {
	users map[int64]*domain.User
	err   error
}

func (d *fakeUserDirectory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	user, ok := d.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

type fakeBookCatalog struct {
	books map[int64]*domain.Book
	err   error
}

func (c *fakeBookCatalog) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	if c.err != nil {
		return nil, c.err
	}
	book, ok := c.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

type fakePublisher struct {
	published []domain.LoanEvent
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, event domain.LoanEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) PublishWithRetry(ctx context.Context, event domain.LoanEvent, maxRetries int) error {
	return p.Publish(ctx, event)
}

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	repo      *fakeRepo
	users     *fakeUserDirectory
	books     *fakeBookCatalog
	publisher *fakePublisher
}

func newFixture() *fixture {
	return &fixture{
		repo: &fakeRepo{},
		users: &fakeUserDirectory{users: map[int64]*domain.User{
			42: {ID: 42, Name: "Alice"},
		}},
		books: &fakeBookCatalog{books: map[int64]*domain.Book{
			7: {ID: 7, Title: "Dune"},
		}},
		publisher: &fakePublisher{},
	}
}

func (f *fixture) service() *loanService {
	return NewLoanService(f.repo, f.users, f.books, f.publisher, zap.NewNop()).(*loanService)
}

func TestCreateLoanSuccess(t *testing.T) {
	f := newFixture()
	before := time.Now()

	result, err := f.service().CreateLoan(context.Background(), 42, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(101), result.Loan.ID)
	assert.Equal(t, int64(42), result.Loan.UserID)
	assert.Equal(t, int64(7), result.Loan.BookID)
	assert.False(t, result.Loan.LoanDate.Before(before))
	assert.False(t, result.NotificationPending)

	require.Len(t, f.publisher.published, 1)
	event := f.publisher.published[0]
	assert.Equal(t, int64(101), event.LoanID)
	assert.Equal(t, int64(42), event.UserID)
	assert.Equal(t, int64(7), event.BookID)
	assert.Equal(t, domain.EventTypeLoanCreated, event.EventType)
}

func TestCreateLoanUserNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service().CreateLoan(context.Background(), 99, 7)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// The operation simply did not happen: no store write, no publish.
	assert.Zero(t, f.repo.saves)
	assert.Empty(t, f.publisher.published)
}

func TestCreateLoanBookNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service().CreateLoan(context.Background(), 42, 99)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	assert.Zero(t, f.repo.saves)
	assert.Empty(t, f.publisher.published)
}

func TestCreateLoanUpstreamUnavailable(t *testing.T) {
	f := newFixture()
	f.users.err = domain.ErrUpstreamUnavailable

	_, err := f.service().CreateLoan(context.Background(), 42, 7)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Zero(t, f.repo.saves)
	assert.Empty(t, f.publisher.published)
}

func TestCreateLoanStoreUnavailable(t *testing.T) {
	f := newFixture()
	f.repo.saveErr = domain.ErrStoreUnavailable

	_, err := f.service().CreateLoan(context.Background(), 42, 7)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, f.publisher.published)
}

func TestCreateLoanPublishFailureIsDegradedSuccess(t *testing.T) {
	f := newFixture()
	f.publisher.err = domain.ErrPublishFailed

	result, err := f.service().CreateLoan(context.Background(), 42, 7)
	require.NoError(t, err)

	// The loan is durable and retrievable even though the event was lost.
	assert.Equal(t, int64(101), result.Loan.ID)
	assert.True(t, result.NotificationPending)

	views, err := f.service().ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(101), views[0].LoanID)
}

func TestListLoansResolvesLiveDetails(t *testing.T) {
	f := newFixture()
	svc := f.service()

	_, err := svc.CreateLoan(context.Background(), 42, 7)
	require.NoError(t, err)

	views, err := svc.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Alice", views[0].UserName)
	assert.Equal(t, "Dune", views[0].BookTitle)

	// Listing re-resolves on every call, so a title change shows up.
	f.books.books[7].Title = "Dune Messiah"
	views, err = svc.ListLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", views[0].BookTitle)
}

func TestListLoansDegradesPerItem(t *testing.T) {
	f := newFixture()
	svc := f.service()

	_, err := svc.CreateLoan(context.Background(), 42, 7)
	require.NoError(t, err)

	// The referenced entities disappear after loan creation.
	delete(f.users.users, 42)
	delete(f.books.books, 7)

	views, err := svc.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, UnknownUserName, views[0].UserName)
	assert.Equal(t, UnknownBookTitle, views[0].BookTitle)
}

func TestListLoansStoreUnavailable(t *testing.T) {
	f := newFixture()
	f.repo.findErr = domain.ErrStoreUnavailable

	_, err := f.service().ListLoans(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
