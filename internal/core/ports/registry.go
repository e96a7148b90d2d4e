package ports

import (
	"context"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
)

// UserDirectory resolves user existence and public attributes from the remote
// user service. Not-found and unavailable map to domain.ErrUserNotFound and
// domain.ErrUpstreamUnavailable respectively.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// BookCatalog is the book-side counterpart of UserDirectory.
type BookCatalog interface {
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
}
