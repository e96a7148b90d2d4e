package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
)

// client wraps one upstream of the entity registry. Each upstream gets its
// own circuit breaker so a dead book catalog cannot trip user lookups.
type client struct {
	baseURL     string
	resource    string
	notFoundErr error
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

func newClient(name, baseURL, resource string, notFoundErr error, cfg *config.RegistryConfig, logger *zap.Logger) *client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Registry breaker state changed",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &client{
		baseURL:     baseURL,
		resource:    resource,
		notFoundErr: notFoundErr,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		breaker:     breaker,
		logger:      logger,
	}
}

// fetchResult carries one round trip out of the breaker call. A 404 is a
// healthy upstream saying no, so it rides out as a successful result instead
// of a breaker failure.
type fetchResult struct {
	body     []byte
	notFound bool
}

// get fetches one entity by id and decodes it into dest. A 404 maps to the
// upstream's not-found error; transport failures, timeouts, other non-200
// statuses and an open breaker all map to domain.ErrUpstreamUnavailable.
func (c *client) get(ctx context.Context, id int64, dest interface{}) error {
	url := fmt.Sprintf("%s%s/%d", c.baseURL, c.resource, id)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return nil, reqErr
		}

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, doErr)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fetchResult{notFound: true}, nil
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
		}

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, readErr)
		}
		return fetchResult{body: data}, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open for %s", domain.ErrUpstreamUnavailable, c.breaker.Name())
		}
		return err
	}

	fetched := result.(fetchResult)
	if fetched.notFound {
		return c.notFoundErr
	}

	if err := json.Unmarshal(fetched.body, dest); err != nil {
		return fmt.Errorf("%w: bad response body: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

type userDirectory struct {
	*client
}

func NewUserDirectory(cfg *config.RegistryConfig, logger *zap.Logger) ports.UserDirectory {
	return &userDirectory{
		client: newClient("user-directory", cfg.UserServiceURL, "/api/v1/users", domain.ErrUserNotFound, cfg, logger),
	}
}

func (d *userDirectory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := d.get(ctx, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type bookCatalog struct {
	*client
}

func NewBookCatalog(cfg *config.RegistryConfig, logger *zap.Logger) ports.BookCatalog {
	return &bookCatalog{
		client: newClient("book-catalog", cfg.BookServiceURL, "/api/v1/books", domain.ErrBookNotFound, cfg, logger),
	}
}

func (c *bookCatalog) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var book domain.Book
	if err := c.get(ctx, id, &book); err != nil {
		return nil, err
	}
	return &book, nil
}
