package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
)

// notificationRequest is what the delivery subsystem dequeues. Which medium
// it uses (email, SMS, push) is its own concern.
type notificationRequest struct {
	LoanID      int64     `json:"loanId"`
	UserID      int64     `json:"userId"`
	BookID      int64     `json:"bookId"`
	RequestedAt time.Time `json:"requestedAt"`
}

type notifier struct {
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	logger  *zap.Logger
}

// NewNotifier queues notification requests on RabbitMQ for the delivery
// subsystem.
func NewNotifier(conn *amqp.Connection, cfg *config.RabbitMQConfig, logger *zap.Logger) (ports.Notifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare notification queue: %w", err)
	}

	return &notifier{
		channel: ch,
		config:  cfg,
		logger:  logger,
	}, nil
}

func (n *notifier) NotifyLoanCreated(ctx context.Context, event domain.LoanEvent) error {
	req := notificationRequest{
		LoanID:      event.LoanID,
		UserID:      event.UserID,
		BookID:      event.BookID,
		RequestedAt: time.Now(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	err = n.channel.PublishWithContext(
		ctx,
		"", // default exchange, routed straight to the queue
		n.config.Queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		n.logger.Error("Failed to enqueue notification request",
			zap.Int64("loan_id", event.LoanID),
			zap.Error(err),
		)
		return err
	}

	n.logger.Info("Notification request enqueued",
		zap.Int64("loan_id", event.LoanID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("book_id", event.BookID),
		zap.String("queue", n.config.Queue),
	)

	return nil
}
