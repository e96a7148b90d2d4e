package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
	kafkaconn "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/kafka"
)

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type eventPublisher struct {
	writer messageWriter
	config *config.KafkaConfig
	logger *zap.Logger
}

func NewEventPublisher(
	conn *kafkaconn.Connection,
	cfg *config.KafkaConfig,
	logger *zap.Logger,
) (ports.EventPublisher, error) {
	return &eventPublisher{
		writer: conn.CreateWriter(cfg.Topic),
		config: cfg,
		logger: logger,
	}, nil
}

// Publish submits one loan event keyed by loan id, so events for the same
// loan keep their submission order within a partition. The call returns once
// the broker acknowledges acceptance; there is no retry here.
func (p *eventPublisher) Publish(ctx context.Context, event domain.LoanEvent) error {
	body, err := event.MarshalPayload()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	messageID := uuid.New().String()
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.LoanID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "message-id", Value: []byte(messageID)},
			{Key: "event-type", Value: []byte(event.EventType)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish loan event",
			zap.Int64("loan_id", event.LoanID),
			zap.String("message_id", messageID),
			zap.String("topic", p.config.Topic),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	p.logger.Info("Loan event published",
		zap.Int64("loan_id", event.LoanID),
		zap.String("message_id", messageID),
		zap.String("topic", p.config.Topic),
	)

	return nil
}

// PublishWithRetry is an operational helper for re-emitting events outside
// the create path, with linear backoff between attempts.
func (p *eventPublisher) PublishWithRetry(ctx context.Context, event domain.LoanEvent, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := p.Publish(ctx, event)
		if err == nil {
			return nil
		}
		lastErr = err

		p.logger.Warn("Retrying loan event publish",
			zap.Int64("loan_id", event.LoanID),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
		)

		backoff := time.Duration(attempt+1) * p.config.RetryBackoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("failed to publish after %d retries: %w", maxRetries, lastErr)
}

func (p *eventPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	p.logger.Info("Kafka publisher closed")
	return nil
}
