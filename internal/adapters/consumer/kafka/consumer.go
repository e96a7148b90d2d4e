package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
	kafkaconn "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/kafka"
)

const processTimeout = 30 * time.Second

// MessageHandler processes one decoded message. Returning an error wrapping
// domain.ErrMalformedEvent marks the message as poison: it is logged and
// committed instead of being retried.
type MessageHandler func(ctx context.Context, key string, value []byte, headers map[string]string) error

// messageReader is the slice of kafka.Reader the consumer loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageWriter is the slice of kafka.Writer used to park exhausted messages.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader      messageReader
	errorWriter messageWriter
	config      *config.KafkaConfig
	logger      *zap.Logger
	handlers    map[string]MessageHandler
}

func NewConsumer(
	conn *kafkaconn.Connection,
	cfg *config.KafkaConfig,
	logger *zap.Logger,
) (*Consumer, error) {
	return &Consumer{
		reader:      conn.CreateReader(cfg.Topic, cfg.ConsumerGroup),
		errorWriter: conn.CreateWriter(cfg.ErrorTopic),
		config:      cfg,
		logger:      logger,
		handlers:    make(map[string]MessageHandler),
	}, nil
}

// RegisterHandler binds a handler to an event-type header value.
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
	c.logger.Info("Consumer handler registered", zap.String("event_type", eventType))
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer",
		zap.String("topic", c.config.Topic),
		zap.String("consumer_group", c.config.ConsumerGroup),
	)

	go c.consumeMessages(ctx)

	return nil
}

func (c *Consumer) consumeMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Kafka consumer stopped")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Error("Failed to fetch message", zap.Error(err))
				// Back off so a persistent broker fault does not spin hot.
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.config.RetryBackoff):
				}
				continue
			}

			c.processMessage(ctx, msg)
		}
	}
}

// processMessage contains failures per message: a bad or unhandleable message
// is logged and committed so it cannot stall the partition, and a transient
// handler failure is retried in place and then parked on the error topic.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	startTime := time.Now()
	headers := extractHeaders(msg.Headers)
	eventType := headers["event-type"]

	c.logger.Info("Processing message",
		zap.String("event_type", eventType),
		zap.String("key", string(msg.Key)),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	handler, exists := c.handlers[eventType]
	if !exists {
		c.logger.Warn("No handler for event type, skipping message",
			zap.String("event_type", eventType),
			zap.Int64("offset", msg.Offset),
		)
		c.commit(ctx, msg)
		return
	}

	err := c.runHandler(ctx, handler, msg, headers)
	switch {
	case err == nil:
		c.logger.Info("Message processed",
			zap.String("event_type", eventType),
			zap.Duration("process_time", time.Since(startTime)),
		)
		c.commit(ctx, msg)

	case errors.Is(err, domain.ErrMalformedEvent):
		// Poison message: trace it and move on, never crash the subscription.
		c.logger.Error("Malformed event payload, skipping message",
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		c.commit(ctx, msg)

	default:
		c.retryThenPark(ctx, msg, handler, headers, eventType, err)
	}
}

func (c *Consumer) runHandler(ctx context.Context, handler MessageHandler, msg kafka.Message, headers map[string]string) error {
	handlerCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()
	return handler(handlerCtx, string(msg.Key), msg.Value, headers)
}

// retryThenPark retries a transiently failed message in place. Leaving the
// offset uncommitted would not force a redelivery: commits are per-partition
// positions, so the next committed message on the partition would skip past
// this one. Once retries are exhausted the message is parked on the error
// topic before committing, so the partition advances without losing it.
func (c *Consumer) retryThenPark(ctx context.Context, msg kafka.Message, handler MessageHandler, headers map[string]string, eventType string, firstErr error) {
	err := firstErr
	for attempt := 1; attempt < c.config.MaxRetry; attempt++ {
		c.logger.Warn("Retrying message",
			zap.String("event_type", eventType),
			zap.String("key", string(msg.Key)),
			zap.Int("attempt", attempt),
			zap.Int("max_retry", c.config.MaxRetry),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.RetryBackoff):
		}

		if err = c.runHandler(ctx, handler, msg, headers); err == nil {
			c.logger.Info("Message processed after retry",
				zap.String("event_type", eventType),
				zap.Int("attempt", attempt),
			)
			c.commit(ctx, msg)
			return
		}
	}

	c.park(ctx, msg, eventType, err)
}

// park moves an exhausted message to the error topic. The offset is only
// committed once the error topic has the copy; if parking itself fails the
// offset stays put and the group resumes from it after a rebalance.
func (c *Consumer) park(ctx context.Context, msg kafka.Message, eventType string, handlerErr error) {
	parked := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "origin-topic", Value: []byte(c.config.Topic)},
			kafka.Header{Key: "error", Value: []byte(handlerErr.Error())},
		),
		Time: time.Now(),
	}

	if err := c.errorWriter.WriteMessages(ctx, parked); err != nil {
		c.logger.Error("Failed to park message on error topic, leaving offset uncommitted",
			zap.String("event_type", eventType),
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}

	c.logger.Warn("Message parked on error topic",
		zap.String("event_type", eventType),
		zap.String("key", string(msg.Key)),
		zap.String("error_topic", c.config.ErrorTopic),
		zap.Error(handlerErr),
	)
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.String("key", string(msg.Key)),
			zap.Error(err),
		)
	}
}

func (c *Consumer) Close() error {
	if err := c.errorWriter.Close(); err != nil {
		c.logger.Error("Failed to close error topic writer", zap.Error(err))
	}
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
		return err
	}
	c.logger.Info("Kafka consumer closed")
	return nil
}

func extractHeaders(headers []kafka.Header) map[string]string {
	result := make(map[string]string)
	for _, h := range headers {
		result[h.Key] = string(h.Value)
	}
	return result
}
