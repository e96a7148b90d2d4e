package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
)

// Connection is a factory for topic-bound writers and group-bound readers
// sharing one broker configuration.
type Connection struct {
	Config *config.KafkaConfig
	Logger *zap.Logger
}

func NewConnection(cfg *config.KafkaConfig, logger *zap.Logger) *Connection {
	return &Connection{
		Config: cfg,
		Logger: logger,
	}
}

func (k *Connection) CreateWriter(topic string) *kafka.Writer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(k.Config.Brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},

		AllowAutoTopicCreation: true,
		Async:                  false,
		RequiredAcks:           kafka.RequireAll,

		BatchTimeout: 10 * time.Millisecond,

		MaxAttempts:  3,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,

		Logger:      kafka.LoggerFunc(k.debugLogger),
		ErrorLogger: kafka.LoggerFunc(k.errorLogger),
	}

	k.Logger.Info("Kafka writer created",
		zap.String("topic", topic),
		zap.Strings("brokers", k.Config.Brokers),
	)

	return writer
}

func (k *Connection) CreateReader(topic string, groupID string) *kafka.Reader {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           k.Config.Brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		SessionTimeout:    k.Config.SessionTimeout,
		HeartbeatInterval: k.Config.HeartbeatInterval,
		CommitInterval:    0,
		StartOffset:       kafka.FirstOffset,
		ReadBackoffMin:    100 * time.Millisecond,
		ReadBackoffMax:    1 * time.Second,
		Logger:            kafka.LoggerFunc(k.debugLogger),
		ErrorLogger:       kafka.LoggerFunc(k.errorLogger),
	})

	k.Logger.Info("Kafka reader created",
		zap.String("topic", topic),
		zap.String("group_id", groupID),
		zap.Strings("brokers", k.Config.Brokers),
	)

	return reader
}

// EnsureTopics pre-creates the given topics so the first publish does not race
// topic auto-creation.
func (k *Connection) EnsureTopics(ctx context.Context, topics []string) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.Config.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(
		ctx,
		"tcp",
		fmt.Sprintf("%s:%d", controller.Host, controller.Port),
	)
	if err != nil {
		return fmt.Errorf("failed to dial controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		topicConfigs = append(topicConfigs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		})
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		k.Logger.Warn("Some topics may already exist", zap.Error(err))
	} else {
		k.Logger.Info("Topics created", zap.Strings("topics", topics))
	}

	return nil
}

func (k *Connection) CheckConnection(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.Config.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Brokers(); err != nil {
		return fmt.Errorf("failed to get brokers: %w", err)
	}

	return nil
}

func (k *Connection) debugLogger(msg string, args ...interface{}) {
	k.Logger.Debug(fmt.Sprintf(msg, args...))
}

func (k *Connection) errorLogger(msg string, args ...interface{}) {
	k.Logger.Error(fmt.Sprintf(msg, args...))
}
