package fx

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	kafkaconsumer "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/consumer/kafka"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
	kafkaconn "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/kafka"
)

// NotifierLifecycleParams contains the notification consumer's dependencies.
type NotifierLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger

	KafkaConn    *kafkaconn.Connection
	RedisClient  *redis.Client
	RabbitMQConn *amqp.Connection

	Consumer *kafkaconsumer.Consumer
	Handlers *kafkaconsumer.LoanEventHandlers
}

// RegisterNotifierLifecycle starts the consumer loop on its own context; the
// fx OnStart context only covers startup, not the life of the subscription.
func RegisterNotifierLifecycle(params NotifierLifecycleParams) {
	runCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("Starting notification consumer",
				zap.String("topic", params.Config.Kafka.Topic),
				zap.String("consumer_group", params.Config.Kafka.ConsumerGroup),
			)

			if err := params.KafkaConn.CheckConnection(ctx); err != nil {
				params.Logger.Warn("Kafka broker not reachable at startup", zap.Error(err))
			}

			topics := []string{params.Config.Kafka.Topic, params.Config.Kafka.ErrorTopic}
			if err := params.KafkaConn.EnsureTopics(ctx, topics); err != nil {
				params.Logger.Warn("Failed to ensure Kafka topics", zap.Error(err))
			}

			params.Handlers.RegisterHandlers(params.Consumer)

			if err := params.Consumer.Start(runCtx); err != nil {
				return err
			}

			params.Logger.Info("Notification consumer started")
			return nil
		},

		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Stopping notification consumer")
			cancel()

			if err := params.Consumer.Close(); err != nil {
				params.Logger.Error("Failed to close consumer", zap.Error(err))
			}

			if err := params.RabbitMQConn.Close(); err != nil {
				params.Logger.Error("Failed to close RabbitMQ connection", zap.Error(err))
			}

			if err := params.RedisClient.Close(); err != nil {
				params.Logger.Error("Failed to close Redis client", zap.Error(err))
			}

			params.Logger.Info("Notification consumer stopped")
			return nil
		},
	})
}
