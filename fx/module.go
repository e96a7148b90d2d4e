package fx

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	kafkaconsumer "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/consumer/kafka"
	dedupredis "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/dedup/redis"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/http/handlers"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/http/middleware"
	amqpnotifier "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/notifier/amqp"
	kafkapub "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/publisher/kafka"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/registry"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/storage/postgres"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/services"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/database"
	kafkaconn "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/kafka"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/rabbitmq"
	redisconn "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/redis"
)

// common carries what both binaries need: config, logging, kafka.
var common = fx.Options(
	fx.Provide(config.LoadConfig),
	fx.Provide(NewLogger),
	fx.Provide(
		func(cfg *config.Config) *config.AppConfig { return &cfg.App },
		func(cfg *config.Config) *config.DatabaseConfig { return &cfg.Database },
		func(cfg *config.Config) *config.RegistryConfig { return &cfg.Registry },
		func(cfg *config.Config) *config.KafkaConfig { return &cfg.Kafka },
		func(cfg *config.Config) *config.RabbitMQConfig { return &cfg.RabbitMQ },
		func(cfg *config.Config) *config.RedisConfig { return &cfg.Redis },
	),
	fx.Provide(kafkaconn.NewConnection),
)

// APIModule wires the loan service binary: HTTP API, record store, registry
// clients and the event publisher.
var APIModule = fx.Options(
	common,

	fx.Provide(database.NewPostgresDB),
	fx.Provide(database.NewGormDB),
	fx.Provide(postgres.NewLoanRepository),

	fx.Provide(registry.NewUserDirectory),
	fx.Provide(registry.NewBookCatalog),

	fx.Provide(kafkapub.NewEventPublisher),

	fx.Provide(services.NewLoanService),

	fx.Provide(NewGinEngine),
	fx.Provide(handlers.NewLoanHandler),
	fx.Provide(NewRateLimiter),

	fx.Invoke(RegisterAPILifecycle),
)

// NotifierModule wires the notification consumer binary: the Kafka consumer
// group, the redis dedup store and the AMQP notification hand-off.
var NotifierModule = fx.Options(
	common,

	fx.Provide(redisconn.NewClient),
	fx.Provide(dedupredis.NewEventDeduplicator),

	fx.Provide(rabbitmq.NewConnection),
	fx.Provide(amqpnotifier.NewNotifier),

	fx.Provide(kafkaconsumer.NewConsumer),
	fx.Provide(kafkaconsumer.NewLoanEventHandlers),

	fx.Invoke(RegisterNotifierLifecycle),
)

// NewLogger creates the zap logger, JSON in production and console otherwise.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.App.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Logger initialized",
		zap.String("environment", cfg.App.Env),
		zap.String("app_name", cfg.App.Name),
	)

	return logger, nil
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.App.Env != "production" {
		engine.Use(gin.Logger())
	}

	return engine
}

func NewRateLimiter(cfg *config.Config, logger *zap.Logger) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.App.RateLimitRPS, cfg.App.RateLimitBurst, logger)
}
