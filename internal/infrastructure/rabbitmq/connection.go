package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
)

func NewConnection(cfg *config.RabbitMQConfig, logger *zap.Logger) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go func() {
		connErr := <-conn.NotifyClose(make(chan *amqp.Error))
		if connErr != nil {
			logger.Error("RabbitMQ connection closed", zap.Error(connErr))
		}
	}()

	logger.Info("RabbitMQ connected")
	return conn, nil
}
