package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
)

// eventDeduplicator keeps a TTL-bounded marker per handled event. Markers
// expire, so very late redeliveries can still re-trigger a notification; the
// consumer contract only promises at-least-once.
type eventDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewEventDeduplicator(client *redis.Client, cfg *config.RedisConfig, logger *zap.Logger) ports.EventDeduplicator {
	return &eventDeduplicator{
		client: client,
		ttl:    cfg.DedupTTL,
		logger: logger,
	}
}

// Claim sets the marker only if absent, so concurrent deliveries of the same
// event race on a single atomic write and exactly one of them wins.
func (d *eventDeduplicator) Claim(ctx context.Context, key string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Error("Failed to claim dedup marker", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return claimed, nil
}

func (d *eventDeduplicator) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		d.logger.Error("Failed to release dedup marker", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
