package ports

import "context"

// EventDeduplicator remembers which events a consumer group already handled,
// so redelivered messages do not trigger the notification twice. Claim
// atomically takes ownership of an event in one round trip; Release undoes a
// claim whose side effect failed, so a redelivery can retry it. It is best
// effort: callers treat a deduplicator failure as an unclaimed event.
type EventDeduplicator interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
