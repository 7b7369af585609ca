package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// SlotLocker serializes booking attempts for the same slot start.
type SlotLocker interface {
	// Acquire takes the lock for key. acquired is false when another holder
	// has it. The returned release func is never nil.
	Acquire(ctx context.Context, key string) (release func(context.Context), acquired bool, err error)
}

// NoopSlotLocker always grants the lock.
type NoopSlotLocker struct{}

// Acquire implements SlotLocker.
func (NoopSlotLocker) Acquire(context.Context, string) (func(context.Context), bool, error) {
	return func(context.Context) {}, true, nil
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSlotLocker holds short-lived slot locks in Redis.
type RedisSlotLocker struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logging.Logger
}

// NewRedisSlotLocker builds a locker. Locks expire after ttl even if never
// released.
func NewRedisSlotLocker(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisSlotLocker {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSlotLocker{redis: client, ttl: ttl, prefix: "booking:slot:", logger: logger}
}

// Acquire implements SlotLocker.
func (l *RedisSlotLocker) Acquire(ctx context.Context, key string) (func(context.Context), bool, error) {
	noop := func(context.Context) {}
	if l.redis == nil {
		return noop, false, fmt.Errorf("booking: redis client not configured")
	}
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return noop, false, fmt.Errorf("booking: acquire slot lock: %w", err)
	}
	if !ok {
		return noop, false, nil
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.redis, []string{fullKey}, token).Err(); err != nil {
			l.logger.Warn("booking: release slot lock failed", "error", err, "key", fullKey)
		}
	}
	return release, true, nil
}

// slotKey identifies a slot independent of the zone it was expressed in.
func slotKey(start time.Time) string {
	return start.UTC().Format(time.RFC3339)
}
