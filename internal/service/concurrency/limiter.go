package concurrency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Limiter caps in-flight gateway calls per user account using Redis
// counters, so one account's backlog cannot burn through its third-party
// rate limits. Slots expire with a TTL in case a releasing process dies.
type Limiter struct {
	client       *redis.Client
	defaultLimit int
	ttl          time.Duration
}

// NewLimiter constructs an account-level limiter.
func NewLimiter(client *redis.Client, defaultLimit int, ttl time.Duration) *Limiter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Limiter{client: client, defaultLimit: defaultLimit, ttl: ttl}
}

var acquireScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
local current = tonumber(redis.call('GET', key) or '0')
if current < limit then
  current = redis.call('INCR', key)
  if ttl > 0 then
    redis.call('PEXPIRE', key, ttl)
  end
  return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
local key = KEYS[1]
local current = tonumber(redis.call('GET', key) or '0')
if current <= 0 then
  redis.call('DEL', key)
  return 0
end
return redis.call('DECR', key)
`)

// Acquire attempts to reserve a slot for the account.
func (l *Limiter) Acquire(ctx context.Context, userID uuid.UUID) (bool, error) {
	if l.defaultLimit <= 0 {
		return true, nil
	}

	res, err := acquireScript.Run(ctx, l.client, []string{l.key(userID)}, l.defaultLimit, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("concurrency acquire: %w", err)
	}
	return res == 1, nil
}

// Release frees a previously acquired slot.
func (l *Limiter) Release(ctx context.Context, userID uuid.UUID) error {
	if l.defaultLimit <= 0 {
		return nil
	}
	if _, err := releaseScript.Run(ctx, l.client, []string{l.key(userID)}).Int(); err != nil {
		return fmt.Errorf("concurrency release: %w", err)
	}
	return nil
}

func (l *Limiter) key(userID uuid.UUID) string {
	return fmt.Sprintf("dispatch:account:%s:active", userID.String())
}
