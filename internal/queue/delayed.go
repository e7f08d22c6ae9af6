package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// DelayedQueue holds call tasks in a Redis sorted set scored by due time,
// so a single job fires close to its scheduled moment instead of waiting
// for the next scan cycle.
type DelayedQueue struct {
	client *redis.Client
	key    string
}

// NewDelayedQueue constructs the queue on the given key.
func NewDelayedQueue(client *redis.Client, key string) *DelayedQueue {
	return &DelayedQueue{client: client, key: key}
}

// Enqueue registers a task to fire at the given time. Times already in
// the past score as due immediately. Re-enqueueing a task only moves its
// due time; the set keeps one member per task id.
func (q *DelayedQueue) Enqueue(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	member := redis.Z{
		Score:  float64(at.UTC().UnixMilli()),
		Member: taskID.String(),
	}
	if err := q.client.ZAdd(ctx, q.key, member).Err(); err != nil {
		return fmt.Errorf("delayed queue: enqueue: %w", err)
	}
	return nil
}

// popDueScript atomically removes and returns due members, so two workers
// polling the same queue never see the same job.
var popDueScript = redis.NewScript(`
local key = KEYS[1]
local now = ARGV[1]
local limit = tonumber(ARGV[2])
local due = redis.call('ZRANGEBYSCORE', key, '-inf', now, 'LIMIT', 0, limit)
if #due > 0 then
  redis.call('ZREM', key, unpack(due))
end
return due
`)

// PopDue removes and returns up to n task ids whose due time has passed.
func (q *DelayedQueue) PopDue(ctx context.Context, now time.Time, n int) ([]uuid.UUID, error) {
	if n <= 0 {
		n = 10
	}

	raw, err := popDueScript.Run(ctx, q.client, []string{q.key}, now.UTC().UnixMilli(), n).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("delayed queue: pop due: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, member := range raw {
		id, err := uuid.Parse(member)
		if err != nil {
			// Malformed member; drop it rather than wedge the queue.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Remove drops a task from the queue, used when a task is paused or
// aborted after being enqueued.
func (q *DelayedQueue) Remove(ctx context.Context, taskID uuid.UUID) error {
	if err := q.client.ZRem(ctx, q.key, taskID.String()).Err(); err != nil {
		return fmt.Errorf("delayed queue: remove: %w", err)
	}
	return nil
}
