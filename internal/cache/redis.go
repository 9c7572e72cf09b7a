// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// DefaultQueueName is the Redis list that carries attempt events to the historian.
const DefaultQueueName = "bridge_attempts"

// Connect opens a client for addr and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// AttemptQueue pushes attempt events onto a Redis list.
type AttemptQueue struct {
	Rdb   *redis.Client
	Queue string
}

func NewAttemptQueue(rdb *redis.Client, queue string) *AttemptQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &AttemptQueue{Rdb: rdb, Queue: queue}
}

// PublishAttempt serializes a to JSON and appends it to the queue.
func (q *AttemptQueue) PublishAttempt(ctx context.Context, a models.Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}
	if err := q.Rdb.RPush(ctx, q.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.Queue, err)
	}
	return nil
}

// Pop waits up to timeout for the next raw payload. It returns redis.Nil when the wait times out.
func (q *AttemptQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.Rdb.BLPop(ctx, timeout, q.Queue).Result()
	if err != nil {
		return "", err
	}
	// res[0] is the list name
	if len(res) < 2 {
		return "", redis.Nil
	}
	return res[1], nil
}

// Len reports the queue backlog.
func (q *AttemptQueue) Len(ctx context.Context) (int64, error) {
	return q.Rdb.LLen(ctx, q.Queue).Result()
}
