package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

// testQueue needs a local redis; the test is skipped when none answers.
func testQueue(t *testing.T) *AttemptQueue {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := Connect(context.Background(), addr, 0)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	q := NewAttemptQueue(rdb, "test_attempts_"+uuid.NewString())
	t.Cleanup(func() { rdb.Del(context.Background(), q.Queue) })
	return q
}

func TestNewAttemptQueueDefaultName(t *testing.T) {
	q := NewAttemptQueue(nil, "")
	assert.Equal(t, DefaultQueueName, q.Queue)
}

func TestPublishAndPop(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	a := models.Attempt{
		ID: uuid.New(), UserID: uuid.New(), DealID: uuid.New(),
		Answer: "H", Correct: true,
		UserRating: models.RatingChange{Before: 1200, After: 1215},
		DealRating: models.RatingChange{Before: 1200, After: 1185},
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, q.PublishAttempt(ctx, a))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	payload, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	var got models.Attempt
	require.NoError(t, json.Unmarshal([]byte(payload), &got))
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.UserRating, got.UserRating)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	_, err = q.Pop(ctx, 100*time.Millisecond)
	assert.True(t, errors.Is(err, redis.Nil))
}
