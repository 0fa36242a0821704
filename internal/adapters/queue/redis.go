package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github-tamagotchi/internal/domain/imagejobs"
)

const (
	pendingList    = "imagejobs:pending"
	processingList = "imagejobs:processing"
)

// RedisQueue implementa imagejobs.Queue sobre dos listas Redis con el
// patrón de cola confiable: BRPOPLPUSH pending -> processing, LREM al
// confirmar, RPOPLPUSH para devolver los colgados.
type RedisQueue struct {
	rdb *redis.Client
}

func NewRedis(addr string) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("queue: redis ping: %w", err)
	}
	return &RedisQueue{rdb: rdb}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.rdb.LPush(ctx, pendingList, jobID).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

func (q *RedisQueue) Claim(ctx context.Context, timeout time.Duration) (string, error) {
	jobID, err := q.rdb.BRPopLPush(ctx, pendingList, processingList, timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", imagejobs.ErrNoPending
		}
		return "", fmt.Errorf("queue: claim: %w", err)
	}
	return jobID, nil
}

func (q *RedisQueue) Ack(ctx context.Context, jobID string) error {
	if err := q.rdb.LRem(ctx, processingList, 1, jobID).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	return nil
}

func (q *RedisQueue) RequeueStale(ctx context.Context, max int64) (int64, error) {
	var moved int64
	for moved < max {
		_, err := q.rdb.RPopLPush(ctx, processingList, pendingList).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, fmt.Errorf("queue: requeue: %w", err)
		}
		moved++
	}
	return moved, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}
