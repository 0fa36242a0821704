package queue

import (
	"context"
	"sync"
	"time"

	"github-tamagotchi/internal/domain/imagejobs"
)

// MemoryQueue implementa imagejobs.Queue con un channel buffereado.
// Para dev sin Redis y para tests.
type MemoryQueue struct {
	mu         sync.Mutex
	ch         chan string
	processing map[string]struct{}
}

func NewMemory() *MemoryQueue {
	return &MemoryQueue{
		ch:         make(chan string, 1024),
		processing: make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, jobID string) error {
	select {
	case q.ch <- jobID:
		return nil
	default:
		// canal lleno: el fallback por DB lo va a levantar igual
		return nil
	}
}

func (q *MemoryQueue) Claim(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case jobID := <-q.ch:
		q.mu.Lock()
		q.processing[jobID] = struct{}{}
		q.mu.Unlock()
		return jobID, nil
	case <-timer.C:
		return "", imagejobs.ErrNoPending
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *MemoryQueue) Ack(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, jobID)
	return nil
}

func (q *MemoryQueue) RequeueStale(ctx context.Context, max int64) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var moved int64
	for jobID := range q.processing {
		if moved >= max {
			break
		}
		select {
		case q.ch <- jobID:
			delete(q.processing, jobID)
			moved++
		default:
			return moved, nil
		}
	}
	return moved, nil
}
