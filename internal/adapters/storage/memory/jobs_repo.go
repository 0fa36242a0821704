package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github-tamagotchi/internal/domain/imagejobs"
)

type jobRepo struct {
	mu   sync.RWMutex
	byID map[string]imagejobs.Job
}

func NewJobRepo() imagejobs.Repository {
	return &jobRepo{
		byID: make(map[string]imagejobs.Job),
	}
}

func (r *jobRepo) Create(ctx context.Context, j imagejobs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[j.ID]; exists {
		return errors.New("job already exists")
	}
	r.byID[j.ID] = j
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (imagejobs.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.byID[id]
	if !ok {
		return imagejobs.Job{}, imagejobs.ErrNotFound
	}
	return j, nil
}

func (r *jobRepo) ListByPet(ctx context.Context, petID string) ([]imagejobs.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]imagejobs.Job, 0)
	for _, j := range r.byID {
		if j.PetID == petID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// NextPending respeta el mismo orden FIFO que la consulta de postgres.
func (r *jobRepo) NextPending(ctx context.Context) (imagejobs.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []imagejobs.Job
	for _, j := range r.byID {
		if j.Status == imagejobs.StatusPending && j.Attempts < imagejobs.MaxAttempts {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return imagejobs.Job{}, imagejobs.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates[0], nil
}

func (r *jobRepo) MarkProcessing(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.byID[id]
	if !ok {
		return imagejobs.ErrNotFound
	}
	now := time.Now().UTC()
	j.Status = imagejobs.StatusProcessing
	j.StartedAt = &now
	j.Attempts++
	r.byID[id] = j
	return nil
}

func (r *jobRepo) MarkCompleted(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.byID[id]
	if !ok {
		return imagejobs.ErrNotFound
	}
	now := time.Now().UTC()
	j.Status = imagejobs.StatusCompleted
	j.CompletedAt = &now
	j.Error = ""
	r.byID[id] = j
	return nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, id string, status imagejobs.Status, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.byID[id]
	if !ok {
		return imagejobs.ErrNotFound
	}
	j.Status = status
	j.Error = errText
	r.byID[id] = j
	return nil
}

func (r *jobRepo) CountByStatus(ctx context.Context) (map[imagejobs.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[imagejobs.Status]int)
	for _, j := range r.byID {
		out[j.Status]++
	}
	return out, nil
}
