package imagejobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrInvalidStage = errors.New("invalid stage")
	ErrNoPending    = errors.New("no pending jobs")
)

// Queue es el canal de wake-up del worker. La fila real vive en la tabla
// (status + created_at); la cola solo evita el polling puro.
type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
	// Claim bloquea hasta timeout. Sin elementos => ErrNoPending.
	Claim(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, jobID string) error
	// RequeueStale devuelve ids colgados en processing a la cola.
	RequeueStale(ctx context.Context, max int64) (int64, error)
}

type Service struct {
	repo  Repository
	queue Queue
	now   func() time.Time
}

func NewService(repo Repository, queue Queue) *Service {
	return &Service{
		repo:  repo,
		queue: queue,
		now:   time.Now,
	}
}

// Enqueue crea el job en pending y lo empuja a la cola.
// stage vacío = todos los stages.
func (s *Service) Enqueue(ctx context.Context, petID, stage string) (Job, error) {
	j := Job{
		ID:        uuid.NewString(),
		PetID:     petID,
		Status:    StatusPending,
		Stage:     stage,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, j); err != nil {
		return Job{}, err
	}

	if err := s.queue.Enqueue(ctx, j.ID); err != nil {
		// la fila ya está en pending; el fallback por DB la va a levantar
		return j, nil
	}
	return j, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Job, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Job, error) {
	return s.repo.ListByPet(ctx, petID)
}

// Stats: conteo por status para el endpoint de admin.
func (s *Service) Stats(ctx context.Context) (map[Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	// siempre reportar los cuatro estados, aunque estén en cero
	out := make(map[Status]int, len(AllStatuses))
	for _, st := range AllStatuses {
		out[st] = counts[st]
	}
	return out, nil
}

// Fail decide retry vs. failed definitivo según attempts.
func (s *Service) Fail(ctx context.Context, j Job, errText string) error {
	if j.Attempts < MaxAttempts {
		if err := s.repo.MarkFailed(ctx, j.ID, StatusPending, errText); err != nil {
			return err
		}
		// re-encolar para que el retry no espere al fallback
		_ = s.queue.Enqueue(ctx, j.ID)
		return nil
	}
	return s.repo.MarkFailed(ctx, j.ID, StatusFailed, errText)
}
