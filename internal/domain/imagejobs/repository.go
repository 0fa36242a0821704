package imagejobs

import "context"

type Repository interface {
	Create(ctx context.Context, j Job) error
	GetByID(ctx context.Context, id string) (Job, error)
	ListByPet(ctx context.Context, petID string) ([]Job, error)

	// NextPending: FIFO por created_at, solo pending con attempts < MaxAttempts.
	NextPending(ctx context.Context) (Job, error)

	// MarkProcessing incrementa attempts y marca StartedAt.
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	// MarkFailed deja el status dado (pending para retry, failed si se agotó)
	// y guarda el texto de error.
	MarkFailed(ctx context.Context, id string, status Status, errText string) error

	CountByStatus(ctx context.Context) (map[Status]int, error)
}
