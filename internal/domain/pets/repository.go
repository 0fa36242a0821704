package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByRepo(ctx context.Context, owner, repo string) (Pet, error)
	GetByID(ctx context.Context, id string) (Pet, error)
	// List retorna una página (más nuevas primero) y el total.
	List(ctx context.Context, offset, limit int) ([]Pet, int, error)
	ListAll(ctx context.Context) ([]Pet, error)
	Delete(ctx context.Context, owner, repo string) error
}
