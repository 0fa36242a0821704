package imagestore

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("image not found")
	ErrNotConfigured = errors.New("image store not configured")
)

// Store guarda los sprites generados por stage.
// Implementaciones: MinIO (prod) y memoria (dev/tests).
type Store interface {
	// Put guarda el PNG de un stage y retorna el object path.
	Put(ctx context.Context, owner, repo, stage string, data []byte) (string, error)

	// Get retorna los bytes del PNG, o ErrNotFound.
	Get(ctx context.Context, owner, repo, stage string) ([]byte, error)

	Exists(ctx context.Context, owner, repo, stage string) (bool, error)

	// DeleteAll borra todas las imágenes de un repo (todos los stages).
	DeleteAll(ctx context.Context, owner, repo string) error

	// ListStages retorna los stages que tienen imagen guardada.
	ListStages(ctx context.Context, owner, repo string) ([]string, error)

	// PublicURL arma la URL pública de un stage (asume bucket público).
	PublicURL(owner, repo, stage string) string
}
