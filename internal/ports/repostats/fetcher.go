package repostats

import "context"

// HealthFetcher abstrae la fuente de métricas (GitHub REST en prod,
// fakes en tests).
type HealthFetcher interface {
	GetRepoHealth(ctx context.Context, owner, repo string) (RepoHealth, error)
}
