package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github-tamagotchi/internal/domain/pets"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	for _, existing := range r.byID {
		if existing.RepoOwner == p.RepoOwner && existing.RepoName == p.RepoName {
			return pets.ErrDuplicate
		}
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return pets.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) GetByRepo(ctx context.Context, owner, repo string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byID {
		if p.RepoOwner == owner && p.RepoName == repo {
			return p, nil
		}
	}
	return pets.Pet{}, pets.ErrNotFound
}

func (r *petRepo) List(ctx context.Context, offset, limit int) ([]pets.Pet, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedDesc()
	total := len(all)

	if offset >= total {
		return []pets.Pet{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *petRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.sortedDesc()
	// orden ascendente para el poller (mismo orden que postgres)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *petRepo) Delete(ctx context.Context, owner, repo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.byID {
		if p.RepoOwner == owner && p.RepoName == repo {
			delete(r.byID, id)
			return nil
		}
	}
	return pets.ErrNotFound
}

// sortedDesc: más nuevas primero (orden estable para paginación en dev).
func (r *petRepo) sortedDesc() []pets.Pet {
	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
