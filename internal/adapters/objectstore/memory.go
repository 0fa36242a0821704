package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github-tamagotchi/internal/ports/imagestore"
)

// MemoryStore guarda los PNGs en un map. Para dev y tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(ctx context.Context, owner, repo, stage string, data []byte) (string, error) {
	path, err := objectPath(owner, repo, stage)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[path] = cp
	return path, nil
}

func (s *MemoryStore) Get(ctx context.Context, owner, repo, stage string) ([]byte, error) {
	path, err := objectPath(owner, repo, stage)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[path]
	if !ok {
		return nil, imagestore.ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemoryStore) Exists(ctx context.Context, owner, repo, stage string) (bool, error) {
	path, err := objectPath(owner, repo, stage)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[path]
	return ok, nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context, owner, repo string) error {
	prefix, err := repoPrefix(owner, repo)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *MemoryStore) ListStages(ctx context.Context, owner, repo string) ([]string, error) {
	prefix, err := repoPrefix(owner, repo)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stages := make([]string, 0)
	for key := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if !strings.HasSuffix(name, ".png") || strings.HasSuffix(name, "_thumb.png") {
			continue
		}
		stages = append(stages, strings.TrimSuffix(name, ".png"))
	}
	sort.Strings(stages)
	return stages, nil
}

func (s *MemoryStore) PublicURL(owner, repo, stage string) string {
	return fmt.Sprintf("memory://pets/%s/%s/%s.png", owner, repo, stage)
}
