package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrDuplicate    = errors.New("pet already exists for this repository")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	FeedHealthBonus = 10
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	RepoOwner string
	RepoName  string
	Name      string
}

// Register crea la mascota en estado inicial: egg, content, health 100.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Pet, error) {
	owner := strings.TrimSpace(in.RepoOwner)
	repo := strings.TrimSpace(in.RepoName)
	name := strings.TrimSpace(in.Name)

	if owner == "" || repo == "" || name == "" {
		return Pet{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByRepo(ctx, owner, repo); err == nil {
		return Pet{}, ErrDuplicate
	}

	now := s.now()
	p := Pet{
		ID:         uuid.NewString(),
		RepoOwner:  owner,
		RepoName:   repo,
		Name:       name,
		Stage:      StageEgg,
		Mood:       MoodContent,
		Health:     100,
		Experience: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		// el unique index puede ganarnos la carrera
		if errors.Is(err, ErrDuplicate) {
			return Pet{}, ErrDuplicate
		}
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByRepo(ctx context.Context, owner, repo string) (Pet, error) {
	return s.repo.GetByRepo(ctx, owner, repo)
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPage pagina con page >= 1 y pageSize en [1,MaxPageSize].
func (s *Service) ListPage(ctx context.Context, page, pageSize int) ([]Pet, int, error) {
	if page < 1 {
		return nil, 0, ErrInvalidInput
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, 0, ErrInvalidInput
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, offset, pageSize)
}

// ListAll retorna todas las mascotas (lo usa el poller).
func (s *Service) ListAll(ctx context.Context) ([]Pet, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Delete(ctx context.Context, owner, repo string) error {
	return s.repo.Delete(ctx, owner, repo)
}

// Feed: +10 health (tope 100), marca LastFedAt y ajusta humor
// según el health resultante.
func (s *Service) Feed(ctx context.Context, owner, repo string) (Pet, error) {
	p, err := s.repo.GetByRepo(ctx, owner, repo)
	if err != nil {
		return Pet{}, err
	}

	now := s.now()
	p.Health = ClampHealth(p.Health + FeedHealthBonus)
	p.LastFedAt = &now

	if p.Health >= 80 {
		p.Mood = MoodHappy
	} else if p.Health >= 50 {
		p.Mood = MoodContent
	}

	p.UpdatedAt = now
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// SavePet persiste un pet ya mutado (poller/webhooks) actualizando UpdatedAt.
func (s *Service) SavePet(ctx context.Context, p Pet) error {
	p.UpdatedAt = s.now()
	return s.repo.Update(ctx, p)
}

// Now expone el clock inyectado (lo usan poller y webhooks para
// mantener un solo reloj testeable).
func (s *Service) Now() time.Time {
	return s.now()
}

// WithClock reemplaza el clock (solo tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
