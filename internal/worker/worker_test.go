package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github-tamagotchi/internal/adapters/comfyui"
	"github-tamagotchi/internal/adapters/objectstore"
	"github-tamagotchi/internal/adapters/queue"
	mem "github-tamagotchi/internal/adapters/storage/memory"
	"github-tamagotchi/internal/artwork"
	"github-tamagotchi/internal/domain/imagejobs"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
)

// brokenBackend se hace pasar por un ComfyUI configurado que siempre falla.
type brokenBackend struct{}

func (brokenBackend) IsConfigured() bool { return true }

func (brokenBackend) QueuePrompt(ctx context.Context, workflow map[string]any, clientID string) (string, error) {
	return "", errors.New("sampler exploded")
}

func (brokenBackend) WaitForCompletion(ctx context.Context, promptID string) (comfyui.ImageRef, error) {
	return comfyui.ImageRef{}, errors.New("unreachable")
}

func (brokenBackend) DownloadImage(ctx context.Context, ref comfyui.ImageRef) ([]byte, error) {
	return nil, errors.New("unreachable")
}

type busRecorder struct {
	published []events.Event
}

func (b *busRecorder) Publish(ctx context.Context, ev events.Event) error {
	b.published = append(b.published, ev)
	return nil
}

func (b *busRecorder) Close() error { return nil }

type testEnv struct {
	worker  *Worker
	petSvc  *pets.Service
	jobSvc  *imagejobs.Service
	jobRepo imagejobs.Repository
	queue   imagejobs.Queue
	store   *objectstore.MemoryStore
	bus     *busRecorder
	pet     pets.Pet
}

func newTestEnv(t *testing.T, backend artwork.Backend) *testEnv {
	t.Helper()

	log := logger.New(logger.Options{Level: logger.Error})

	petSvc := pets.NewService(mem.NewPetRepo())
	jobRepo := mem.NewJobRepo()
	q := queue.NewMemory()
	jobSvc := imagejobs.NewService(jobRepo, q)

	store := objectstore.NewMemory()
	gen := artwork.NewGenerator(backend, store, log)
	bus := &busRecorder{}

	w := New(jobSvc, jobRepo, q, petSvc, gen, bus, log, 20*time.Millisecond)

	pet, err := petSvc.Register(context.Background(), pets.RegisterInput{
		RepoOwner: "octocat", RepoName: "hello-world", Name: "Mochi",
	})
	if err != nil {
		t.Fatalf("seed pet error: %v", err)
	}

	return &testEnv{
		worker:  w,
		petSvc:  petSvc,
		jobSvc:  jobSvc,
		jobRepo: jobRepo,
		queue:   q,
		store:   store,
		bus:     bus,
		pet:     pet,
	}
}

func TestWorker_ProcessesSingleStageJob(t *testing.T) {
	env := newTestEnv(t, nil) // sin backend => placeholders
	ctx := context.Background()

	j, err := env.jobSvc.Enqueue(ctx, env.pet.ID, "egg")
	if err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	claimed, ok := env.worker.claim(ctx)
	if !ok {
		t.Fatalf("expected claim to succeed")
	}
	if claimed.ID != j.ID || claimed.Status != imagejobs.StatusProcessing || claimed.Attempts != 1 {
		t.Fatalf("unexpected claimed job: %#v", claimed)
	}

	env.worker.process(ctx, claimed)

	stored, err := env.jobRepo.GetByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("get job error: %v", err)
	}
	if stored.Status != imagejobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (error=%q)", stored.Status, stored.Error)
	}
	if stored.CompletedAt == nil {
		t.Fatalf("expected CompletedAt stamped")
	}

	// la imagen quedó en el store
	if _, err := env.store.Get(ctx, "octocat", "hello-world", "egg"); err != nil {
		t.Fatalf("expected stored sprite: %v", err)
	}

	// la mascota quedó marcada
	p, _ := env.petSvc.GetByRepo(ctx, "octocat", "hello-world")
	if p.ImagesGeneratedAt == nil {
		t.Fatalf("expected ImagesGeneratedAt stamped")
	}

	if len(env.bus.published) != 1 || env.bus.published[0].Type != events.TypeImageJobCompleted {
		t.Fatalf("expected image_job_completed event, got %#v", env.bus.published)
	}
}

func TestWorker_AllStagesJob(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.jobSvc.Enqueue(ctx, env.pet.ID, ""); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	claimed, ok := env.worker.claim(ctx)
	if !ok {
		t.Fatalf("expected claim to succeed")
	}
	env.worker.process(ctx, claimed)

	stages, err := env.store.ListStages(ctx, "octocat", "hello-world")
	if err != nil {
		t.Fatalf("ListStages error: %v", err)
	}
	if len(stages) != len(pets.Stages) {
		t.Fatalf("expected all %d stages generated, got %v", len(pets.Stages), stages)
	}
}

func TestWorker_RetryThenTerminalFailure(t *testing.T) {
	env := newTestEnv(t, brokenBackend{})
	ctx := context.Background()

	j, err := env.jobSvc.Enqueue(ctx, env.pet.ID, "egg")
	if err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	// tres intentos: los dos primeros reencolan, el tercero es terminal
	for attempt := 1; attempt <= imagejobs.MaxAttempts; attempt++ {
		claimed, ok := env.worker.claim(ctx)
		if !ok {
			t.Fatalf("attempt %d: expected claim to succeed", attempt)
		}
		if claimed.Attempts != attempt {
			t.Fatalf("attempt %d: expected attempts=%d, got %d", attempt, attempt, claimed.Attempts)
		}
		env.worker.process(ctx, claimed)

		stored, _ := env.jobRepo.GetByID(ctx, j.ID)
		if attempt < imagejobs.MaxAttempts {
			if stored.Status != imagejobs.StatusPending {
				t.Fatalf("attempt %d: expected pending for retry, got %s", attempt, stored.Status)
			}
		} else {
			if stored.Status != imagejobs.StatusFailed {
				t.Fatalf("expected terminal failure, got %s", stored.Status)
			}
			if stored.Error == "" {
				t.Fatalf("expected error text recorded")
			}
		}
	}

	// no hay evento de completado
	if len(env.bus.published) != 0 {
		t.Fatalf("expected no events for failed job, got %#v", env.bus.published)
	}
}

func TestWorker_ClaimFallsBackToDB(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// fila pending sin push a la cola (simula un Enqueue con Redis caído)
	j := imagejobs.Job{
		ID:        "job-1",
		PetID:     env.pet.ID,
		Status:    imagejobs.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := env.jobRepo.Create(ctx, j); err != nil {
		t.Fatalf("seed job error: %v", err)
	}

	claimed, ok := env.worker.claim(ctx)
	if !ok {
		t.Fatalf("expected DB fallback to claim the job")
	}
	if claimed.ID != "job-1" {
		t.Fatalf("expected job-1, got %s", claimed.ID)
	}
	if claimed.Status != imagejobs.StatusProcessing {
		t.Fatalf("expected processing after claim, got %s", claimed.Status)
	}
}

func TestWorker_ClaimNothingPending(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, ok := env.worker.claim(context.Background()); ok {
		t.Fatalf("expected no claim on empty queue and table")
	}
}
