package worker

import (
	"context"
	"errors"
	"time"

	"github-tamagotchi/internal/artwork"
	"github-tamagotchi/internal/domain/imagejobs"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
)

const reapEvery = 10 // ciclos de claim entre barridos de processing

// Worker consume jobs de generación de imágenes: reclama, genera con el
// Generator, marca el resultado y confirma en la cola.
type Worker struct {
	jobs         *imagejobs.Service
	jobRepo      imagejobs.Repository
	queue        imagejobs.Queue
	petSvc       *pets.Service
	gen          *artwork.Generator
	bus          events.Publisher
	log          logger.Logger
	pollInterval time.Duration
}

func New(
	jobSvc *imagejobs.Service,
	jobRepo imagejobs.Repository,
	queue imagejobs.Queue,
	petSvc *pets.Service,
	gen *artwork.Generator,
	bus events.Publisher,
	log logger.Logger,
	pollInterval time.Duration,
) *Worker {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if bus == nil {
		bus = events.Noop{}
	}
	return &Worker{
		jobs:         jobSvc,
		jobRepo:      jobRepo,
		queue:        queue,
		petSvc:       petSvc,
		gen:          gen,
		bus:          bus,
		log:          log.With(map[string]any{"component": "worker"}),
		pollInterval: pollInterval,
	}
}

// Run corre el loop de consumo hasta que el contexto muera.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started", map[string]any{"poll_interval": w.pollInterval.String()})

	cycles := 0
	for {
		if ctx.Err() != nil {
			w.log.Info("worker stopped", nil)
			return
		}

		cycles++
		if cycles%reapEvery == 0 {
			if moved, err := w.queue.RequeueStale(ctx, 100); err != nil {
				w.log.Warn("requeue stale failed", logger.Err(err))
			} else if moved > 0 {
				w.log.Info("stale jobs requeued", map[string]any{"count": moved})
			}
		}

		job, ok := w.claim(ctx)
		if !ok {
			continue
		}

		w.process(ctx, job)
	}
}

// claim intenta primero la cola (bloqueante con timeout) y si no hay
// nada cae a la tabla. El job reclamado queda en processing.
func (w *Worker) claim(ctx context.Context) (imagejobs.Job, bool) {
	jobID, err := w.queue.Claim(ctx, w.pollInterval)
	switch {
	case err == nil:
		job, err := w.jobRepo.GetByID(ctx, jobID)
		if err != nil {
			// id huérfano en la cola (job borrado); descartar
			_ = w.queue.Ack(ctx, jobID)
			w.log.Warn("claimed unknown job", map[string]any{"job_id": jobID})
			return imagejobs.Job{}, false
		}
		if job.Status != imagejobs.StatusPending {
			// ya lo agarró otro camino (fallback por DB o requeue doble)
			_ = w.queue.Ack(ctx, jobID)
			return imagejobs.Job{}, false
		}
		if err := w.jobRepo.MarkProcessing(ctx, job.ID); err != nil {
			_ = w.queue.Ack(ctx, jobID)
			w.log.Error("mark processing failed", logger.Err(err))
			return imagejobs.Job{}, false
		}
		job.Status = imagejobs.StatusProcessing
		job.Attempts++
		return job, true

	case errors.Is(err, imagejobs.ErrNoPending):
		// cola vacía: mirar la tabla por si un Enqueue no llegó a Redis
		job, err := w.jobRepo.NextPending(ctx)
		if err != nil {
			if !errors.Is(err, imagejobs.ErrNotFound) {
				w.log.Error("db fallback failed", logger.Err(err))
			}
			return imagejobs.Job{}, false
		}
		if err := w.jobRepo.MarkProcessing(ctx, job.ID); err != nil {
			w.log.Error("mark processing failed", logger.Err(err))
			return imagejobs.Job{}, false
		}
		job.Status = imagejobs.StatusProcessing
		job.Attempts++
		return job, true

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return imagejobs.Job{}, false

	default:
		w.log.Error("queue claim failed", logger.Err(err))
		// evitar un busy loop si Redis está caído
		select {
		case <-ctx.Done():
		case <-time.After(w.pollInterval):
		}
		return imagejobs.Job{}, false
	}
}

func (w *Worker) process(ctx context.Context, job imagejobs.Job) {
	defer func() {
		_ = w.queue.Ack(ctx, job.ID)
	}()

	pet, err := w.petSvc.GetByID(ctx, job.PetID)
	if err != nil {
		w.failJob(ctx, job, "pet not found: "+err.Error())
		return
	}

	w.log.Info("job started", map[string]any{
		"job_id":  job.ID,
		"repo":    pet.RepoOwner + "/" + pet.RepoName,
		"stage":   job.Stage,
		"attempt": job.Attempts,
	})

	if job.Stage != "" {
		_, err = w.gen.GenerateStage(ctx, pet.RepoOwner, pet.RepoName, pets.Stage(job.Stage))
	} else {
		_, err = w.gen.GenerateAllStages(ctx, pet.RepoOwner, pet.RepoName)
	}
	if err != nil {
		w.failJob(ctx, job, err.Error())
		return
	}

	if err := w.jobRepo.MarkCompleted(ctx, job.ID); err != nil {
		w.log.Error("mark completed failed", logger.Err(err))
		return
	}

	now := w.petSvc.Now()
	pet.ImagesGeneratedAt = &now
	if err := w.petSvc.SavePet(ctx, pet); err != nil {
		w.log.Warn("stamp images_generated_at failed", logger.Err(err))
	}

	w.log.Info("job completed", map[string]any{
		"job_id": job.ID,
		"repo":   pet.RepoOwner + "/" + pet.RepoName,
	})

	ev := events.Event{
		Type:       events.TypeImageJobCompleted,
		RepoOwner:  pet.RepoOwner,
		RepoName:   pet.RepoName,
		PetID:      pet.ID,
		OccurredAt: now,
		Data: map[string]any{
			"job_id": job.ID,
			"stage":  job.Stage,
		},
	}
	if err := w.bus.Publish(ctx, ev); err != nil {
		w.log.Warn("event publish failed", logger.Err(err))
	}
}

func (w *Worker) failJob(ctx context.Context, job imagejobs.Job, errText string) {
	w.log.Error("job failed", map[string]any{
		"job_id":  job.ID,
		"attempt": job.Attempts,
		"error":   errText,
	})
	if err := w.jobs.Fail(ctx, job, errText); err != nil {
		w.log.Error("record failure failed", logger.Err(err))
	}
}
