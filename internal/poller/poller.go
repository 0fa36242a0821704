package poller

import (
	"context"
	"errors"
	"time"

	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
	"github-tamagotchi/internal/ports/repostats"
)

// Poller recorre las mascotas cada intervalo y les aplica las métricas
// frescas de su repo.
type Poller struct {
	pets     *pets.Service
	fetcher  repostats.HealthFetcher
	bus      events.Publisher
	log      logger.Logger
	interval time.Duration
}

func New(
	petSvc *pets.Service,
	fetcher repostats.HealthFetcher,
	bus events.Publisher,
	log logger.Logger,
	interval time.Duration,
) *Poller {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if bus == nil {
		bus = events.Noop{}
	}
	return &Poller{
		pets:     petSvc,
		fetcher:  fetcher,
		bus:      bus,
		log:      log.With(map[string]any{"component": "poller"}),
		interval: interval,
	}
}

// Run corre el loop hasta que el contexto muera. Ejecuta un ciclo
// inmediato al arrancar y luego cada intervalo.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started", map[string]any{"interval": p.interval.String()})

	p.RunCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped", nil)
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle procesa todas las mascotas una vez. Errores por mascota se
// loguean y se sigue; un rate limit de GitHub corta el ciclo entero.
func (p *Poller) RunCycle(ctx context.Context) {
	all, err := p.pets.ListAll(ctx)
	if err != nil {
		p.log.Error("list pets failed", logger.Err(err))
		return
	}

	var updated, evolved, failed int
	for _, pet := range all {
		if ctx.Err() != nil {
			return
		}

		outcome, err := p.checkPet(ctx, pet)
		if err != nil {
			var rl *repostats.RateLimitError
			if errors.As(err, &rl) {
				p.log.Warn("rate limited, aborting cycle", map[string]any{
					"error":     rl.Error(),
					"remaining": len(all) - updated - failed,
				})
				break
			}
			failed++
			p.log.Error("pet check failed", map[string]any{
				"owner": pet.RepoOwner,
				"repo":  pet.RepoName,
				"error": err.Error(),
			})
			continue
		}

		updated++
		if outcome.Evolved {
			evolved++
		}
	}

	p.log.Info("poll cycle done", map[string]any{
		"pets":    len(all),
		"updated": updated,
		"evolved": evolved,
		"errors":  failed,
	})
}

func (p *Poller) checkPet(ctx context.Context, pet pets.Pet) (pets.CheckOutcome, error) {
	health, err := p.fetcher.GetRepoHealth(ctx, pet.RepoOwner, pet.RepoName)
	if err != nil {
		return pets.CheckOutcome{}, err
	}

	now := p.pets.Now()
	outcome := pets.ApplyRepoHealth(&pet, health, now)

	if err := p.pets.SavePet(ctx, pet); err != nil {
		return pets.CheckOutcome{}, err
	}

	p.log.Debug("pet checked", map[string]any{
		"owner":        pet.RepoOwner,
		"repo":         pet.RepoName,
		"health_delta": outcome.HealthDelta,
		"exp_gained":   outcome.ExpGained,
		"mood":         string(outcome.NewMood),
	})

	if outcome.Evolved {
		p.log.Info("pet evolved", map[string]any{
			"owner": pet.RepoOwner,
			"repo":  pet.RepoName,
			"from":  string(outcome.OldStage),
			"to":    string(outcome.NewStage),
		})
		ev := events.Event{
			Type:       events.TypePetEvolved,
			RepoOwner:  pet.RepoOwner,
			RepoName:   pet.RepoName,
			PetID:      pet.ID,
			OccurredAt: now,
			Data: map[string]any{
				"from": string(outcome.OldStage),
				"to":   string(outcome.NewStage),
			},
		}
		if err := p.bus.Publish(ctx, ev); err != nil {
			p.log.Warn("event publish failed", logger.Err(err))
		}
	}

	return outcome, nil
}
