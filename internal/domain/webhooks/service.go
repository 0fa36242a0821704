package webhooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
)

// Recompensas por evento. Mismos números que usa el poller para señales
// equivalentes, así un webhook y un poll no divergen.
const (
	PushHealthBonus     = 10
	PushExperienceBonus = 20

	CISuccessHealthBonus     = 5
	CISuccessExperienceBonus = 10
	CIFailureHealthPenalty   = -5

	PROpenedExperienceBonus = 5
	PRMergedHealthBonus     = 5
	PRMergedExperienceBonus = 15

	IssueOpenedExperienceBonus = 3
)

// payload: solo los campos que miramos de los webhooks de GitHub.
type payload struct {
	Action     string `json:"action"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	PullRequest struct {
		Merged bool `json:"merged"`
	} `json:"pull_request"`
	CheckRun struct {
		Conclusion string `json:"conclusion"`
	} `json:"check_run"`
}

type Service struct {
	petSvc *pets.Service
	bus    events.Publisher
	log    logger.Logger
}

func NewService(petSvc *pets.Service, bus events.Publisher, log logger.Logger) *Service {
	if bus == nil {
		bus = events.Noop{}
	}
	return &Service{petSvc: petSvc, bus: bus, log: log}
}

// Dispatch rutea por tipo de evento. Eventos desconocidos se aceptan
// y se ignoran (GitHub manda de todo).
func (s *Service) Dispatch(ctx context.Context, eventType string, body []byte) (string, error) {
	var pl payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return "", fmt.Errorf("webhooks: invalid payload: %w", err)
	}

	switch eventType {
	case "push":
		return s.handlePush(ctx, pl)
	case "pull_request":
		return s.handlePullRequest(ctx, pl)
	case "issues":
		return s.handleIssues(ctx, pl)
	case "check_run":
		return s.handleCheckRun(ctx, pl)
	default:
		return fmt.Sprintf("event %q ignored", eventType), nil
	}
}

// resolvePet busca la mascota del payload. string no vacío = nota para
// el caller (sin repo / sin pet), no es un error.
func (s *Service) resolvePet(ctx context.Context, pl payload) (pets.Pet, string, error) {
	owner := pl.Repository.Owner.Login
	name := pl.Repository.Name
	if owner == "" || name == "" {
		return pets.Pet{}, "no repository in payload", nil
	}

	p, err := s.petSvc.GetByRepo(ctx, owner, name)
	if err != nil {
		return pets.Pet{}, fmt.Sprintf("no pet found for %s/%s", owner, name), nil
	}
	return p, "", nil
}

func (s *Service) handlePush(ctx context.Context, pl payload) (string, error) {
	p, note, err := s.resolvePet(ctx, pl)
	if err != nil || note != "" {
		return note, err
	}

	now := s.petSvc.Now()
	p.Health = pets.ClampHealth(p.Health + PushHealthBonus)
	p.Experience += PushExperienceBonus
	p.LastFedAt = &now
	p.Mood = pets.MoodHappy

	s.checkEvolution(&p)

	if err := s.petSvc.SavePet(ctx, p); err != nil {
		return "", err
	}

	s.log.Info("webhook_push_processed", map[string]any{
		"repo":           p.RepoOwner + "/" + p.RepoName,
		"pet_id":         p.ID,
		"new_health":     p.Health,
		"new_experience": p.Experience,
	})
	s.publish(ctx, p, "push", nil)

	return fmt.Sprintf("push processed for %s/%s", p.RepoOwner, p.RepoName), nil
}

func (s *Service) handlePullRequest(ctx context.Context, pl payload) (string, error) {
	p, note, err := s.resolvePet(ctx, pl)
	if err != nil || note != "" {
		return note, err
	}

	switch pl.Action {
	case "opened":
		p.Mood = pets.MoodWorried
		p.Experience += PROpenedExperienceBonus
	case "closed":
		if pl.PullRequest.Merged {
			p.Mood = pets.MoodHappy
			p.Health = pets.ClampHealth(p.Health + PRMergedHealthBonus)
			p.Experience += PRMergedExperienceBonus
		} else {
			// PR cerrado sin merge
			p.Mood = pets.MoodContent
		}
	case "reopened":
		p.Mood = pets.MoodWorried
	}

	s.checkEvolution(&p)

	if err := s.petSvc.SavePet(ctx, p); err != nil {
		return "", err
	}

	s.log.Info("webhook_pr_processed", map[string]any{
		"repo":     p.RepoOwner + "/" + p.RepoName,
		"pet_id":   p.ID,
		"action":   pl.Action,
		"new_mood": string(p.Mood),
	})
	s.publish(ctx, p, "pull_request", map[string]any{"action": pl.Action})

	return fmt.Sprintf("pull_request (%s) processed for %s/%s", pl.Action, p.RepoOwner, p.RepoName), nil
}

func (s *Service) handleIssues(ctx context.Context, pl payload) (string, error) {
	p, note, err := s.resolvePet(ctx, pl)
	if err != nil || note != "" {
		return note, err
	}

	switch pl.Action {
	case "opened":
		p.Mood = pets.MoodLonely
		p.Experience += IssueOpenedExperienceBonus
	case "closed":
		p.Mood = pets.MoodHappy
	}

	s.checkEvolution(&p)

	if err := s.petSvc.SavePet(ctx, p); err != nil {
		return "", err
	}

	s.log.Info("webhook_issue_processed", map[string]any{
		"repo":     p.RepoOwner + "/" + p.RepoName,
		"pet_id":   p.ID,
		"action":   pl.Action,
		"new_mood": string(p.Mood),
	})
	s.publish(ctx, p, "issues", map[string]any{"action": pl.Action})

	return fmt.Sprintf("issues (%s) processed for %s/%s", pl.Action, p.RepoOwner, p.RepoName), nil
}

func (s *Service) handleCheckRun(ctx context.Context, pl payload) (string, error) {
	p, note, err := s.resolvePet(ctx, pl)
	if err != nil || note != "" {
		return note, err
	}

	if pl.Action != "completed" {
		return fmt.Sprintf("check_run (%s) ignored for %s/%s", pl.Action, p.RepoOwner, p.RepoName), nil
	}

	conclusion := pl.CheckRun.Conclusion
	switch conclusion {
	case "success":
		p.Health = pets.ClampHealth(p.Health + CISuccessHealthBonus)
		p.Experience += CISuccessExperienceBonus
		p.Mood = pets.MoodDancing
	case "failure", "timed_out":
		p.Health = pets.ClampHealth(p.Health + CIFailureHealthPenalty)
		p.Mood = pets.MoodWorried
	}

	s.checkEvolution(&p)

	if err := s.petSvc.SavePet(ctx, p); err != nil {
		return "", err
	}

	s.log.Info("webhook_check_run_processed", map[string]any{
		"repo":       p.RepoOwner + "/" + p.RepoName,
		"pet_id":     p.ID,
		"conclusion": conclusion,
		"new_health": p.Health,
		"new_mood":   string(p.Mood),
	})
	s.publish(ctx, p, "check_run", map[string]any{"conclusion": conclusion})

	return fmt.Sprintf("check_run (%s) processed for %s/%s", conclusion, p.RepoOwner, p.RepoName), nil
}

func (s *Service) checkEvolution(p *pets.Pet) {
	next := pets.NextStage(p.Stage, p.Experience)
	if next == p.Stage {
		return
	}
	old := p.Stage
	p.Stage = next
	s.log.Info("pet_evolved_via_webhook", map[string]any{
		"pet_id":    p.ID,
		"old_stage": string(old),
		"new_stage": string(next),
	})
}

func (s *Service) publish(ctx context.Context, p pets.Pet, eventType string, data map[string]any) {
	ev := events.Event{
		Type:       events.TypeWebhookProcessed,
		RepoOwner:  p.RepoOwner,
		RepoName:   p.RepoName,
		PetID:      p.ID,
		OccurredAt: s.petSvc.Now(),
		Data:       map[string]any{"event": eventType},
	}
	for k, v := range data {
		ev.Data[k] = v
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("event_publish_failed", logger.Err(err))
	}
}
