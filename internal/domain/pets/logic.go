package pets

import (
	"time"

	"github-tamagotchi/internal/ports/repostats"
)

// Umbrales de estado.
const (
	HungryThresholdDays  = 3  // sin commits en 3 días = hungry
	WorriedThresholdHrs  = 48 // PR abierto > 48h = worried
	LonelyThresholdDays  = 7  // issue sin respuesta > 1 semana = lonely
	FreshCommitWindowHrs = 24 // commit en las últimas 24h cuenta como "alimentado"
)

// EvolutionThresholds: experiencia acumulada necesaria para cada stage.
var EvolutionThresholds = map[Stage]int{
	StageEgg:   0,
	StageBaby:  100,
	StageChild: 500,
	StageTeen:  1500,
	StageAdult: 5000,
	StageElder: 15000,
}

// MoodFor deriva el humor desde las métricas del repo.
// Prioridad fija: sick > hungry > worried > lonely > dancing > default por health.
func MoodFor(h repostats.RepoHealth, currentHealth int, now time.Time) Mood {
	if h.HasStaleDeps {
		return MoodSick
	}

	if h.LastCommitAt != nil {
		daysSinceCommit := now.Sub(*h.LastCommitAt).Hours() / 24
		if daysSinceCommit > HungryThresholdDays {
			return MoodHungry
		}
	}

	if h.OldestPRAgeHours != nil && *h.OldestPRAgeHours > WorriedThresholdHrs {
		return MoodWorried
	}

	if h.OldestIssueAgeDays != nil && *h.OldestIssueAgeDays > LonelyThresholdDays {
		return MoodLonely
	}

	if h.LastCISuccess != nil && *h.LastCISuccess {
		return MoodDancing
	}

	if currentHealth >= 80 {
		return MoodHappy
	}
	return MoodContent
}

// HealthDelta calcula el cambio de health según las métricas.
func HealthDelta(h repostats.RepoHealth, now time.Time) int {
	delta := 0

	// Efectos positivos
	if h.LastCISuccess != nil && *h.LastCISuccess {
		delta += 5
	}
	if h.LastCommitAt != nil && now.Sub(*h.LastCommitAt).Hours() < FreshCommitWindowHrs {
		delta += 10 // commit reciente = comida
	}

	// Efectos negativos
	if h.HasStaleDeps {
		delta -= 10
	}
	if h.OldestPRAgeHours != nil && *h.OldestPRAgeHours > WorriedThresholdHrs {
		delta -= 5
	}
	if h.OldestIssueAgeDays != nil && *h.OldestIssueAgeDays > LonelyThresholdDays {
		delta -= 5
	}

	return delta
}

// ExperienceGain calcula la experiencia ganada por actividad del repo.
func ExperienceGain(h repostats.RepoHealth, now time.Time) int {
	exp := 0

	if h.LastCISuccess != nil && *h.LastCISuccess {
		exp += 10
	}
	if h.LastCommitAt != nil && now.Sub(*h.LastCommitAt).Hours() < FreshCommitWindowHrs {
		exp += 20
	}

	return exp
}

// NextStage avanza como máximo un stage por chequeo. Elder es terminal.
func NextStage(current Stage, experience int) Stage {
	idx := -1
	for i, s := range Stages {
		if s == current {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(Stages)-1 {
		return current
	}

	next := Stages[idx+1]
	if experience >= EvolutionThresholds[next] {
		return next
	}
	return current
}

// CheckOutcome reporta qué cambió al aplicar las métricas.
type CheckOutcome struct {
	HealthDelta int
	ExpGained   int
	Evolved     bool
	OldStage    Stage
	NewStage    Stage
	OldMood     Mood
	NewMood     Mood
}

// ApplyRepoHealth aplica las métricas al estado de la mascota (in place):
// health clampeado, experiencia acumulada, humor recalculado, evolución
// y LastCheckedAt. LastFedAt se marca si hubo commit fresco.
func ApplyRepoHealth(p *Pet, h repostats.RepoHealth, now time.Time) CheckOutcome {
	out := CheckOutcome{
		OldStage: p.Stage,
		OldMood:  p.Mood,
	}

	out.HealthDelta = HealthDelta(h, now)
	p.Health = ClampHealth(p.Health + out.HealthDelta)

	out.ExpGained = ExperienceGain(h, now)
	p.Experience += out.ExpGained

	p.Mood = MoodFor(h, p.Health, now)
	out.NewMood = p.Mood

	next := NextStage(p.Stage, p.Experience)
	out.NewStage = next
	if next != p.Stage {
		p.Stage = next
		out.Evolved = true
	}

	if h.LastCommitAt != nil && now.Sub(*h.LastCommitAt).Hours() < FreshCommitWindowHrs {
		t := now
		p.LastFedAt = &t
	}

	t := now
	p.LastCheckedAt = &t

	return out
}
