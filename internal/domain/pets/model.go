package pets

import "time"

// Stage define las etapas de evolución de la mascota.
// @Enum egg, baby, child, teen, adult, elder
type Stage string

const (
	StageEgg   Stage = "egg"
	StageBaby  Stage = "baby"
	StageChild Stage = "child"
	StageTeen  Stage = "teen"
	StageAdult Stage = "adult"
	StageElder Stage = "elder"
)

// Stages en orden de evolución. El orden importa: NextStage avanza de a uno.
var Stages = []Stage{StageEgg, StageBaby, StageChild, StageTeen, StageAdult, StageElder}

func ValidStage(s string) bool {
	for _, st := range Stages {
		if string(st) == s {
			return true
		}
	}
	return false
}

// Mood define el humor actual, derivado de las señales del repo.
// @Enum happy, content, hungry, worried, lonely, sick, dancing
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodContent Mood = "content"
	MoodHungry  Mood = "hungry"
	MoodWorried Mood = "worried"
	MoodLonely  Mood = "lonely"
	MoodSick    Mood = "sick"
	MoodDancing Mood = "dancing"
)

// Pet representa el estado gamificado de un repo GitHub trackeado.
// El par (RepoOwner, RepoName) es único.
type Pet struct {
	ID        string
	RepoOwner string
	RepoName  string
	Name      string

	Stage      Stage
	Mood       Mood
	Health     int // clamped [0,100]
	Experience int // monotónico, nunca baja

	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastFedAt         *time.Time
	LastCheckedAt     *time.Time
	ImagesGeneratedAt *time.Time
}

// ClampHealth aplica el rango [0,100].
func ClampHealth(h int) int {
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return h
}
