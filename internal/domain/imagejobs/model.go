package imagejobs

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var AllStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// MaxAttempts: reintentos acotados. Al tercer fallo el job queda failed.
const MaxAttempts = 3

// Job es un pedido encolado de generación de sprites para una mascota.
// Stage vacío = generar todos los stages.
type Job struct {
	ID     string
	PetID  string
	Status Status
	Stage  string

	Attempts int
	Error    string

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
