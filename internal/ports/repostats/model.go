package repostats

import "time"

// RepoHealth son las métricas de salud de un repo GitHub que alimentan
// el scoring de la mascota. Punteros = "no se pudo determinar".
type RepoHealth struct {
	LastCommitAt       *time.Time
	OpenPRsCount       int
	OldestPRAgeHours   *float64
	OpenIssuesCount    int
	OldestIssueAgeDays *float64
	LastCISuccess      *bool // nil = sin status / desconocido
	HasStaleDeps       bool
}

// RateLimitError: GitHub nos cortó por rate limit. El poller frena el
// ciclo completo cuando la ve.
type RateLimitError struct {
	ResetAt *time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt == nil {
		return "github rate limit reached"
	}
	return "github rate limit reached, resets at " + e.ResetAt.Format(time.RFC3339)
}
