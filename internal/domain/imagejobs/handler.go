package imagejobs

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github-tamagotchi/internal/domain/pets"
)

func RegisterRoutes(r chi.Router, svc *Service, petSvc *pets.Service) {
	r.Post("/pets/{owner}/{repo}/images", enqueueHandler(svc, petSvc))
	r.Get("/jobs/{id}", getJobHandler(svc))
	r.Get("/admin/queue/stats", queueStatsHandler(svc))
}

type enqueueRequest struct {
	Stage string `json:"stage"` // vacío = todos los stages
}

type jobResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage,omitempty"`
	Attempts    int        `json:"attempts"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// enqueueHandler godoc
// @Summary Queue image generation for a pet
// @Tags images
// @Accept json
// @Produce json
// @Param owner path string true "repository owner"
// @Param repo path string true "repository name"
// @Param request body enqueueRequest false "optional single stage"
// @Success 202 {object} jobResponse
// @Failure 404 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/pets/{owner}/{repo}/images [post]
func enqueueHandler(svc *Service, petSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := petSvc.GetByRepo(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
		if err != nil {
			writeError(w, http.StatusNotFound, "pet not found")
			return
		}

		var req enqueueRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid json")
				return
			}
		}
		if req.Stage != "" && !pets.ValidStage(req.Stage) {
			writeError(w, http.StatusUnprocessableEntity, "invalid stage")
			return
		}

		j, err := svc.Enqueue(r.Context(), p.ID, req.Stage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusAccepted, toJobResponse(j))
	}
}

// getJobHandler godoc
// @Summary Get an image generation job
// @Tags images
// @Produce json
// @Param id path string true "job id"
// @Success 200 {object} jobResponse
// @Failure 404 {object} apiError
// @Router /api/v1/jobs/{id} [get]
func getJobHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, toJobResponse(j))
	}
}

// queueStatsHandler godoc
// @Summary Image queue counters per status
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/v1/admin/queue/stats [get]
func queueStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make(map[string]int, len(stats))
		for st, n := range stats {
			out[string(st)] = n
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toJobResponse(j Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		PetID:       j.PetID,
		Status:      string(j.Status),
		Stage:       j.Stage,
		Attempts:    j.Attempts,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Message: msg})
}
