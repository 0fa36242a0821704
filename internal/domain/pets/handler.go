package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Route("/{owner}/{repo}", func(rr chi.Router) {
			rr.Get("/", getPetHandler(svc))
			rr.Delete("/", deletePetHandler(svc))
			rr.Post("/feed", feedPetHandler(svc))
		})
	})
}

type createPetRequest struct {
	RepoOwner string `json:"repo_owner"`
	RepoName  string `json:"repo_name"`
	Name      string `json:"name"`
}

type petResponse struct {
	ID                string     `json:"id"`
	RepoOwner         string     `json:"repo_owner"`
	RepoName          string     `json:"repo_name"`
	Name              string     `json:"name"`
	Stage             string     `json:"stage"`
	Mood              string     `json:"mood"`
	Health            int        `json:"health"`
	Experience        int        `json:"experience"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastFedAt         *time.Time `json:"last_fed_at,omitempty"`
	LastCheckedAt     *time.Time `json:"last_checked_at,omitempty"`
	ImagesGeneratedAt *time.Time `json:"images_generated_at,omitempty"`
}

type petListResponse struct {
	Items    []petResponse `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int           `json:"total"`
}

type apiError struct {
	Message string `json:"message"`
}

// createPetHandler godoc
// @Summary Register a pet for a GitHub repository
// @Tags pets
// @Accept json
// @Produce json
// @Param request body createPetRequest true "repository and pet name"
// @Success 201 {object} petResponse
// @Failure 409 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid json")
			return
		}

		p, err := svc.Register(r.Context(), RegisterInput{
			RepoOwner: req.RepoOwner,
			RepoName:  req.RepoName,
			Name:      req.Name,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrDuplicate):
				writeError(w, http.StatusConflict, err.Error())
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusUnprocessableEntity, "repo_owner, repo_name and name are required")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary List pets (paginated, newest first)
// @Tags pets
// @Produce json
// @Param page query int false "page (>=1, default 1)"
// @Param page_size query int false "page size (1..100, default 10)"
// @Success 200 {object} petListResponse
// @Failure 422 {object} apiError
// @Router /api/v1/pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := queryInt(r, "page", 1)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "page must be an integer")
			return
		}
		pageSize, ok := queryInt(r, "page_size", DefaultPageSize)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "page_size must be an integer")
			return
		}

		items, total, err := svc.ListPage(r.Context(), page, pageSize)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusUnprocessableEntity, "page must be >= 1 and page_size in [1,100]")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, petListResponse{
			Items:    out,
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		})
	}
}

// getPetHandler godoc
// @Summary Get a pet by repository
// @Tags pets
// @Produce json
// @Param owner path string true "repository owner"
// @Param repo path string true "repository name"
// @Success 200 {object} petResponse
// @Failure 404 {object} apiError
// @Router /api/v1/pets/{owner}/{repo} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByRepo(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
		if err != nil {
			writeError(w, http.StatusNotFound, "pet not found")
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// feedPetHandler godoc
// @Summary Feed a pet (+10 health, capped at 100)
// @Tags pets
// @Produce json
// @Param owner path string true "repository owner"
// @Param repo path string true "repository name"
// @Success 200 {object} petResponse
// @Failure 404 {object} apiError
// @Router /api/v1/pets/{owner}/{repo}/feed [post]
func feedPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Feed(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
		if err != nil {
			writeError(w, http.StatusNotFound, "pet not found")
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Delete a pet and its image jobs
// @Tags pets
// @Param owner path string true "repository owner"
// @Param repo path string true "repository name"
// @Success 204
// @Failure 404 {object} apiError
// @Router /api/v1/pets/{owner}/{repo} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo")); err != nil {
			writeError(w, http.StatusNotFound, "pet not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:                p.ID,
		RepoOwner:         p.RepoOwner,
		RepoName:          p.RepoName,
		Name:              p.Name,
		Stage:             string(p.Stage),
		Mood:              string(p.Mood),
		Health:            p.Health,
		Experience:        p.Experience,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		LastFedAt:         p.LastFedAt,
		LastCheckedAt:     p.LastCheckedAt,
		ImagesGeneratedAt: p.ImagesGeneratedAt,
	}
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// writeJSON está duplicado a propósito en handlers de distintos módulos
// para no crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Message: msg})
}
