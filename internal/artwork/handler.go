package artwork

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/ports/imagestore"
)

func RegisterRoutes(r chi.Router, petSvc *pets.Service, store imagestore.Store) {
	// Rutas directas (sin Route/Mount): un submount en /pets/{owner}/{repo}
	// taparía el catch-all del submount de pets en /pets y rompería
	// GET/DELETE /pets/{owner}/{repo}.
	r.Get("/pets/{owner}/{repo}/characteristics", characteristicsHandler(petSvc))
	r.Get("/pets/{owner}/{repo}/image", imageHandler(petSvc, store))
}

type stagePrompt struct {
	Stage       string `json:"stage"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

type characteristicsResponse struct {
	RepoOwner  string        `json:"repo_owner"`
	RepoName   string        `json:"repo_name"`
	Appearance Appearance    `json:"appearance"`
	Seed       uint32        `json:"seed"`
	Stages     []stagePrompt `json:"stages"`
}

// characteristicsHandler godoc
// @Summary Deterministic appearance and prompts for a pet
// @Tags artwork
// @Produce json
// @Param owner path string true "repository owner"
// @Param repo path string true "repository name"
// @Success 200 {object} characteristicsResponse
// @Failure 404 {object} apiError
// @Router /api/v1/pets/{owner}/{repo}/characteristics [get]
func characteristicsHandler(petSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		repo := chi.URLParam(r, "repo")

		if _, err := petSvc.GetByRepo(r.Context(), owner, repo); err != nil {
			writeError(w, http.StatusNotFound, "pet not found")
			return
		}

		stages := make([]stagePrompt, 0, len(pets.Stages))
		for _, st := range pets.Stages {
			stages = append(stages, stagePrompt{
				Stage:       string(st),
				Description: StageDescription(st),
				Prompt:      PromptFor(owner, repo, st),
			})
		}

		writeJSON(w, http.StatusOK, characteristicsResponse{
			RepoOwner:  owner,
			RepoName:   repo,
			Appearance: AppearanceFor(owner, repo),
			Seed:       SeedFrom(RepoHash(owner, repo)),
			Stages:     stages,
		})
	}
}

// imageHandler godoc
// @Summary Stored sprite for a pet stage (defaults to the current stage)
// @Tags artwork
// @Produce png
// @Param owner path string true "repository owner"
// @Param repo path string true "repository name"
// @Param stage query string false "stage (egg..elder)"
// @Success 200 {file} binary
// @Failure 404 {object} apiError
// @Failure 503 {object} apiError
// @Router /api/v1/pets/{owner}/{repo}/image [get]
func imageHandler(petSvc *pets.Service, store imagestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		repo := chi.URLParam(r, "repo")

		p, err := petSvc.GetByRepo(r.Context(), owner, repo)
		if err != nil {
			writeError(w, http.StatusNotFound, "pet not found")
			return
		}

		stage := r.URL.Query().Get("stage")
		if stage == "" {
			stage = string(p.Stage)
		}
		if !pets.ValidStage(stage) {
			writeError(w, http.StatusUnprocessableEntity, "invalid stage")
			return
		}

		data, err := store.Get(r.Context(), owner, repo, stage)
		if err != nil {
			switch {
			case errors.Is(err, imagestore.ErrNotFound):
				writeError(w, http.StatusNotFound, "image not generated yet")
			case errors.Is(err, imagestore.ErrNotConfigured):
				writeError(w, http.StatusServiceUnavailable, "image storage not configured")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
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
