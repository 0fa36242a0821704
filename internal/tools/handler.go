package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github-tamagotchi/internal/artwork"
	"github-tamagotchi/internal/domain/imagejobs"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/ports/repostats"
)

// Handler expone las operaciones del servicio como herramientas
// invocables por POST /mcp/tools/{tool}. Los errores van dentro del
// envelope JSON con status 200, como espera un cliente de tools.
type Handler struct {
	pets    *pets.Service
	jobs    *imagejobs.Service
	fetcher repostats.HealthFetcher
}

func NewHandler(petSvc *pets.Service, jobSvc *imagejobs.Service, fetcher repostats.HealthFetcher) *Handler {
	return &Handler{
		pets:    petSvc,
		jobs:    jobSvc,
		fetcher: fetcher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mcp/tools/{tool}", h.invoke)
}

type toolArgs struct {
	RepoOwner string `json:"repo_owner"`
	RepoName  string `json:"repo_name"`
	Name      string `json:"name"`
	Stage     string `json:"stage"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

type toolResult struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// invoke godoc
// @Summary Invoke a service tool
// @Tags tools
// @Accept json
// @Produce json
// @Param tool path string true "tool name"
// @Param args body toolArgs false "tool arguments"
// @Success 200 {object} toolResult
// @Failure 404 {object} toolResult
// @Router /mcp/tools/{tool} [post]
func (h *Handler) invoke(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")

	var args toolArgs
	if r.Body != nil {
		// body vacío es válido (list_pets sin argumentos)
		_ = json.NewDecoder(r.Body).Decode(&args)
	}

	fn, ok := h.tools()[tool]
	if !ok {
		writeResult(w, http.StatusNotFound, toolResult{Error: "unknown tool: " + tool})
		return
	}

	result, err := fn(r.Context(), args)
	if err != nil {
		writeResult(w, http.StatusOK, toolResult{Error: err.Error()})
		return
	}
	writeResult(w, http.StatusOK, toolResult{Result: result})
}

type toolFn func(ctx context.Context, args toolArgs) (any, error)

func (h *Handler) tools() map[string]toolFn {
	return map[string]toolFn{
		"register_pet":            h.registerPet,
		"check_pet_status":        h.checkPetStatus,
		"feed_pet":                h.feedPet,
		"list_pets":               h.listPets,
		"get_pet_characteristics": h.getPetCharacteristics,
		"generate_pet_images":     h.generatePetImages,
	}
}

func (h *Handler) registerPet(ctx context.Context, args toolArgs) (any, error) {
	p, err := h.pets.Register(ctx, pets.RegisterInput{
		RepoOwner: args.RepoOwner,
		RepoName:  args.RepoName,
		Name:      args.Name,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// checkPetStatus retorna la mascota junto con las métricas vivas del
// repo (sin persistir el scoring; eso es trabajo del poller).
func (h *Handler) checkPetStatus(ctx context.Context, args toolArgs) (any, error) {
	p, err := h.pets.GetByRepo(ctx, args.RepoOwner, args.RepoName)
	if err != nil {
		return nil, err
	}

	out := map[string]any{"pet": p}
	if h.fetcher != nil {
		health, err := h.fetcher.GetRepoHealth(ctx, args.RepoOwner, args.RepoName)
		if err != nil {
			out["repo_health_error"] = err.Error()
		} else {
			out["repo_health"] = health
		}
	}
	return out, nil
}

func (h *Handler) feedPet(ctx context.Context, args toolArgs) (any, error) {
	p, err := h.pets.Feed(ctx, args.RepoOwner, args.RepoName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handler) listPets(ctx context.Context, args toolArgs) (any, error) {
	page := args.Page
	if page == 0 {
		page = 1
	}
	items, total, err := h.pets.ListPage(ctx, page, args.PageSize)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"items": items,
		"total": total,
		"page":  page,
	}, nil
}

func (h *Handler) getPetCharacteristics(ctx context.Context, args toolArgs) (any, error) {
	if _, err := h.pets.GetByRepo(ctx, args.RepoOwner, args.RepoName); err != nil {
		return nil, err
	}

	prompts := make(map[string]string, len(pets.Stages))
	for _, st := range pets.Stages {
		prompts[string(st)] = artwork.PromptFor(args.RepoOwner, args.RepoName, st)
	}
	return map[string]any{
		"appearance": artwork.AppearanceFor(args.RepoOwner, args.RepoName),
		"seed":       artwork.SeedFrom(artwork.RepoHash(args.RepoOwner, args.RepoName)),
		"prompts":    prompts,
	}, nil
}

func (h *Handler) generatePetImages(ctx context.Context, args toolArgs) (any, error) {
	p, err := h.pets.GetByRepo(ctx, args.RepoOwner, args.RepoName)
	if err != nil {
		return nil, err
	}
	if args.Stage != "" && !pets.ValidStage(args.Stage) {
		return nil, errors.New("invalid stage: " + args.Stage)
	}

	job, err := h.jobs.Enqueue(ctx, p.ID, args.Stage)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func writeResult(w http.ResponseWriter, status int, v toolResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
