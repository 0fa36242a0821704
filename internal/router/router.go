package router

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github-tamagotchi/docs"
	mem "github-tamagotchi/internal/adapters/storage/memory"
	pg "github-tamagotchi/internal/adapters/storage/postgres"
	"github-tamagotchi/internal/artwork"
	"github-tamagotchi/internal/domain/imagejobs"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/domain/webhooks"
	"github-tamagotchi/internal/middleware"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
	"github-tamagotchi/internal/ports/imagestore"
	"github-tamagotchi/internal/ports/repostats"
	"github-tamagotchi/internal/tools"
)

type Options struct {
	// Opcional: si viene, usa Postgres. Si no, repos in-memory.
	DB *sql.DB

	Log     logger.Logger
	Fetcher repostats.HealthFetcher // puede ser nil (tools degradan)
	Store   imagestore.Store
	Queue   imagejobs.Queue
	Bus     events.Publisher

	WebhookSecret string
	Version       string
}

// Services agrupa lo que el router armó, para que main se lo pase al
// poller y al worker sin reconstruir nada.
type Services struct {
	Pets     *pets.Service
	Jobs     *imagejobs.Service
	JobsRepo imagejobs.Repository
}

func NewRouter(opts Options) (http.Handler, Services) {
	r := chi.NewRouter()

	if opts.Log == nil {
		opts.Log = logger.New(logger.Options{})
	}
	if opts.Bus == nil {
		opts.Bus = events.Noop{}
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Log))

	var (
		petRepo pets.Repository
		jobRepo imagejobs.Repository
	)

	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		jobRepo = pg.NewJobsRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		jobRepo = mem.NewJobRepo()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	jobsSvc := imagejobs.NewService(jobRepo, opts.Queue)
	webhooksSvc := webhooks.NewService(petsSvc, opts.Bus, opts.Log)

	r.Get("/", landingHandler)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	toolsHandler := tools.NewHandler(petsSvc, jobsSvc, opts.Fetcher)
	toolsHandler.RegisterRoutes(r)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", healthHandler(opts.DB, opts.Version))

		// Rutas por módulo
		pets.RegisterRoutes(api, petsSvc)
		artwork.RegisterRoutes(api, petsSvc, opts.Store)
		imagejobs.RegisterRoutes(api, jobsSvc, petsSvc)
		webhooks.RegisterRoutes(api, webhooksSvc, opts.WebhookSecret)
	})

	return r, Services{
		Pets:     petsSvc,
		Jobs:     jobsSvc,
		JobsRepo: jobRepo,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// healthHandler godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /api/v1/health [get]
func healthHandler(db *sql.DB, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:   "ok",
			Version:  version,
			Database: "memory",
		}
		if db != nil {
			resp.Database = "postgres"
			if err := db.PingContext(r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Database = "unreachable"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

const landingHTML = `<!DOCTYPE html>
<html>
<head><title>GitHub Tamagotchi</title></head>
<body style="font-family: monospace; max-width: 640px; margin: 40px auto;">
<h1>GitHub Tamagotchi</h1>
<p>Tu repo es una mascota. Commits la alimentan, PRs viejos la preocupan,
issues sin responder la ponen triste.</p>
<ul>
<li><a href="/api/v1/health">/api/v1/health</a></li>
<li><a href="/api/v1/pets">/api/v1/pets</a></li>
<li><a href="/swagger/index.html">/swagger</a></li>
</ul>
</body>
</html>`

func landingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(landingHTML))
}
