package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github-tamagotchi/internal/adapters/comfyui"
	kafkaevents "github-tamagotchi/internal/adapters/events"
	"github-tamagotchi/internal/adapters/githubapi"
	"github-tamagotchi/internal/adapters/objectstore"
	"github-tamagotchi/internal/adapters/queue"
	pg "github-tamagotchi/internal/adapters/storage/postgres"
	"github-tamagotchi/internal/artwork"
	"github-tamagotchi/internal/domain/imagejobs"
	"github-tamagotchi/internal/platform/config"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/poller"
	"github-tamagotchi/internal/ports/events"
	"github-tamagotchi/internal/ports/imagestore"
	"github-tamagotchi/internal/ports/repostats"
	"github-tamagotchi/internal/router"
	"github-tamagotchi/internal/worker"
)

//go:embed migrations
var migrationsFS embed.FS

const version = "1.0.0"

// @title GitHub Tamagotchi API
// @version 1.0
// @description Your repository as a virtual pet.
// @BasePath /
func main() {
	configPath := flag.String("config", "config.yaml", "path al config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres (opcional: sin DSN corre con repos in-memory)
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		opened, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres open failed", logger.Err(err))
			os.Exit(1)
		}
		defer opened.Close()

		if err := pg.Migrate(opened, migrationsFS); err != nil {
			log.Error("migrations failed", logger.Err(err))
			os.Exit(1)
		}
		db = opened
		log.Info("postgres connected", nil)
	} else {
		log.Warn("no DATABASE_URL, using in-memory repos", nil)
	}

	// Cola: Redis si hay addr, channel en memoria si no
	var jobQueue imagejobs.Queue
	if cfg.RedisAddr != "" {
		rq, err := queue.NewRedis(cfg.RedisAddr)
		if err != nil {
			log.Error("redis connect failed", logger.Err(err))
			os.Exit(1)
		}
		defer rq.Close()
		jobQueue = rq
		log.Info("redis queue connected", map[string]any{"addr": cfg.RedisAddr})
	} else {
		jobQueue = queue.NewMemory()
		log.Warn("no REDIS_ADDR, using in-memory queue", nil)
	}

	// Storage de imágenes: MinIO si hay endpoint
	var store imagestore.Store
	if cfg.Storage.Endpoint != "" {
		ms, err := objectstore.NewMinio(objectstore.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Secure:    cfg.Storage.Secure,
		}, log)
		if err != nil {
			log.Error("minio setup failed", logger.Err(err))
			os.Exit(1)
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			log.Error("minio bucket failed", logger.Err(err))
			os.Exit(1)
		}
		store = ms
		log.Info("minio connected", map[string]any{"bucket": cfg.Storage.Bucket})
	} else {
		store = objectstore.NewMemory()
		log.Warn("no MINIO_ENDPOINT, images stored in memory", nil)
	}

	// Event bus: Kafka opcional
	var bus events.Publisher = events.Noop{}
	if cfg.Kafka.Broker != "" {
		kp := kafkaevents.NewKafka(cfg.Kafka.Broker, cfg.Kafka.Topic, log)
		defer kp.Close()
		bus = kp
		log.Info("kafka publisher ready", map[string]any{"topic": cfg.Kafka.Topic})
	}

	// GitHub fetcher
	var fetcher repostats.HealthFetcher
	gh, err := githubapi.New(githubapi.Config{Token: cfg.GitHub.Token}, log)
	if err != nil {
		log.Error("github client failed", logger.Err(err))
		os.Exit(1)
	}
	fetcher = gh

	// ComfyUI (opcional; sin URL el generador usa placeholders)
	var backend artwork.Backend
	if cfg.ComfyUI.URL != "" {
		cc, err := comfyui.NewClient(comfyui.Config{
			URL:                  cfg.ComfyUI.URL,
			CFAccessClientID:     cfg.ComfyUI.CFAccessClientID,
			CFAccessClientSecret: cfg.ComfyUI.CFAccessClientSecret,
			Timeout:              cfg.ComfyUITimeout(),
		})
		if err != nil {
			log.Error("comfyui client failed", logger.Err(err))
			os.Exit(1)
		}
		backend = cc
		log.Info("comfyui backend configured", map[string]any{"url": cfg.ComfyUI.URL})
	} else {
		log.Warn("no COMFYUI_URL, using placeholder sprites", nil)
	}

	generator := artwork.NewGenerator(backend, store, log)

	handler, services := router.NewRouter(router.Options{
		DB:            db,
		Log:           log,
		Fetcher:       fetcher,
		Store:         store,
		Queue:         jobQueue,
		Bus:           bus,
		WebhookSecret: cfg.Webhook.Secret,
		Version:       version,
	})

	// Poller de GitHub
	p := poller.New(services.Pets, fetcher, bus, log, cfg.PollInterval())
	go p.Run(ctx)

	// Worker de imágenes
	w := worker.New(
		services.Jobs, services.JobsRepo, jobQueue,
		services.Pets, generator, bus, log,
		cfg.QueuePollInterval(),
	)
	go w.Run(ctx)

	srv := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     handler,
		ReadTimeout: 5 * time.Second,
		// las respuestas de imagen pueden tardar si generan on-demand
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("server listening", map[string]any{"addr": cfg.ServerAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", logger.Err(err))
	}
	log.Info("bye", nil)
}
