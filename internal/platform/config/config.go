package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config junta todo lo configurable del servicio.
// Fuente: config.yaml + overrides por env var (env gana siempre,
// útil en contenedores).
type Config struct {
	AppName    string `yaml:"app_name"`
	ServerAddr string `yaml:"server_addr"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Postgres. Vacío => repos in-memory (modo dev).
	DatabaseURL string `yaml:"database_url"`

	// Redis para la cola de imágenes. Vacío => cola in-memory.
	RedisAddr string `yaml:"redis_addr"`

	GitHub   GitHubConfig  `yaml:"github"`
	Webhook  WebhookConfig `yaml:"webhook"`
	ComfyUI  ComfyUIConfig `yaml:"comfyui"`
	Storage  StorageConfig `yaml:"storage"`
	Kafka    KafkaConfig   `yaml:"kafka"`
	ImageGen ImageGenQueue `yaml:"image_queue"`
}

type GitHubConfig struct {
	Token               string `yaml:"token"`
	PollIntervalMinutes int    `yaml:"poll_interval_minutes"`
}

type WebhookConfig struct {
	// Secret para X-Hub-Signature-256. Vacío => no se verifica (solo dev).
	Secret string `yaml:"secret"`
}

type ComfyUIConfig struct {
	URL                  string `yaml:"url"`
	CFAccessClientID     string `yaml:"cf_access_client_id"`
	CFAccessClientSecret string `yaml:"cf_access_client_secret"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

type ImageGenQueue struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

// Load lee el yaml (si existe) y aplica overrides de env.
// Un path vacío o inexistente no es error: se puede correr 100% por env.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// ok, seguimos con defaults + env
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.GitHub.PollIntervalMinutes <= 0 {
		cfg.GitHub.PollIntervalMinutes = 30
	}
	if cfg.ComfyUI.TimeoutSeconds <= 0 {
		cfg.ComfyUI.TimeoutSeconds = 300
	}
	if cfg.ImageGen.PollIntervalSeconds <= 0 {
		cfg.ImageGen.PollIntervalSeconds = 10
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		AppName:    "github-tamagotchi",
		ServerAddr: ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
		Storage: StorageConfig{
			Bucket: "tamagotchi",
		},
		Kafka: KafkaConfig{
			Topic: "pet-events",
		},
	}
}

func applyEnv(cfg *Config) {
	setStr(&cfg.AppName, "APP_NAME")
	if v := os.Getenv("PORT"); v != "" {
		cfg.ServerAddr = ":" + v
	}
	setStr(&cfg.ServerAddr, "SERVER_ADDR")
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.LogFormat, "LOG_FORMAT")
	setStr(&cfg.DatabaseURL, "DATABASE_URL")
	setStr(&cfg.RedisAddr, "REDIS_ADDR")

	setStr(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setInt(&cfg.GitHub.PollIntervalMinutes, "GITHUB_POLL_INTERVAL_MINUTES")
	setStr(&cfg.Webhook.Secret, "GITHUB_WEBHOOK_SECRET")

	setStr(&cfg.ComfyUI.URL, "COMFYUI_URL")
	setStr(&cfg.ComfyUI.CFAccessClientID, "COMFYUI_CF_ACCESS_CLIENT_ID")
	setStr(&cfg.ComfyUI.CFAccessClientSecret, "COMFYUI_CF_ACCESS_CLIENT_SECRET")
	setInt(&cfg.ComfyUI.TimeoutSeconds, "COMFYUI_TIMEOUT_SECONDS")

	setStr(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	setStr(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setStr(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
	setStr(&cfg.Storage.Bucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.Storage.Secure = b
		}
	}

	setStr(&cfg.Kafka.Broker, "KAFKA_BROKER")
	setStr(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setInt(&cfg.ImageGen.PollIntervalSeconds, "IMAGE_QUEUE_POLL_INTERVAL_SECONDS")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			*dst = i
		}
	}
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.GitHub.PollIntervalMinutes) * time.Minute
}

func (c *Config) ComfyUITimeout() time.Duration {
	return time.Duration(c.ComfyUI.TimeoutSeconds) * time.Second
}

func (c *Config) QueuePollInterval() time.Duration {
	return time.Duration(c.ImageGen.PollIntervalSeconds) * time.Second
}
