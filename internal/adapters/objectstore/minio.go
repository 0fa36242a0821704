package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/imagestore"
)

// componentes de path permitidos (owner, repo, stage); corta traversal
var safeComponent = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// MinioStore implementa imagestore.Store sobre un bucket MinIO/S3.
type MinioStore struct {
	client *minio.Client
	cfg    MinioConfig
	log    logger.Logger
}

func NewMinio(cfg MinioConfig, log logger.Logger) (*MinioStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, imagestore.ErrNotConfigured
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		cfg.Bucket = "pet-images"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: %w", err)
	}

	return &MinioStore{
		client: client,
		cfg:    cfg,
		log:    log.With(map[string]any{"component": "objectstore"}),
	}, nil
}

// EnsureBucket crea el bucket si no existe. Se llama al arrancar.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("objectstore: bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("objectstore: make bucket: %w", err)
	}
	s.log.Info("bucket created", map[string]any{"bucket": s.cfg.Bucket})
	return nil
}

func (s *MinioStore) Put(ctx context.Context, owner, repo, stage string, data []byte) (string, error) {
	path, err := objectPath(owner, repo, stage)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, path,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/png"},
	)
	if err != nil {
		return "", fmt.Errorf("objectstore: put %s: %w", path, err)
	}
	return path, nil
}

func (s *MinioStore) Get(ctx context.Context, owner, repo, stage string) ([]byte, error) {
	path, err := objectPath(owner, repo, stage)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("objectstore: get %s: %w", path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, imagestore.ErrNotFound
		}
		return nil, fmt.Errorf("objectstore: read %s: %w", path, err)
	}
	return data, nil
}

func (s *MinioStore) Exists(ctx context.Context, owner, repo, stage string) (bool, error) {
	path, err := objectPath(owner, repo, stage)
	if err != nil {
		return false, err
	}

	_, err = s.client.StatObject(ctx, s.cfg.Bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("objectstore: stat %s: %w", path, err)
	}
	return true, nil
}

func (s *MinioStore) DeleteAll(ctx context.Context, owner, repo string) error {
	prefix, err := repoPrefix(owner, repo)
	if err != nil {
		return err
	}

	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("objectstore: list %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.cfg.Bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("objectstore: remove %s: %w", obj.Key, err)
		}
	}
	return nil
}

func (s *MinioStore) ListStages(ctx context.Context, owner, repo string) ([]string, error) {
	prefix, err := repoPrefix(owner, repo)
	if err != nil {
		return nil, err
	}

	stages := make([]string, 0)
	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("objectstore: list %s: %w", prefix, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if !strings.HasSuffix(name, ".png") || strings.HasSuffix(name, "_thumb.png") {
			continue
		}
		stages = append(stages, strings.TrimSuffix(name, ".png"))
	}
	return stages, nil
}

func (s *MinioStore) PublicURL(owner, repo, stage string) string {
	scheme := "http"
	if s.cfg.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/pets/%s/%s/%s.png",
		scheme, s.cfg.Endpoint, s.cfg.Bucket, owner, repo, stage)
}

func objectPath(owner, repo, stage string) (string, error) {
	for _, part := range []string{owner, repo, stage} {
		if !safeComponent.MatchString(part) {
			return "", fmt.Errorf("objectstore: invalid path component %q", part)
		}
	}
	return fmt.Sprintf("pets/%s/%s/%s.png", owner, repo, stage), nil
}

func repoPrefix(owner, repo string) (string, error) {
	for _, part := range []string{owner, repo} {
		if !safeComponent.MatchString(part) {
			return "", fmt.Errorf("objectstore: invalid path component %q", part)
		}
	}
	return fmt.Sprintf("pets/%s/%s/", owner, repo), nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
	}
	return false
}
