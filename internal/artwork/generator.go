package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"

	"github-tamagotchi/internal/adapters/comfyui"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/imagestore"
)

const (
	spriteSize    = 512
	thumbnailSize = 128
)

// Backend es lo que el generador necesita de ComfyUI.
type Backend interface {
	IsConfigured() bool
	QueuePrompt(ctx context.Context, workflow map[string]any, clientID string) (string, error)
	WaitForCompletion(ctx context.Context, promptID string) (comfyui.ImageRef, error)
	DownloadImage(ctx context.Context, ref comfyui.ImageRef) ([]byte, error)
}

// Generator produce los sprites de una mascota y los deja en el store.
// Sin backend configurado cae a placeholders planos, así los endpoints
// de imagen siguen funcionando en dev.
type Generator struct {
	backend Backend
	store   imagestore.Store
	log     logger.Logger
}

func NewGenerator(backend Backend, store imagestore.Store, log logger.Logger) *Generator {
	return &Generator{backend: backend, store: store, log: log}
}

// GenerateStage genera (o fabrica el placeholder de) un stage y lo sube
// junto con su thumbnail. Retorna el object path del sprite.
func (g *Generator) GenerateStage(ctx context.Context, owner, repo string, stage pets.Stage) (string, error) {
	data, err := g.renderStage(ctx, owner, repo, stage)
	if err != nil {
		return "", err
	}

	path, err := g.store.Put(ctx, owner, repo, string(stage), data)
	if err != nil {
		return "", fmt.Errorf("artwork: store %s/%s stage %s: %w", owner, repo, stage, err)
	}

	if thumb, err := makeThumbnail(data); err != nil {
		// el sprite ya quedó guardado; el thumb es secundario
		g.log.Warn("thumbnail_failed", map[string]any{
			"repo":  owner + "/" + repo,
			"stage": string(stage),
			"error": err.Error(),
		})
	} else if _, err := g.store.Put(ctx, owner, repo, string(stage)+"_thumb", thumb); err != nil {
		g.log.Warn("thumbnail_store_failed", map[string]any{
			"repo":  owner + "/" + repo,
			"stage": string(stage),
			"error": err.Error(),
		})
	}

	return path, nil
}

// GenerateAllStages genera los seis stages en orden.
func (g *Generator) GenerateAllStages(ctx context.Context, owner, repo string) (map[string]string, error) {
	paths := make(map[string]string, len(pets.Stages))
	for _, stage := range pets.Stages {
		p, err := g.GenerateStage(ctx, owner, repo, stage)
		if err != nil {
			return paths, err
		}
		paths[string(stage)] = p
	}

	g.log.Info("all_stage_images_generated", map[string]any{
		"repo":   owner + "/" + repo,
		"stages": len(paths),
	})
	return paths, nil
}

// GetOrGenerate sirve la imagen cacheada si existe; si no, la genera.
func (g *Generator) GetOrGenerate(ctx context.Context, owner, repo string, stage pets.Stage) ([]byte, error) {
	existing, err := g.store.Get(ctx, owner, repo, string(stage))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, imagestore.ErrNotFound) {
		return nil, err
	}

	data, err := g.renderStage(ctx, owner, repo, stage)
	if err != nil {
		return nil, err
	}
	if _, err := g.store.Put(ctx, owner, repo, string(stage), data); err != nil {
		return nil, err
	}
	return data, nil
}

// Regenerate borra lo guardado y genera todo de nuevo.
func (g *Generator) Regenerate(ctx context.Context, owner, repo string) (map[string]string, error) {
	if err := g.store.DeleteAll(ctx, owner, repo); err != nil {
		return nil, err
	}
	return g.GenerateAllStages(ctx, owner, repo)
}

func (g *Generator) renderStage(ctx context.Context, owner, repo string, stage pets.Stage) ([]byte, error) {
	if g.backend == nil || !g.backend.IsConfigured() {
		return placeholderPNG(owner, repo)
	}

	workflow := BuildWorkflow(owner, repo, stage)
	clientID := fmt.Sprintf("%s_%s_%s", owner, repo, stage)

	g.log.Info("queueing_image_generation", map[string]any{
		"repo":  owner + "/" + repo,
		"stage": string(stage),
	})

	promptID, err := g.backend.QueuePrompt(ctx, workflow, clientID)
	if err != nil {
		return nil, err
	}

	ref, err := g.backend.WaitForCompletion(ctx, promptID)
	if err != nil {
		return nil, err
	}

	data, err := g.backend.DownloadImage(ctx, ref)
	if err != nil {
		return nil, err
	}

	g.log.Info("image_generated", map[string]any{
		"repo":  owner + "/" + repo,
		"stage": string(stage),
		"bytes": len(data),
	})
	return data, nil
}

// placeholderPNG: sprite plano con el color determinístico del repo.
func placeholderPNG(owner, repo string) ([]byte, error) {
	c := placeholderColor(AppearanceFor(owner, repo).Color)
	img := imaging.New(spriteSize, spriteSize, c)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("artwork: encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func makeThumbnail(pngData []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	thumb := imaging.Thumbnail(src, thumbnailSize, thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

var placeholderPalette = map[string]color.NRGBA{
	"blue":     {70, 130, 220, 255},
	"pink":     {240, 140, 190, 255},
	"green":    {90, 190, 110, 255},
	"purple":   {150, 100, 210, 255},
	"orange":   {240, 150, 60, 255},
	"yellow":   {240, 210, 80, 255},
	"teal":     {60, 180, 180, 255},
	"red":      {220, 80, 80, 255},
	"lavender": {190, 170, 230, 255},
	"mint":     {160, 230, 190, 255},
}

func placeholderColor(name string) color.NRGBA {
	if c, ok := placeholderPalette[name]; ok {
		return c
	}
	return color.NRGBA{200, 200, 200, 255}
}
