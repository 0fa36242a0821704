package artwork

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github-tamagotchi/internal/adapters/comfyui"
	"github-tamagotchi/internal/adapters/objectstore"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
)

func testLog() logger.Logger {
	return logger.New(logger.Options{Level: logger.Error})
}

// fakeBackend simula ComfyUI devolviendo siempre el mismo PNG.
type fakeBackend struct {
	configured bool
	png        []byte
	queued     int
	failQueue  bool
}

func (b *fakeBackend) IsConfigured() bool { return b.configured }

func (b *fakeBackend) QueuePrompt(ctx context.Context, workflow map[string]any, clientID string) (string, error) {
	if b.failQueue {
		return "", errors.New("comfyui down")
	}
	b.queued++
	return "prompt-1", nil
}

func (b *fakeBackend) WaitForCompletion(ctx context.Context, promptID string) (comfyui.ImageRef, error) {
	return comfyui.ImageRef{Filename: "out.png", Type: "output"}, nil
}

func (b *fakeBackend) DownloadImage(ctx context.Context, ref comfyui.ImageRef) ([]byte, error) {
	return b.png, nil
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{10, 20, 30, 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestGenerator_PlaceholderWithoutBackend(t *testing.T) {
	store := objectstore.NewMemory()
	gen := NewGenerator(nil, store, testLog())

	path, err := gen.GenerateStage(context.Background(), "octocat", "hello-world", pets.StageEgg)
	if err != nil {
		t.Fatalf("GenerateStage error: %v", err)
	}
	if path != "pets/octocat/hello-world/egg.png" {
		t.Fatalf("unexpected path: %q", path)
	}

	data, err := store.Get(context.Background(), "octocat", "hello-world", "egg")
	if err != nil {
		t.Fatalf("stored sprite missing: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored sprite is not a decodable image: %v", err)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 512 {
		t.Fatalf("expected 512x512 placeholder, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// thumbnail al lado
	thumb, err := store.Get(context.Background(), "octocat", "hello-world", "egg_thumb")
	if err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
	timg, err := imaging.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail not decodable: %v", err)
	}
	if timg.Bounds().Dx() != 128 || timg.Bounds().Dy() != 128 {
		t.Fatalf("expected 128x128 thumbnail, got %dx%d", timg.Bounds().Dx(), timg.Bounds().Dy())
	}
}

func TestGenerator_BackendPath(t *testing.T) {
	store := objectstore.NewMemory()
	backend := &fakeBackend{configured: true, png: encodePNG(t, 512, 512)}
	gen := NewGenerator(backend, store, testLog())

	if _, err := gen.GenerateStage(context.Background(), "octocat", "hello-world", pets.StageBaby); err != nil {
		t.Fatalf("GenerateStage error: %v", err)
	}
	if backend.queued != 1 {
		t.Fatalf("expected 1 prompt queued, got %d", backend.queued)
	}

	data, err := store.Get(context.Background(), "octocat", "hello-world", "baby")
	if err != nil {
		t.Fatalf("stored sprite missing: %v", err)
	}
	if !bytes.Equal(data, backend.png) {
		t.Fatalf("stored sprite differs from backend output")
	}
}

func TestGenerator_GenerateAllStages(t *testing.T) {
	store := objectstore.NewMemory()
	gen := NewGenerator(nil, store, testLog())

	paths, err := gen.GenerateAllStages(context.Background(), "octocat", "hello-world")
	if err != nil {
		t.Fatalf("GenerateAllStages error: %v", err)
	}
	if len(paths) != len(pets.Stages) {
		t.Fatalf("expected %d paths, got %d", len(pets.Stages), len(paths))
	}

	stages, err := store.ListStages(context.Background(), "octocat", "hello-world")
	if err != nil {
		t.Fatalf("ListStages error: %v", err)
	}
	if len(stages) != len(pets.Stages) {
		t.Fatalf("expected %d stored stages (thumbs excluded), got %d: %v",
			len(pets.Stages), len(stages), stages)
	}
}

func TestGenerator_GetOrGenerate_UsesCache(t *testing.T) {
	store := objectstore.NewMemory()
	backend := &fakeBackend{configured: true, png: encodePNG(t, 512, 512)}
	gen := NewGenerator(backend, store, testLog())

	first, err := gen.GetOrGenerate(context.Background(), "octocat", "hello-world", pets.StageEgg)
	if err != nil {
		t.Fatalf("GetOrGenerate #1 error: %v", err)
	}

	// segunda llamada: el backend no se toca
	backend.failQueue = true
	second, err := gen.GetOrGenerate(context.Background(), "octocat", "hello-world", pets.StageEgg)
	if err != nil {
		t.Fatalf("GetOrGenerate #2 error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected cached bytes")
	}
	if backend.queued != 1 {
		t.Fatalf("expected backend hit exactly once, got %d", backend.queued)
	}
}

func TestGenerator_Regenerate_ClearsFirst(t *testing.T) {
	store := objectstore.NewMemory()
	gen := NewGenerator(nil, store, testLog())

	// sembrar un sprite viejo con bytes reconocibles
	old := encodePNG(t, 64, 64)
	if _, err := store.Put(context.Background(), "octocat", "hello-world", "egg", old); err != nil {
		t.Fatalf("seed put error: %v", err)
	}

	if _, err := gen.Regenerate(context.Background(), "octocat", "hello-world"); err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}

	data, err := store.Get(context.Background(), "octocat", "hello-world", "egg")
	if err != nil {
		t.Fatalf("regenerated sprite missing: %v", err)
	}
	if bytes.Equal(data, old) {
		t.Fatalf("expected old sprite replaced")
	}
}
