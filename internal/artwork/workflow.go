package artwork

import (
	"fmt"

	"github-tamagotchi/internal/domain/pets"
)

const negativePrompt = "blurry, low quality, ugly, deformed, text, watermark"

// BuildWorkflow arma el grafo txt2img de ComfyUI (KSampler básico).
// La numeración de nodos sigue el formato del API de ComfyUI: ids string
// y referencias [id, output_index].
func BuildWorkflow(owner, repo string, stage pets.Stage) map[string]any {
	seed := SeedFrom(RepoHash(owner, repo))
	prompt := PromptFor(owner, repo, stage)

	return map[string]any{
		"3": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"cfg":          7.0,
				"denoise":      1.0,
				"latent_image": []any{"5", 0},
				"model":        []any{"4", 0},
				"negative":     []any{"7", 0},
				"positive":     []any{"6", 0},
				"sampler_name": "euler",
				"scheduler":    "normal",
				"seed":         seed,
				"steps":        20,
			},
		},
		"4": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs": map[string]any{
				"ckpt_name": "sd_xl_base_1.0.safetensors",
			},
		},
		"5": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs": map[string]any{
				"batch_size": 1,
				"height":     512,
				"width":      512,
			},
		},
		"6": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"clip": []any{"4", 1},
				"text": prompt,
			},
		},
		"7": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"clip": []any{"4", 1},
				"text": negativePrompt,
			},
		},
		"8": map[string]any{
			"class_type": "VAEDecode",
			"inputs": map[string]any{
				"samples": []any{"3", 0},
				"vae":     []any{"4", 2},
			},
		},
		"9": map[string]any{
			"class_type": "SaveImage",
			"inputs": map[string]any{
				"filename_prefix": fmt.Sprintf("tamagotchi_%s_%s_%s", owner, repo, stage),
				"images":          []any{"8", 0},
			},
		},
	}
}
