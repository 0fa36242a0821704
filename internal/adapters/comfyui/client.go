package comfyui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github-tamagotchi/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("comfyui client not configured")
	ErrGeneration    = errors.New("comfyui generation failed")
	ErrTimeout       = errors.New("comfyui generation timed out")
)

// Config del cliente ComfyUI. El par CF Access es opcional (solo si el
// backend está detrás de Cloudflare Access).
type Config struct {
	URL                  string
	CFAccessClientID     string
	CFAccessClientSecret string

	// Timeout total de una generación (queue + sampling + download).
	Timeout time.Duration

	// Intervalo de polling sobre /history. Default 2s.
	PollInterval time.Duration
}

type Client struct {
	http         *httpclient.Client
	timeout      time.Duration
	pollInterval time.Duration

	cfAccessID     string
	cfAccessSecret string
}

func NewClient(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}

	base := strings.TrimSpace(cfg.URL)
	hc, err := httpclient.NewWithBaseURL(base, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("comfyui: %w", err)
	}

	return &Client{
		http:           hc,
		timeout:        timeout,
		pollInterval:   poll,
		cfAccessID:     strings.TrimSpace(cfg.CFAccessClientID),
		cfAccessSecret: strings.TrimSpace(cfg.CFAccessClientSecret),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

func (c *Client) headers() map[string]string {
	if c.cfAccessID == "" || c.cfAccessSecret == "" {
		return nil
	}
	return map[string]string{
		"CF-Access-Client-Id":     c.cfAccessID,
		"CF-Access-Client-Secret": c.cfAccessSecret,
	}
}

// QueuePrompt encola un workflow y retorna el prompt_id.
func (c *Client) QueuePrompt(ctx context.Context, workflow map[string]any, clientID string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var out struct {
		PromptID string `json:"prompt_id"`
	}
	err := c.http.DoJSON(ctx, "POST", "/prompt", c.headers(), map[string]any{
		"prompt":    workflow,
		"client_id": clientID,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("comfyui: queue prompt: %w", err)
	}
	if out.PromptID == "" {
		return "", fmt.Errorf("comfyui: empty prompt_id in response")
	}
	return out.PromptID, nil
}

// historyEntry: lo que miramos de /history/{prompt_id}.
type historyEntry struct {
	Status struct {
		Completed bool   `json:"completed"`
		StatusStr string `json:"status_str"`
	} `json:"status"`
	Outputs map[string]struct {
		Images []ImageRef `json:"images"`
	} `json:"outputs"`
}

// ImageRef identifica una imagen generada dentro del output de ComfyUI.
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// WaitForCompletion pollea /history hasta completed, error o timeout.
// Retorna la primera imagen del output.
func (c *Client) WaitForCompletion(ctx context.Context, promptID string) (ImageRef, error) {
	if !c.IsConfigured() {
		return ImageRef{}, ErrNotConfigured
	}

	deadline := time.Now().Add(c.timeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var history map[string]historyEntry
		err := c.http.DoJSON(ctx, "GET", "/history/"+url.PathEscape(promptID), c.headers(), nil, &history)
		if err != nil {
			return ImageRef{}, fmt.Errorf("comfyui: poll history: %w", err)
		}

		if entry, ok := history[promptID]; ok {
			if entry.Status.StatusStr == "error" {
				return ImageRef{}, fmt.Errorf("%w: status=%s", ErrGeneration, entry.Status.StatusStr)
			}
			if entry.Status.Completed {
				for _, node := range entry.Outputs {
					if len(node.Images) > 0 {
						return node.Images[0], nil
					}
				}
				return ImageRef{}, fmt.Errorf("%w: no images in output", ErrGeneration)
			}
		}

		if time.Now().After(deadline) {
			return ImageRef{}, fmt.Errorf("%w: after %s", ErrTimeout, c.timeout)
		}

		select {
		case <-ctx.Done():
			return ImageRef{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DownloadImage baja los bytes PNG de una imagen generada (/view).
func (c *Client) DownloadImage(ctx context.Context, ref ImageRef) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("filename", ref.Filename)
	q.Set("subfolder", ref.Subfolder)
	typ := ref.Type
	if typ == "" {
		typ = "output"
	}
	q.Set("type", typ)

	data, err := c.http.GetBytes(ctx, "/view?"+q.Encode(), c.headers())
	if err != nil {
		return nil, fmt.Errorf("comfyui: download image: %w", err)
	}
	return data, nil
}

// Status es el estado del backend según /system_stats.
type Status struct {
	Available      bool  `json:"available"`
	QueueRemaining *int  `json:"queue_remaining,omitempty"`
	CUDAAvailable  *bool `json:"cuda_available,omitempty"`
}

// CheckHealth pregunta por /system_stats. Nunca retorna error: un backend
// caído es un Status{Available: false}.
func (c *Client) CheckHealth(ctx context.Context) Status {
	if !c.IsConfigured() {
		return Status{Available: false}
	}

	var out struct {
		Devices []struct {
			Type string `json:"type"`
		} `json:"devices"`
		ExecInfo struct {
			QueueRemaining *int `json:"queue_remaining"`
		} `json:"exec_info"`
	}
	if err := c.http.DoJSON(ctx, "GET", "/system_stats", c.headers(), nil, &out); err != nil {
		return Status{Available: false}
	}

	st := Status{Available: true, QueueRemaining: out.ExecInfo.QueueRemaining}
	if len(out.Devices) > 0 {
		cuda := false
		for _, d := range out.Devices {
			if d.Type == "cuda" {
				cuda = true
				break
			}
		}
		st.CUDAAvailable = &cuda
	}
	return st
}
