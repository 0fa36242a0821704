package comfyui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler, timeout time.Duration) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{
		URL:          ts.URL,
		Timeout:      timeout,
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestQueuePrompt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		fmt.Fprint(w, `{"prompt_id":"abc-123"}`)
	})

	c := newTestClient(t, mux, time.Second)

	id, err := c.QueuePrompt(context.Background(), map[string]any{"3": "nodes"}, "client-1")
	if err != nil {
		t.Fatalf("QueuePrompt error: %v", err)
	}
	if id != "abc-123" {
		t.Fatalf("expected prompt id abc-123, got %q", id)
	}
}

func TestQueuePrompt_SendsCFAccessHeaders(t *testing.T) {
	var gotID, gotSecret string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("CF-Access-Client-Id")
		gotSecret = r.Header.Get("CF-Access-Client-Secret")
		fmt.Fprint(w, `{"prompt_id":"abc"}`)
	}))
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{
		URL:                  ts.URL,
		CFAccessClientID:     "cf-id",
		CFAccessClientSecret: "cf-secret",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if _, err := c.QueuePrompt(context.Background(), map[string]any{}, "x"); err != nil {
		t.Fatalf("QueuePrompt error: %v", err)
	}
	if gotID != "cf-id" || gotSecret != "cf-secret" {
		t.Fatalf("expected CF Access headers, got id=%q secret=%q", gotID, gotSecret)
	}
}

func TestWaitForCompletion_PollsUntilDone(t *testing.T) {
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/history/abc", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			fmt.Fprint(w, `{}`) // todavía no aparece en history
			return
		}
		fmt.Fprint(w, `{"abc":{"status":{"completed":true,"status_str":"success"},
			"outputs":{"9":{"images":[{"filename":"out.png","subfolder":"","type":"output"}]}}}}`)
	})

	c := newTestClient(t, mux, 2*time.Second)

	ref, err := c.WaitForCompletion(context.Background(), "abc")
	if err != nil {
		t.Fatalf("WaitForCompletion error: %v", err)
	}
	if ref.Filename != "out.png" {
		t.Fatalf("expected out.png, got %q", ref.Filename)
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", calls.Load())
	}
}

func TestWaitForCompletion_GenerationError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/history/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"abc":{"status":{"completed":false,"status_str":"error"}}}`)
	})

	c := newTestClient(t, mux, time.Second)

	_, err := c.WaitForCompletion(context.Background(), "abc")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestWaitForCompletion_Timeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/history/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`) // nunca termina
	})

	c := newTestClient(t, mux, 50*time.Millisecond)

	_, err := c.WaitForCompletion(context.Background(), "abc")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestDownloadImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}

	mux := http.NewServeMux()
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filename") != "out.png" {
			t.Errorf("expected filename query, got %q", r.URL.Query().Get("filename"))
		}
		if r.URL.Query().Get("type") != "output" {
			t.Errorf("expected type=output default, got %q", r.URL.Query().Get("type"))
		}
		_, _ = w.Write(png)
	})

	c := newTestClient(t, mux, time.Second)

	data, err := c.DownloadImage(context.Background(), ImageRef{Filename: "out.png"})
	if err != nil {
		t.Fatalf("DownloadImage error: %v", err)
	}
	if string(data) != string(png) {
		t.Fatalf("unexpected bytes: %v", data)
	}
}

func TestCheckHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/system_stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"devices":[{"type":"cuda"}],"exec_info":{"queue_remaining":2}}`)
	})

	c := newTestClient(t, mux, time.Second)

	st := c.CheckHealth(context.Background())
	if !st.Available {
		t.Fatalf("expected available")
	}
	if st.QueueRemaining == nil || *st.QueueRemaining != 2 {
		t.Fatalf("expected queue_remaining=2, got %v", st.QueueRemaining)
	}
	if st.CUDAAvailable == nil || !*st.CUDAAvailable {
		t.Fatalf("expected cuda available")
	}
}

func TestCheckHealth_DownBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{URL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if st := c.CheckHealth(context.Background()); st.Available {
		t.Fatalf("expected unavailable on 502")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if c.IsConfigured() {
		t.Fatalf("expected unconfigured without URL")
	}
	if _, err := c.QueuePrompt(context.Background(), nil, "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
