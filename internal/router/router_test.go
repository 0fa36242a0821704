package router_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github-tamagotchi/internal/adapters/objectstore"
	"github-tamagotchi/internal/adapters/queue"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/router"
)

const webhookSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *objectstore.MemoryStore) {
	t.Helper()

	store := objectstore.NewMemory()
	handler, _ := router.NewRouter(router.Options{
		Log:           logger.New(logger.Options{Level: logger.Error}),
		Store:         store,
		Queue:         queue.NewMemory(),
		WebhookSecret: webhookSecret,
		Version:       "test",
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func doReq(t *testing.T, baseURL, method, path string, body any, headers map[string]string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func createPet(t *testing.T, baseURL, owner, repo, name string) map[string]any {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/api/v1/pets", map[string]any{
		"repo_owner": owner,
		"repo_name":  repo,
		"name":       name,
	}, nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 creating pet, got %d body=%s", st, string(body))
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal pet: %v", err)
	}
	return out
}

func signPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHTTP_EndToEnd_PetLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	// 1) Registrar mascota
	pet := createPet(t, ts.URL, "octocat", "hello-world", "Mochi")
	if pet["stage"] != "egg" || pet["mood"] != "content" {
		t.Fatalf("expected egg/content initial state, got %v/%v", pet["stage"], pet["mood"])
	}
	if pet["health"].(float64) != 100 {
		t.Fatalf("expected health 100, got %v", pet["health"])
	}

	// 2) Duplicado => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/pets", map[string]any{
			"repo_owner": "octocat", "repo_name": "hello-world", "name": "Otro",
		}, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for duplicate, got %d", st)
		}
	}

	// 3) Body inválido => 422
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/pets", map[string]any{
			"repo_owner": "", "repo_name": "x", "name": "y",
		}, nil)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for blank owner, got %d", st)
		}
	}

	// 4) Get por repo
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world", nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
	}

	// 5) Feed
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/pets/octocat/hello-world/feed", nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 feed, got %d body=%s", st, string(body))
		}
		var fed map[string]any
		_ = json.Unmarshal(body, &fed)
		if fed["last_fed_at"] == nil {
			t.Fatalf("expected last_fed_at after feed")
		}
	}

	// 6) Characteristics determinísticas
	var seed1 float64
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world/characteristics", nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 characteristics, got %d body=%s", st, string(body))
		}
		var out map[string]any
		_ = json.Unmarshal(body, &out)
		seed1 = out["seed"].(float64)
		stages := out["stages"].([]any)
		if len(stages) != 6 {
			t.Fatalf("expected 6 stage prompts, got %d", len(stages))
		}
	}
	{
		_, body := doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world/characteristics", nil, nil)
		var out map[string]any
		_ = json.Unmarshal(body, &out)
		if out["seed"].(float64) != seed1 {
			t.Fatalf("expected stable seed across calls")
		}
	}

	// 7) Delete y 404 posterior
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/api/v1/pets/octocat/hello-world", nil, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world", nil, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}
}

func TestHTTP_Pagination(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, repo := range []string{"r1", "r2", "r3"} {
		createPet(t, ts.URL, "octocat", repo, repo)
	}

	st, body := doReq(t, ts.URL, "GET", "/api/v1/pets?page=2&page_size=2", nil, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var out struct {
		Items    []map[string]any `json:"items"`
		Page     int              `json:"page"`
		PageSize int              `json:"page_size"`
		Total    int              `json:"total"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if out.Total != 3 || out.Page != 2 || len(out.Items) != 1 {
		t.Fatalf("expected page 2 with 1 of 3 items, got %+v", out)
	}

	// page inválida => 422
	st, _ = doReq(t, ts.URL, "GET", "/api/v1/pets?page=0", nil, nil)
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for page=0, got %d", st)
	}
	st, _ = doReq(t, ts.URL, "GET", "/api/v1/pets?page_size=500", nil, nil)
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for page_size=500, got %d", st)
	}
}

func TestHTTP_ImageEndpoints(t *testing.T) {
	ts, store := newTestServer(t)
	createPet(t, ts.URL, "octocat", "hello-world", "Mochi")

	// 1) Imagen todavía no generada => 404
	{
		st, _ := doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world/image", nil, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 before generation, got %d", st)
		}
	}

	// 2) Stage inválido => 422
	{
		st, _ := doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world/image?stage=dinosaur", nil, nil)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for bad stage, got %d", st)
		}
	}

	// 3) Con imagen en el store se sirve el PNG
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n'}
	if _, err := store.Put(context.Background(), "octocat", "hello-world", "egg", png); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	{
		req, _ := http.NewRequest("GET", ts.URL+"/api/v1/pets/octocat/hello-world/image", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("get image: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 serving image, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Fatalf("expected image/png, got %q", ct)
		}
		data, _ := io.ReadAll(resp.Body)
		if !bytes.Equal(data, png) {
			t.Fatalf("served bytes differ from stored")
		}
	}

	// 4) Encolar generación => 202 con job consultable
	var jobID string
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/pets/octocat/hello-world/images",
			map[string]any{"stage": "baby"}, nil)
		if st != http.StatusAccepted {
			t.Fatalf("expected 202 enqueue, got %d body=%s", st, string(body))
		}
		var job map[string]any
		_ = json.Unmarshal(body, &job)
		if job["status"] != "pending" || job["stage"] != "baby" {
			t.Fatalf("unexpected job: %v", job)
		}
		jobID = job["id"].(string)
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/jobs/"+jobID, nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 job status, got %d body=%s", st, string(body))
		}
	}

	// 5) Stage inválido al encolar => 422
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/pets/octocat/hello-world/images",
			map[string]any{"stage": "dinosaur"}, nil)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for bad enqueue stage, got %d", st)
		}
	}

	// 6) Stats de cola
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/admin/queue/stats", nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 stats, got %d", st)
		}
		var stats map[string]int
		_ = json.Unmarshal(body, &stats)
		if stats["pending"] != 1 {
			t.Fatalf("expected 1 pending job, got %v", stats)
		}
	}
}

func TestHTTP_Webhooks(t *testing.T) {
	ts, _ := newTestServer(t)
	createPet(t, ts.URL, "octocat", "hello-world", "Mochi")

	payload := []byte(`{"repository":{"name":"hello-world","owner":{"login":"octocat"}}}`)

	// firma inválida => 401
	{
		req, _ := http.NewRequest("POST", ts.URL+"/api/v1/webhooks/github", bytes.NewReader(payload))
		req.Header.Set("X-GitHub-Event", "push")
		req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("post webhook: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 bad signature, got %d", resp.StatusCode)
		}
	}

	// firma válida => 200 y la mascota cambia
	{
		req, _ := http.NewRequest("POST", ts.URL+"/api/v1/webhooks/github", bytes.NewReader(payload))
		req.Header.Set("X-GitHub-Event", "push")
		req.Header.Set("X-Hub-Signature-256", signPayload(payload))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("post webhook: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 signed webhook, got %d", resp.StatusCode)
		}

		st, body := doReq(t, ts.URL, "GET", "/api/v1/pets/octocat/hello-world", nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d", st)
		}
		var pet map[string]any
		_ = json.Unmarshal(body, &pet)
		if pet["experience"].(float64) != 20 {
			t.Fatalf("expected +20 exp from push, got %v", pet["experience"])
		}
		if pet["mood"] != "happy" {
			t.Fatalf("expected happy after push, got %v", pet["mood"])
		}
	}
}

func TestHTTP_Tools(t *testing.T) {
	ts, _ := newTestServer(t)

	// register_pet por la superficie de tools
	{
		st, body := doReq(t, ts.URL, "POST", "/mcp/tools/register_pet", map[string]any{
			"repo_owner": "octocat", "repo_name": "hello-world", "name": "Mochi",
		}, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 tool call, got %d body=%s", st, string(body))
		}
		var out map[string]any
		_ = json.Unmarshal(body, &out)
		if out["error"] != nil {
			t.Fatalf("unexpected tool error: %v", out["error"])
		}
		if out["result"] == nil {
			t.Fatalf("expected result payload")
		}
	}

	// errores van dentro del envelope con 200
	{
		st, body := doReq(t, ts.URL, "POST", "/mcp/tools/feed_pet", map[string]any{
			"repo_owner": "nobody", "repo_name": "nothing",
		}, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 with embedded error, got %d", st)
		}
		var out map[string]any
		_ = json.Unmarshal(body, &out)
		if out["error"] == nil {
			t.Fatalf("expected embedded error for missing pet, body=%s", string(body))
		}
	}

	// tool desconocida => 404
	{
		st, _ := doReq(t, ts.URL, "POST", "/mcp/tools/do_magic", nil, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 unknown tool, got %d", st)
		}
	}

	// list_pets sin body
	{
		st, body := doReq(t, ts.URL, "POST", "/mcp/tools/list_pets", nil, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list_pets, got %d", st)
		}
		var out struct {
			Result struct {
				Total int `json:"total"`
			} `json:"result"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("unmarshal tool result: %v", err)
		}
		if out.Result.Total != 1 {
			t.Fatalf("expected 1 pet, got %d", out.Result.Total)
		}
	}
}

func TestHTTP_HealthAndLanding(t *testing.T) {
	ts, _ := newTestServer(t)

	st, body := doReq(t, ts.URL, "GET", "/api/v1/health", nil, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
	var out map[string]any
	_ = json.Unmarshal(body, &out)
	if out["status"] != "ok" || out["database"] != "memory" || out["version"] != "test" {
		t.Fatalf("unexpected health payload: %v", out)
	}

	st, body = doReq(t, ts.URL, "GET", "/", nil, nil)
	if st != http.StatusOK || !bytes.Contains(body, []byte("Tamagotchi")) {
		t.Fatalf("expected landing page, got %d", st)
	}
}
