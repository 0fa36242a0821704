package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github-tamagotchi/internal/platform/httpclient"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/repostats"
)

const (
	defaultBaseURL = "https://api.github.com"
	acceptHeader   = "application/vnd.github.v3+json"
)

type Config struct {
	Token   string
	BaseURL string // override para tests
	Timeout time.Duration
}

// Client implementa repostats.HealthFetcher contra la API REST de GitHub.
type Client struct {
	http *httpclient.Client
	cfg  Config
	log  logger.Logger
}

func New(cfg Config, log logger.Logger) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("githubapi: %w", err)
	}
	return &Client{
		http: hc,
		cfg:  cfg,
		log:  log.With(map[string]any{"component": "githubapi"}),
	}, nil
}

func (c *Client) headers() map[string]string {
	h := map[string]string{
		"Accept": acceptHeader,
	}
	if strings.TrimSpace(c.cfg.Token) != "" {
		h["Authorization"] = "Bearer " + c.cfg.Token
	}
	return h
}

type commitEntry struct {
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type pullEntry struct {
	CreatedAt time.Time `json:"created_at"`
}

type issueEntry struct {
	CreatedAt   time.Time       `json:"created_at"`
	PullRequest *map[string]any `json:"pull_request,omitempty"`
}

type repoInfo struct {
	DefaultBranch string `json:"default_branch"`
}

type combinedStatus struct {
	State      string `json:"state"` // success | failure | pending
	TotalCount int    `json:"total_count"`
}

// GetRepoHealth junta las métricas del repo. Cada endpoint que falla
// degrada su métrica a nil/cero en vez de tumbar todo el chequeo; la
// única excepción es el rate limit, que sube como *RateLimitError.
func (c *Client) GetRepoHealth(ctx context.Context, owner, repo string) (repostats.RepoHealth, error) {
	var h repostats.RepoHealth
	now := time.Now().UTC()

	lastCommit, err := c.fetchLastCommit(ctx, owner, repo)
	if err != nil {
		if rl := asRateLimit(err); rl != nil {
			return h, rl
		}
		c.log.Warn("commits fetch failed", logFields(owner, repo, err))
	} else {
		h.LastCommitAt = lastCommit
	}

	prCount, oldestPR, err := c.fetchOpenPulls(ctx, owner, repo, now)
	if err != nil {
		if rl := asRateLimit(err); rl != nil {
			return h, rl
		}
		c.log.Warn("pulls fetch failed", logFields(owner, repo, err))
	} else {
		h.OpenPRsCount = prCount
		h.OldestPRAgeHours = oldestPR
	}

	issueCount, oldestIssue, err := c.fetchOpenIssues(ctx, owner, repo, now)
	if err != nil {
		if rl := asRateLimit(err); rl != nil {
			return h, rl
		}
		c.log.Warn("issues fetch failed", logFields(owner, repo, err))
	} else {
		h.OpenIssuesCount = issueCount
		h.OldestIssueAgeDays = oldestIssue
	}

	ci, err := c.fetchCIStatus(ctx, owner, repo)
	if err != nil {
		if rl := asRateLimit(err); rl != nil {
			return h, rl
		}
		c.log.Warn("ci status fetch failed", logFields(owner, repo, err))
	} else {
		h.LastCISuccess = ci
	}

	// TODO: sondear dependabot para detectar dependencias viejas.
	h.HasStaleDeps = false

	return h, nil
}

func (c *Client) fetchLastCommit(ctx context.Context, owner, repo string) (*time.Time, error) {
	var commits []commitEntry
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=1", owner, repo)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &commits); err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}
	t := commits[0].Commit.Committer.Date
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}

func (c *Client) fetchOpenPulls(ctx context.Context, owner, repo string, now time.Time) (int, *float64, error) {
	var pulls []pullEntry
	path := fmt.Sprintf("/repos/%s/%s/pulls?state=open&per_page=100", owner, repo)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &pulls); err != nil {
		return 0, nil, err
	}
	if len(pulls) == 0 {
		return 0, nil, nil
	}

	oldest := pulls[0].CreatedAt
	for _, p := range pulls[1:] {
		if p.CreatedAt.Before(oldest) {
			oldest = p.CreatedAt
		}
	}
	age := now.Sub(oldest).Hours()
	return len(pulls), &age, nil
}

func (c *Client) fetchOpenIssues(ctx context.Context, owner, repo string, now time.Time) (int, *float64, error) {
	var issues []issueEntry
	path := fmt.Sprintf("/repos/%s/%s/issues?state=open&per_page=100", owner, repo)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &issues); err != nil {
		return 0, nil, err
	}

	// GitHub mezcla PRs en /issues; se filtran por el campo pull_request.
	var oldest *time.Time
	count := 0
	for _, is := range issues {
		if is.PullRequest != nil {
			continue
		}
		count++
		created := is.CreatedAt
		if oldest == nil || created.Before(*oldest) {
			oldest = &created
		}
	}
	if oldest == nil {
		return 0, nil, nil
	}
	age := now.Sub(*oldest).Hours() / 24
	return count, &age, nil
}

func (c *Client) fetchCIStatus(ctx context.Context, owner, repo string) (*bool, error) {
	var info repoInfo
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &info); err != nil {
		return nil, err
	}
	branch := info.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	var status combinedStatus
	path = fmt.Sprintf("/repos/%s/%s/commits/%s/status", owner, repo, branch)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, &status); err != nil {
		return nil, err
	}

	if status.TotalCount == 0 {
		return nil, nil // repo sin CI
	}
	switch status.State {
	case "success":
		v := true
		return &v, nil
	case "failure", "error":
		v := false
		return &v, nil
	default:
		return nil, nil // pending: todavía no sabemos
	}
}

// asRateLimit reconoce las respuestas 403/429 con remaining=0 de GitHub.
func asRateLimit(err error) *repostats.RateLimitError {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return nil
	}
	if httpErr.StatusCode != http.StatusForbidden && httpErr.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	if httpErr.Header.Get("X-RateLimit-Remaining") != "0" {
		return nil
	}

	rl := &repostats.RateLimitError{}
	if raw := httpErr.Header.Get("X-RateLimit-Reset"); raw != "" {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t := time.Unix(epoch, 0).UTC()
			rl.ResetAt = &t
		}
	}
	return rl
}

func logFields(owner, repo string, err error) map[string]any {
	return map[string]any{
		"owner": owner,
		"repo":  repo,
		"error": err.Error(),
	}
}
