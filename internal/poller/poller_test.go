package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	mem "github-tamagotchi/internal/adapters/storage/memory"
	"github-tamagotchi/internal/domain/pets"
	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
	"github-tamagotchi/internal/ports/repostats"
)

// fakeFetcher responde por repo; repos no listados dan error genérico.
type fakeFetcher struct {
	byRepo map[string]repostats.RepoHealth
	errAt  map[string]error
	calls  []string
}

func (f *fakeFetcher) GetRepoHealth(ctx context.Context, owner, repo string) (repostats.RepoHealth, error) {
	key := owner + "/" + repo
	f.calls = append(f.calls, key)
	if err, ok := f.errAt[key]; ok {
		return repostats.RepoHealth{}, err
	}
	if h, ok := f.byRepo[key]; ok {
		return h, nil
	}
	return repostats.RepoHealth{}, errors.New("unknown repo")
}

type busRecorder struct {
	published []events.Event
}

func (b *busRecorder) Publish(ctx context.Context, ev events.Event) error {
	b.published = append(b.published, ev)
	return nil
}

func (b *busRecorder) Close() error { return nil }

func testLog() logger.Logger {
	return logger.New(logger.Options{Level: logger.Error})
}

func seedPets(t *testing.T, svc *pets.Service, repos ...string) {
	t.Helper()
	for _, r := range repos {
		if _, err := svc.Register(context.Background(), pets.RegisterInput{
			RepoOwner: "octocat", RepoName: r, Name: r,
		}); err != nil {
			t.Fatalf("seed %s error: %v", r, err)
		}
	}
}

func TestRunCycle_UpdatesPets(t *testing.T) {
	petSvc := pets.NewService(mem.NewPetRepo())
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	petSvc.WithClock(func() time.Time { return now })

	seedPets(t, petSvc, "repo-a")

	commitAt := now.Add(-1 * time.Hour)
	ci := true
	fetcher := &fakeFetcher{byRepo: map[string]repostats.RepoHealth{
		"octocat/repo-a": {LastCommitAt: &commitAt, LastCISuccess: &ci},
	}}
	bus := &busRecorder{}

	p := New(petSvc, fetcher, bus, testLog(), time.Minute)
	p.RunCycle(context.Background())

	got, err := petSvc.GetByRepo(context.Background(), "octocat", "repo-a")
	if err != nil {
		t.Fatalf("get pet error: %v", err)
	}
	if got.Experience != 30 {
		t.Fatalf("expected exp 30 (+10 CI, +20 fresh commit), got %d", got.Experience)
	}
	if got.Mood != pets.MoodDancing {
		t.Fatalf("expected dancing, got %s", got.Mood)
	}
	if got.LastCheckedAt == nil || !got.LastCheckedAt.Equal(now) {
		t.Fatalf("expected LastCheckedAt stamped")
	}
	if got.LastFedAt == nil {
		t.Fatalf("expected LastFedAt stamped on fresh commit")
	}
}

func TestRunCycle_SkipsFailingPet(t *testing.T) {
	petSvc := pets.NewService(mem.NewPetRepo())
	seedPets(t, petSvc, "repo-a", "repo-b")

	ci := true
	fetcher := &fakeFetcher{
		byRepo: map[string]repostats.RepoHealth{
			"octocat/repo-a": {LastCISuccess: &ci},
			"octocat/repo-b": {LastCISuccess: &ci},
		},
		errAt: map[string]error{"octocat/repo-a": errors.New("boom")},
	}

	p := New(petSvc, fetcher, &busRecorder{}, testLog(), time.Minute)
	p.RunCycle(context.Background())

	// repo-b se procesó igual
	got, _ := petSvc.GetByRepo(context.Background(), "octocat", "repo-b")
	if got.Experience != 10 {
		t.Fatalf("expected repo-b processed despite repo-a failure, exp=%d", got.Experience)
	}
}

func TestRunCycle_RateLimitAbortsCycle(t *testing.T) {
	petSvc := pets.NewService(mem.NewPetRepo())
	seedPets(t, petSvc, "repo-a", "repo-b", "repo-c")

	fetcher := &fakeFetcher{
		byRepo: map[string]repostats.RepoHealth{},
		errAt:  map[string]error{"octocat/repo-a": &repostats.RateLimitError{}},
	}

	p := New(petSvc, fetcher, &busRecorder{}, testLog(), time.Minute)
	p.RunCycle(context.Background())

	// el primer fetch corta el ciclo: nadie más se consulta
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected 1 fetch before abort, got %d: %v", len(fetcher.calls), fetcher.calls)
	}
}

func TestRunCycle_PublishesEvolution(t *testing.T) {
	petSvc := pets.NewService(mem.NewPetRepo())
	seedPets(t, petSvc, "repo-a")

	// dejar a la mascota al borde de evolucionar
	seeded, _ := petSvc.GetByRepo(context.Background(), "octocat", "repo-a")
	seeded.Experience = 95
	if err := petSvc.SavePet(context.Background(), seeded); err != nil {
		t.Fatalf("seed save error: %v", err)
	}

	ci := true
	fetcher := &fakeFetcher{byRepo: map[string]repostats.RepoHealth{
		"octocat/repo-a": {LastCISuccess: &ci}, // +10 exp => 105, cruza 100
	}}
	bus := &busRecorder{}

	p := New(petSvc, fetcher, bus, testLog(), time.Minute)
	p.RunCycle(context.Background())

	got, _ := petSvc.GetByRepo(context.Background(), "octocat", "repo-a")
	if got.Stage != pets.StageBaby {
		t.Fatalf("expected evolution to baby, got %s", got.Stage)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	ev := bus.published[0]
	if ev.Type != events.TypePetEvolved {
		t.Fatalf("expected pet_evolved, got %s", ev.Type)
	}
	if ev.Data["from"] != "egg" || ev.Data["to"] != "baby" {
		t.Fatalf("unexpected event data: %#v", ev.Data)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	petSvc := pets.NewService(mem.NewPetRepo())
	fetcher := &fakeFetcher{byRepo: map[string]repostats.RepoHealth{}}

	p := New(petSvc, fetcher, &busRecorder{}, testLog(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop on cancel")
	}
}
