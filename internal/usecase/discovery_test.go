package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"CompetitorScanner/internal/discovery"
	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/infrastructure/kvstore"
	"CompetitorScanner/internal/ports"
	"CompetitorScanner/internal/runstate"
)

type fakeStrategy struct {
	pool        []domain.FollowerRecord
	baselineErr error
	examine     func(c domain.FollowerRecord) (*domain.Competitor, error)
	threshold   float64
	examined    []string
}

func (f *fakeStrategy) Name() string          { return "fake" }
func (f *fakeStrategy) Method() domain.Method { return domain.MethodFollowingOverlap }

func (f *fakeStrategy) Baseline(_ context.Context, cfg domain.RunConfig) (*discovery.Baseline, error) {
	if f.baselineErr != nil {
		return nil, f.baselineErr
	}
	return &discovery.Baseline{Pool: f.pool, Config: cfg}, nil
}

func (f *fakeStrategy) Examine(_ context.Context, _ *discovery.Baseline, c domain.FollowerRecord) (*domain.Competitor, error) {
	f.examined = append(f.examined, c.Username)
	return f.examine(c)
}

func (f *fakeStrategy) HighQuality(c domain.Competitor) bool {
	return c.OverlapPercentage >= f.threshold
}

func (f *fakeStrategy) Metric(c domain.Competitor) float64 { return c.OverlapPercentage }

func scoredCompetitor(username string, pct float64) *domain.Competitor {
	return &domain.Competitor{
		Username:          username,
		OverlapPercentage: pct,
		CommonAccounts:    []string{},
		DiscoveredAt:      time.Now().UTC(),
		Method:            domain.MethodFollowingOverlap,
	}
}

func recordPool(usernames ...string) []domain.FollowerRecord {
	pool := make([]domain.FollowerRecord, 0, len(usernames))
	for _, u := range usernames {
		pool = append(pool, domain.FollowerRecord{Username: u})
	}
	return pool
}

func newTestRig(strategy discovery.Strategy) (*Orchestrator, *kvstore.Memory, *runstate.Tracker) {
	store := kvstore.NewMemory()
	tracker := runstate.NewTracker(store, nil)
	registry := discovery.NewRegistry()
	registry.Register(strategy)
	orch := NewOrchestrator(OrchestratorDeps{Registry: registry, Store: store, Tracker: tracker})
	orch.limiter = rate.NewLimiter(rate.Inf, 1)
	return orch, store, tracker
}

func runConfig(target string) domain.RunConfig {
	return domain.RunConfig{
		TargetHandle: target,
		Strategy:     domain.Method("fake"),
	}
}

func storedSnapshot(t *testing.T, store *kvstore.Memory, account string) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	ns := ports.Namespace{AccountID: account, Category: ports.CategorySocialGraph}
	require.NoError(t, store.Get(context.Background(), ns, ports.KeyLatest, &snap))
	return snap
}

func TestRunRanksDescending(t *testing.T) {
	t.Parallel()

	scores := map[string]float64{"ana": 10, "bea": 30, "cam": 20}
	strategy := &fakeStrategy{
		pool: recordPool("ana", "bea", "cam"),
		examine: func(c domain.FollowerRecord) (*domain.Competitor, error) {
			return scoredCompetitor(c.Username, scores[c.Username]), nil
		},
		threshold: 25,
	}
	orch, store, _ := newTestRig(strategy)

	result, err := orch.Run(context.Background(), runConfig("nia"))
	require.NoError(t, err)
	require.Equal(t, domain.StatusComplete, result.Status)

	snap := result.Snapshot
	require.Equal(t, 3, snap.AnalyzedCount)
	var order []string
	for _, c := range snap.AllCompetitorsRaw {
		order = append(order, c.Username)
	}
	assert.Equal(t, []string{"bea", "cam", "ana"}, order)
	assert.Len(t, snap.TopCompetitors, 3)
	assert.Equal(t, 1, snap.HighQualityCount)
	assert.Equal(t, domain.MethodFollowingOverlap, snap.Method)

	stored := storedSnapshot(t, store, "nia")
	assert.Equal(t, snap.AnalyzedCount, stored.AnalyzedCount)
	assert.Equal(t, "bea", stored.AllCompetitorsRaw[0].Username)

	var profile domain.Competitor
	ns := ports.Namespace{AccountID: "nia", Category: ports.CategoryProfiles}
	require.NoError(t, store.Get(context.Background(), ns, "cam", &profile))
	assert.Equal(t, 20.0, profile.OverlapPercentage)
}

func TestRunCancellationStopsBeforeNextCandidate(t *testing.T) {
	t.Parallel()

	var tracker *runstate.Tracker
	strategy := &fakeStrategy{
		pool: recordPool("c1", "c2", "c3", "c4", "c5"),
	}
	strategy.examine = func(c domain.FollowerRecord) (*domain.Competitor, error) {
		if c.Username == "c2" {
			require.NoError(t, tracker.RequestCancel(context.Background(), "nia"))
		}
		return scoredCompetitor(c.Username, 50), nil
	}
	orch, store, tr := newTestRig(strategy)
	tracker = tr

	result, err := orch.Run(context.Background(), runConfig("nia"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, result.Status)
	assert.Equal(t, []string{"c1", "c2"}, strategy.examined)
	assert.Equal(t, 2, result.Snapshot.AnalyzedCount)

	stored := storedSnapshot(t, store, "nia")
	assert.Equal(t, 2, stored.AnalyzedCount)

	progress, err := tr.Progress(context.Background(), "nia")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, progress.Status)
}

func TestRunContextCancellationPersistsPartialSnapshot(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	strategy := &fakeStrategy{
		pool: recordPool("c1", "c2", "c3"),
	}
	strategy.examine = func(c domain.FollowerRecord) (*domain.Competitor, error) {
		if c.Username == "c2" {
			cancel()
		}
		return scoredCompetitor(c.Username, 50), nil
	}
	orch, store, _ := newTestRig(strategy)

	result, err := orch.Run(ctx, runConfig("nia"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, result.Status)
	assert.Equal(t, 2, result.Snapshot.AnalyzedCount)

	stored := storedSnapshot(t, store, "nia")
	assert.Equal(t, 2, stored.AnalyzedCount)
}

func TestRunBaselineFailureWritesNothing(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{baselineErr: fmt.Errorf("profile wall: %w", discovery.ErrNoBaseline)}
	orch, store, _ := newTestRig(strategy)

	result, err := orch.Run(context.Background(), runConfig("nia"))
	require.Error(t, err)
	assert.ErrorIs(t, err, discovery.ErrNoBaseline)
	assert.Nil(t, result)

	var snap domain.Snapshot
	ns := ports.Namespace{AccountID: "nia", Category: ports.CategorySocialGraph}
	err = store.Get(context.Background(), ns, ports.KeyLatest, &snap)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRunSkipsAndFailuresDoNotAbort(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		pool:      recordPool("good1", "thin", "broken", "good2"),
		threshold: 25,
	}
	strategy.examine = func(c domain.FollowerRecord) (*domain.Competitor, error) {
		switch c.Username {
		case "thin":
			return nil, fmt.Errorf("following set too small: %w", discovery.ErrSkipCandidate)
		case "broken":
			return nil, errors.New("page failed to render")
		default:
			return scoredCompetitor(c.Username, 40), nil
		}
	}
	orch, _, _ := newTestRig(strategy)

	result, err := orch.Run(context.Background(), runConfig("nia"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, result.Status)
	assert.Equal(t, 2, result.Snapshot.AnalyzedCount)
	assert.Equal(t, 2, result.Snapshot.HighQualityCount)
	assert.Len(t, strategy.examined, 4)
}

func TestRunEmptyPoolPersistsEmptySnapshot(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		pool: nil,
		examine: func(c domain.FollowerRecord) (*domain.Competitor, error) {
			t.Fatalf("examine must not be called for an empty pool")
			return nil, nil
		},
	}
	orch, store, _ := newTestRig(strategy)

	result, err := orch.Run(context.Background(), runConfig("nia"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, result.Status)
	assert.Equal(t, 0, result.Snapshot.AnalyzedCount)
	assert.Empty(t, result.Snapshot.AllCompetitorsRaw)
	assert.Empty(t, result.Snapshot.TopCompetitors)

	stored := storedSnapshot(t, store, "nia")
	assert.Equal(t, 0, stored.AnalyzedCount)
}

func TestRunCapsTopCompetitors(t *testing.T) {
	t.Parallel()

	var pool []domain.FollowerRecord
	for i := 0; i < 25; i++ {
		pool = append(pool, domain.FollowerRecord{Username: fmt.Sprintf("acct%02d", i)})
	}
	strategy := &fakeStrategy{pool: pool}
	next := 0.0
	strategy.examine = func(c domain.FollowerRecord) (*domain.Competitor, error) {
		next++
		return scoredCompetitor(c.Username, next), nil
	}
	orch, _, _ := newTestRig(strategy)

	result, err := orch.Run(context.Background(), runConfig("nia"))
	require.NoError(t, err)

	assert.Equal(t, 25, result.Snapshot.AnalyzedCount)
	assert.Len(t, result.Snapshot.TopCompetitors, 20)
	assert.Equal(t, "acct24", result.Snapshot.TopCompetitors[0].Username)
}

func TestRunUnknownStrategy(t *testing.T) {
	t.Parallel()

	orch, _, _ := newTestRig(&fakeStrategy{})
	cfg := runConfig("nia")
	cfg.Strategy = domain.Method("nope")

	_, err := orch.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func followers(n int64) *int64 { return &n }

func TestSelectCandidatesBandAndCeiling(t *testing.T) {
	t.Parallel()

	pool := []domain.FollowerRecord{
		{Username: "tiny", FollowerCount: followers(50)},
		{Username: "unknown"},
		{Username: "fit1", FollowerCount: followers(5_000)},
		{Username: "huge", FollowerCount: followers(2_000_000)},
		{Username: "fit2", FollowerCount: followers(80_000)},
		{Username: "fit3", FollowerCount: followers(9_000)},
	}

	cfg := domain.RunConfig{MinFollowerCount: 1_000, MaxFollowerCount: 100_000, MaxCandidates: 3}
	selected := selectCandidates(pool, cfg)

	var names []string
	for _, rec := range selected {
		names = append(names, rec.Username)
	}
	assert.Equal(t, []string{"unknown", "fit1", "fit2"}, names)

	unbounded := selectCandidates(pool, domain.RunConfig{})
	assert.Len(t, unbounded, len(pool))
}

func TestRunClearsStaleCancellationFlag(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		pool: recordPool("c1", "c2"),
		examine: func(c domain.FollowerRecord) (*domain.Competitor, error) {
			return scoredCompetitor(c.Username, 10), nil
		},
	}
	orch, store, tracker := newTestRig(strategy)

	// Flag left behind by a previous cancelled run.
	require.NoError(t, tracker.RequestCancel(context.Background(), "scout"))

	result, err := orch.Run(context.Background(), runConfig("scout"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, result.Status)
	assert.Equal(t, []string{"c1", "c2"}, strategy.examined)
	assert.Equal(t, 2, storedSnapshot(t, store, "scout").AnalyzedCount)
}
