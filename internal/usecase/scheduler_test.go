package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CompetitorScanner/internal/domain"
)

type memoryArchive struct {
	runs []domain.Snapshot
	err  error
}

func (m *memoryArchive) SaveRun(_ context.Context, snap domain.Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, snap)
	return nil
}

func (m *memoryArchive) RecentRuns(context.Context, string, int) ([]domain.RunRecord, error) {
	return nil, nil
}

type capturingNotifier struct {
	digests []string
	err     error
}

func (c *capturingNotifier) Notify(_ context.Context, digest string) error {
	if c.err != nil {
		return c.err
	}
	c.digests = append(c.digests, digest)
	return nil
}

type manualDriver struct {
	job func(time.Time)
}

func (m *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualDriver) Stop(context.Context) error { return nil }

func TestPassExecuteFullCycle(t *testing.T) {
	t.Parallel()

	scores := map[string]float64{"ana": 10, "bea": 30}
	strategy := &fakeStrategy{
		pool: recordPool("ana", "bea"),
		examine: func(c domain.FollowerRecord) (*domain.Competitor, error) {
			return scoredCompetitor(c.Username, scores[c.Username]), nil
		},
		threshold: 25,
	}
	orch, store, _ := newTestRig(strategy)

	provider := &fakeProvider{profiles: map[string]domain.FollowerRecord{
		"bea": {Username: "bea", FollowerCount: followers(4200), Verified: true},
		"ana": {Username: "ana", FollowerCount: followers(900)},
	}}
	arch := &memoryArchive{}
	notifier := &capturingNotifier{}

	pass := &Pass{
		Orchestrator: orch,
		Enricher: NewEnricher(EnricherDeps{
			Store:           store,
			Provider:        provider,
			PostsPerAccount: 5,
		}),
		Archive:  arch,
		Notifier: notifier,
	}

	result, err := pass.Execute(context.Background(), runConfig("scout"))
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot)
	assert.Equal(t, domain.StatusComplete, result.Status)

	// The archive runs after enrichment, so the saved snapshot already
	// carries the API follower counts.
	require.Len(t, arch.runs, 1)
	require.NotEmpty(t, arch.runs[0].TopCompetitors)
	top := arch.runs[0].TopCompetitors[0]
	assert.Equal(t, "bea", top.Username)
	require.NotNil(t, top.FollowerCount)
	assert.Equal(t, int64(4200), *top.FollowerCount)

	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "for @scout")
	assert.Contains(t, notifier.digests[0], "Analyzed 2 candidates")
	assert.Contains(t, notifier.digests[0], "@bea (30.0% overlap)")
}

func TestPassDerivedStepFailuresDoNotFailThePass(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		pool: recordPool("ana"),
		examine: func(c domain.FollowerRecord) (*domain.Competitor, error) {
			return scoredCompetitor(c.Username, 30), nil
		},
		threshold: 25,
	}
	orch, _, _ := newTestRig(strategy)

	pass := &Pass{
		Orchestrator: orch,
		Archive:      &memoryArchive{err: errors.New("database on fire")},
		Notifier:     &capturingNotifier{err: errors.New("chat unreachable")},
	}

	result, err := pass.Execute(context.Background(), runConfig("scout"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, result.Status)
	assert.Equal(t, 1, result.Snapshot.AnalyzedCount)
}

func TestDigestReportsMutualConnections(t *testing.T) {
	t.Parallel()

	result := &RunResult{
		Snapshot: &domain.Snapshot{
			AnalyzedCount:    5,
			HighQualityCount: 2,
			Method:           domain.MethodNativeMutual,
			TopCompetitors: []domain.Competitor{
				{Username: "kai", MutualConnections: 12},
			},
		},
		Status: domain.StatusCancelled,
	}

	text := digest("scout", result)

	assert.Contains(t, text, "Discovery cancelled")
	assert.Contains(t, text, "Analyzed 5 candidates, 2 high quality")
	assert.Contains(t, text, "@kai (12 mutual connections)")
}

func TestSchedulerRunsPassOnDriverTicks(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		pool: recordPool("ana"),
		examine: func(c domain.FollowerRecord) (*domain.Competitor, error) {
			return scoredCompetitor(c.Username, 30), nil
		},
		threshold: 25,
	}
	orch, _, _ := newTestRig(strategy)
	arch := &memoryArchive{}

	driver := &manualDriver{}
	sched := NewScheduler(driver, &Pass{Orchestrator: orch, Archive: arch}, runConfig("scout"), nil)

	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	driver.job(time.Now())

	assert.Len(t, arch.runs, 2)
	assert.NoError(t, sched.Stop(context.Background()))
}
