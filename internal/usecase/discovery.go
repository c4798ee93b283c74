package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"CompetitorScanner/internal/discovery"
	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
	"CompetitorScanner/internal/runstate"
)

// candidateDelay is the fixed inter-candidate pause. Deliberately not
// configurable: the courtesy policy toward the remote platform is part of the
// engine's contract, not a tuning knob.
const candidateDelay = 2 * time.Second

const topCompetitorLimit = 20

// OrchestratorDeps wires the collaborators driving discovery runs.
type OrchestratorDeps struct {
	Registry *discovery.Registry
	Store    ports.KeyValueStore
	Tracker  *runstate.Tracker
	Logger   *slog.Logger
}

// Orchestrator executes the discovery state machine: baseline fetch,
// candidate selection, the per-candidate analyzing loop, and persistence.
type Orchestrator struct {
	registry *discovery.Registry
	store    ports.KeyValueStore
	tracker  *runstate.Tracker
	logger   *slog.Logger
	limiter  *rate.Limiter
}

// RunResult is a completed (possibly cancelled) run with its final status.
type RunResult struct {
	Snapshot *domain.Snapshot
	Status   domain.RunStatus
}

// NewOrchestrator constructs the orchestration component.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		registry: deps.Registry,
		store:    deps.Store,
		tracker:  deps.Tracker,
		logger:   deps.Logger,
		limiter:  rate.NewLimiter(rate.Every(candidateDelay), 1),
	}
}

// Run executes one discovery run. A run either yields a ranked, persisted
// snapshot (possibly partial under cancellation, possibly empty when no
// candidate survived filtering) or returns an error with no snapshot
// written. There is no silent zero-result path.
func (o *Orchestrator) Run(ctx context.Context, cfg domain.RunConfig) (*RunResult, error) {
	strategy, err := o.registry.Resolve(string(cfg.Strategy))
	if err != nil {
		return nil, fmt.Errorf("resolve strategy: %w", err)
	}

	o.info("discovery run starting", "target", cfg.TargetHandle, "strategy", strategy.Name())
	startedAt := time.Now().UTC()

	// Run state is fresh per invocation: a flag left over from an earlier
	// cancelled run must not cancel this one.
	if o.tracker != nil {
		if err := o.tracker.ClearCancel(ctx, cfg.TargetHandle); err != nil {
			o.warn("stale cancellation flag not cleared", "error", err)
		}
	}

	o.writeProgress(ctx, cfg.TargetHandle, domain.Progress{
		Status: domain.StatusAnalyzing,
		Stage:  domain.StageBaseline,
	})

	base, err := strategy.Baseline(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("baseline fetch: %w", err)
	}

	candidates := selectCandidates(base.Pool, cfg)
	o.info("candidates selected", "pool", len(base.Pool), "selected", len(candidates))
	o.writeProgress(ctx, cfg.TargetHandle, domain.Progress{
		Total:  len(candidates),
		Status: domain.StatusAnalyzing,
		Stage:  domain.StageSelection,
	})

	ranked := make([]domain.Competitor, 0, len(candidates))
	cancelled := false
	current := 0

	for i, candidate := range candidates {
		current = i + 1
		o.writeProgress(ctx, cfg.TargetHandle, domain.Progress{
			Current:        current,
			Total:          len(candidates),
			CurrentAccount: candidate.Username,
			Status:         domain.StatusAnalyzing,
			Stage:          domain.StageAnalyzing,
		})

		// The flag is polled before the candidate is touched: a cancelled
		// run never bills work to the candidate it stopped in front of.
		if o.cancelRequested(ctx, cfg.TargetHandle) {
			cancelled = true
			o.info("cancellation observed", "ranked", len(ranked), "remaining", len(candidates)-i)
			break
		}

		competitor, err := strategy.Examine(ctx, base, candidate)
		switch {
		case errors.Is(err, discovery.ErrSkipCandidate):
			o.debug("candidate skipped", "candidate", candidate.Username, "reason", err)
		case err != nil:
			o.warn("candidate failed", "candidate", candidate.Username, "error", err)
		default:
			ranked = append(ranked, *competitor)
		}

		if i < len(candidates)-1 {
			if err := o.limiter.Wait(ctx); err != nil {
				cancelled = true
				break
			}
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return strategy.Metric(ranked[a]) > strategy.Metric(ranked[b])
	})

	highQuality := 0
	for _, c := range ranked {
		if strategy.HighQuality(c) {
			highQuality++
		}
	}

	status := domain.StatusComplete
	if cancelled {
		status = domain.StatusCancelled
	}

	now := time.Now().UTC()
	snap := &domain.Snapshot{
		UserHandle:        cfg.TargetHandle,
		AnalyzedCount:     len(ranked),
		AllCompetitorsRaw: ranked,
		TopCompetitors:    topN(ranked, topCompetitorLimit),
		HighQualityCount:  highQuality,
		CreatedAt:         startedAt,
		LastUpdated:       now,
		Method:            strategy.Method(),
		Config:            cfg,
	}

	// Persistence must outlive a cancelled context: a gracefully cancelled
	// run still lands its partial snapshot.
	persistCtx := context.WithoutCancel(ctx)
	if err := o.persist(persistCtx, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	o.writeProgress(persistCtx, cfg.TargetHandle, domain.Progress{
		Current: current,
		Total:   len(candidates),
		Status:  status,
		Stage:   domain.StagePersisting,
	})

	o.info("discovery run finished", "target", cfg.TargetHandle,
		"status", status, "ranked", len(ranked), "high_quality", highQuality)

	return &RunResult{Snapshot: snap, Status: status}, nil
}

func (o *Orchestrator) persist(ctx context.Context, snap *domain.Snapshot) error {
	graphNS := ports.Namespace{AccountID: snap.UserHandle, Category: ports.CategorySocialGraph}
	if err := o.store.Put(ctx, graphNS, ports.KeyLatest, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	profileNS := ports.Namespace{AccountID: snap.UserHandle, Category: ports.CategoryProfiles}
	for _, competitor := range snap.AllCompetitorsRaw {
		if err := o.store.Put(ctx, profileNS, competitor.Username, competitor); err != nil {
			return fmt.Errorf("write profile %s: %w", competitor.Username, err)
		}
	}
	return nil
}

func (o *Orchestrator) cancelRequested(ctx context.Context, account string) bool {
	if ctx.Err() != nil {
		return true
	}
	if o.tracker == nil {
		return false
	}
	cancelled, err := o.tracker.Cancelled(ctx, account)
	if err != nil {
		// An unreadable flag must not kill a healthy run.
		o.warn("cancellation flag unreadable", "error", err)
		return false
	}
	return cancelled
}

func (o *Orchestrator) writeProgress(ctx context.Context, account string, p domain.Progress) {
	if o.tracker == nil {
		return
	}
	if err := o.tracker.WriteProgress(ctx, account, p); err != nil {
		o.warn("progress write failed", "error", err)
	}
}

// selectCandidates applies the follower-count band and the run ceiling. An
// unknown follower count never excludes a candidate.
func selectCandidates(pool []domain.FollowerRecord, cfg domain.RunConfig) []domain.FollowerRecord {
	selected := make([]domain.FollowerRecord, 0, len(pool))
	for _, rec := range pool {
		if !withinBand(rec.FollowerCount, cfg.MinFollowerCount, cfg.MaxFollowerCount) {
			continue
		}
		selected = append(selected, rec)
		if cfg.MaxCandidates > 0 && len(selected) == cfg.MaxCandidates {
			break
		}
	}
	return selected
}

func withinBand(count *int64, min, max int64) bool {
	if count == nil {
		return true
	}
	if min > 0 && *count < min {
		return false
	}
	if max > 0 && *count > max {
		return false
	}
	return true
}

func topN(list []domain.Competitor, n int) []domain.Competitor {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) debug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
