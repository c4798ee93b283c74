package discovery

import (
	"context"
	"errors"
	"fmt"

	"CompetitorScanner/internal/domain"
)

// ErrSkipCandidate marks a candidate whose signal is too weak to rank; the
// orchestrator drops it and continues the run.
var ErrSkipCandidate = errors.New("candidate skipped")

// ErrNoBaseline aborts a run that cannot obtain its comparison baseline.
var ErrNoBaseline = errors.New("baseline unavailable")

// Baseline carries the per-run data a strategy prepares before the candidate
// loop: the candidate pool, the run configuration, and (overlap strategy
// only) the target's own following set.
type Baseline struct {
	Pool            []domain.FollowerRecord
	TargetFollowing domain.IdentifierSet
	Config          domain.RunConfig
}

// Strategy captures a single discovery variant. Baseline runs once per run;
// Examine runs once per candidate under the orchestrator's loop and may
// return ErrSkipCandidate to exclude the candidate from ranking.
type Strategy interface {
	Name() string
	Method() domain.Method
	Baseline(ctx context.Context, cfg domain.RunConfig) (*Baseline, error)
	Examine(ctx context.Context, base *Baseline, candidate domain.FollowerRecord) (*domain.Competitor, error)
	HighQuality(c domain.Competitor) bool
	Metric(c domain.Competitor) float64
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("strategy %s is not registered", name)
}
