package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"CompetitorScanner/internal/analytics"
	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

// AnalyzerDeps wires the collaborators of the content analysis pass.
type AnalyzerDeps struct {
	Store     ports.KeyValueStore
	Generator ports.TextGenerator
	Logger    *slog.Logger
}

// Analyzer turns a persisted competitor set into content insights: top
// performers, percentile benchmarks, tier clusters, and the qualitative
// pattern summary from the language model.
type Analyzer struct {
	store     ports.KeyValueStore
	generator ports.TextGenerator
	logger    *slog.Logger
}

// NewAnalyzer constructs the analysis component.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	return &Analyzer{store: deps.Store, generator: deps.Generator, logger: deps.Logger}
}

// Analyze computes and persists insights for account. The quantitative parts
// always land; a failing or malformed language-model pass degrades to an
// empty pattern block, never an error.
func (a *Analyzer) Analyze(ctx context.Context, account string) (*domain.Insights, error) {
	competitors, err := a.loadCompetitors(ctx, account)
	if err != nil {
		return nil, err
	}

	top := analytics.TopPerformers(competitors)
	insights := &domain.Insights{
		UserHandle:    account,
		TopPerformers: top,
		Patterns:      domain.PatternAnalysis{Topics: []string{}, Formats: []string{}, PostingInsights: []string{}},
		Suggestions:   []string{},
		Benchmarks:    analytics.Benchmarks(competitors),
		Clusters:      analytics.Clusters(competitors),
		AnalyzedAt:    time.Now().UTC(),
	}

	if a.generator != nil {
		patterns, suggestions, err := analytics.Patterns(ctx, a.generator, account, top)
		if err != nil {
			a.warn("pattern analysis unavailable", "account", account, "error", err)
		} else {
			insights.Patterns = patterns
			insights.Suggestions = suggestions
		}
	}

	ns := ports.Namespace{AccountID: account, Category: ports.CategoryInsights}
	if err := a.store.Put(ctx, ns, ports.KeyLatest, insights); err != nil {
		return nil, fmt.Errorf("write insights: %w", err)
	}

	a.info("insights computed", "account", account,
		"posts", insights.Benchmarks.PostCount, "tiers", len(insights.Clusters.Tiers))
	return insights, nil
}

// loadCompetitors prefers the snapshot; when none exists it reconstructs the
// candidate set from the per-candidate profile records.
func (a *Analyzer) loadCompetitors(ctx context.Context, account string) ([]domain.Competitor, error) {
	graphNS := ports.Namespace{AccountID: account, Category: ports.CategorySocialGraph}
	var snap domain.Snapshot
	err := a.store.Get(ctx, graphNS, ports.KeyLatest, &snap)
	if err == nil {
		return snap.AllCompetitorsRaw, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	profileNS := ports.Namespace{AccountID: account, Category: ports.CategoryProfiles}
	entries, err := a.store.Search(ctx, profileNS, 0)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	competitors := make([]domain.Competitor, 0, len(entries))
	for _, entry := range entries {
		var c domain.Competitor
		if err := json.Unmarshal(entry.Value, &c); err != nil {
			a.warn("profile record undecodable", "key", entry.Key, "error", err)
			continue
		}
		competitors = append(competitors, c)
	}
	return competitors, nil
}

func (a *Analyzer) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Analyzer) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
