package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

const (
	enrichConcurrency  = 3
	defaultRecentPosts = 30
)

// EnricherDeps wires the collaborators of the enrichment pass.
type EnricherDeps struct {
	Store           ports.KeyValueStore
	Provider        ports.PostsProvider
	Logger          *slog.Logger
	PostsPerAccount int
}

// Enricher augments a persisted snapshot with platform API data: recent posts
// and authoritative profile numbers for the top competitors. Scraped follower
// counts are approximations; the API, where available, is the source of truth.
type Enricher struct {
	store           ports.KeyValueStore
	provider        ports.PostsProvider
	logger          *slog.Logger
	postsPerAccount int
}

// NewEnricher constructs the enrichment component.
func NewEnricher(deps EnricherDeps) *Enricher {
	perAccount := deps.PostsPerAccount
	if perAccount <= 0 {
		perAccount = defaultRecentPosts
	}
	return &Enricher{
		store:           deps.Store,
		provider:        deps.Provider,
		logger:          deps.Logger,
		postsPerAccount: perAccount,
	}
}

// Enrich loads the latest snapshot for account, fetches posts and profile
// data for its top competitors, and writes the augmented snapshot back.
// Per-account API failures degrade that competitor only, never the pass.
func (e *Enricher) Enrich(ctx context.Context, account string) (*domain.Snapshot, error) {
	ns := ports.Namespace{AccountID: account, Category: ports.CategorySocialGraph}
	var snap domain.Snapshot
	if err := e.store.Get(ctx, ns, ports.KeyLatest, &snap); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	limit := len(snap.TopCompetitors)
	if limit > len(snap.AllCompetitorsRaw) {
		limit = len(snap.AllCompetitorsRaw)
	}
	if limit == 0 {
		return &snap, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range snap.AllCompetitorsRaw[:limit] {
		g.Go(func() error {
			e.enrichOne(gctx, &snap.AllCompetitorsRaw[i])
			return nil
		})
	}
	// Failures are degraded per account inside enrichOne.
	_ = g.Wait()

	// The top list is the ranked prefix; rebuild it so both views carry the
	// enriched records.
	snap.TopCompetitors = snap.AllCompetitorsRaw[:limit]
	snap.LastUpdated = time.Now().UTC()

	if err := e.store.Put(ctx, ns, ports.KeyLatest, &snap); err != nil {
		return nil, fmt.Errorf("write enriched snapshot: %w", err)
	}
	profileNS := ports.Namespace{AccountID: account, Category: ports.CategoryProfiles}
	for _, c := range snap.AllCompetitorsRaw[:limit] {
		if err := e.store.Put(ctx, profileNS, c.Username, c); err != nil {
			return nil, fmt.Errorf("write profile %s: %w", c.Username, err)
		}
	}

	e.info("snapshot enriched", "account", account, "competitors", limit)
	return &snap, nil
}

func (e *Enricher) enrichOne(ctx context.Context, c *domain.Competitor) {
	posts, err := e.provider.RecentPosts(ctx, c.Username, e.postsPerAccount)
	if err != nil {
		e.warn("recent posts unavailable", "account", c.Username, "error", err)
	} else {
		c.Posts = posts
	}

	profile, err := e.provider.Profile(ctx, c.Username)
	if err != nil {
		e.warn("profile lookup failed", "account", c.Username, "error", err)
		return
	}
	if profile.FollowerCount != nil {
		c.FollowerCount = profile.FollowerCount
	}
	if profile.Verified {
		c.Verified = true
	}
}

func (e *Enricher) info(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Enricher) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
