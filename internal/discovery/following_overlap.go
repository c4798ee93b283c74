package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/overlap"
	"CompetitorScanner/internal/ports"
)

const (
	// Below this following-set size the overlap signal is considered
	// unreliable and the candidate is skipped.
	minFollowingForSignal = 20

	highQualityOverlapPct = 30.0
)

// FollowingOverlap ranks candidates by the share of the target's following
// set they also follow. Precise but expensive: one full following-set walk
// per candidate.
type FollowingOverlap struct {
	pager  *pager
	logger *slog.Logger
}

var _ Strategy = (*FollowingOverlap)(nil)

// NewFollowingOverlap wires the browser session used for page walks.
func NewFollowingOverlap(session ports.BrowserSession, logger *slog.Logger) *FollowingOverlap {
	return &FollowingOverlap{pager: newPager(session, logger), logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *FollowingOverlap) Name() string {
	return string(domain.MethodFollowingOverlap)
}

// Method reports the discovery method stamped onto produced competitors.
func (s *FollowingOverlap) Method() domain.Method {
	return domain.MethodFollowingOverlap
}

// Baseline fetches the target's following set and follower pool. An empty
// following set is fatal: there is nothing to compare candidates against.
func (s *FollowingOverlap) Baseline(ctx context.Context, cfg domain.RunConfig) (*Baseline, error) {
	following, err := s.pager.collectHandles(ctx, followingURLs(cfg.TargetHandle), cfg.MaxFollowingFetch)
	if err != nil {
		return nil, fmt.Errorf("fetch target following: %w", err)
	}
	if len(following) == 0 {
		return nil, fmt.Errorf("target %s following set is empty: %w", cfg.TargetHandle, ErrNoBaseline)
	}

	pool, err := s.pager.collectRecords(ctx, followersURLs(cfg.TargetHandle), 0)
	if err != nil {
		return nil, fmt.Errorf("fetch target followers: %w", err)
	}

	s.debug("baseline ready", "following", len(following), "pool", len(pool))

	return &Baseline{
		Pool:            pool,
		TargetFollowing: domain.NewIdentifierSet(following),
		Config:          cfg,
	}, nil
}

// Examine derives one candidate's following set and computes its overlap
// with the target's.
func (s *FollowingOverlap) Examine(ctx context.Context, base *Baseline, candidate domain.FollowerRecord) (*domain.Competitor, error) {
	following, err := s.pager.collectHandles(ctx, followingURLs(candidate.Username), base.Config.MaxFollowingFetch)
	if err != nil {
		return nil, fmt.Errorf("fetch following of %s: %w", candidate.Username, err)
	}
	if len(following) < minFollowingForSignal {
		return nil, fmt.Errorf("%s follows only %d accounts: %w", candidate.Username, len(following), ErrSkipCandidate)
	}

	result := overlap.Compute(base.TargetFollowing, domain.NewIdentifierSet(following))
	s.debug("candidate examined", "candidate", candidate.Username,
		"overlap_count", result.OverlapCount, "overlap_pct", result.OverlapPercentage)

	return &domain.Competitor{
		Username:          candidate.Username,
		OverlapCount:      result.OverlapCount,
		OverlapPercentage: result.OverlapPercentage,
		CommonAccounts:    result.CommonAccounts,
		FollowerCount:     candidate.FollowerCount,
		DiscoveredAt:      time.Now().UTC(),
		Method:            domain.MethodFollowingOverlap,
	}, nil
}

// HighQuality reports whether the candidate clears the overlap threshold.
func (s *FollowingOverlap) HighQuality(c domain.Competitor) bool {
	return c.OverlapPercentage >= highQualityOverlapPct
}

// Metric is the ranking key: overlap percentage, descending.
func (s *FollowingOverlap) Metric(c domain.Competitor) float64 {
	return c.OverlapPercentage
}

func (s *FollowingOverlap) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
