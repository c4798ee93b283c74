package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

const highQualityMutuals = 5

// NativeMutual counts accounts surfaced by the platform's "followers you
// know" view. One page walk per candidate instead of a full following-set
// derivation, at the cost of an absolute (non-normalized) metric.
type NativeMutual struct {
	pager  *pager
	logger *slog.Logger
}

var _ Strategy = (*NativeMutual)(nil)

// NewNativeMutual wires the browser session used for page walks.
func NewNativeMutual(session ports.BrowserSession, logger *slog.Logger) *NativeMutual {
	return &NativeMutual{pager: newPager(session, logger), logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *NativeMutual) Name() string {
	return string(domain.MethodNativeMutual)
}

// Method reports the discovery method stamped onto produced competitors.
func (s *NativeMutual) Method() domain.Method {
	return domain.MethodNativeMutual
}

// Baseline draws the target's followers as the candidate pool; this strategy
// needs no following-set comparison baseline. An empty pool is not fatal and
// legitimately yields an empty run result.
func (s *NativeMutual) Baseline(ctx context.Context, cfg domain.RunConfig) (*Baseline, error) {
	pool, err := s.pager.collectRecords(ctx, followersURLs(cfg.TargetHandle), 0)
	if err != nil {
		return nil, fmt.Errorf("fetch target followers: %w", err)
	}

	s.debug("baseline ready", "pool", len(pool))

	return &Baseline{Pool: pool, Config: cfg}, nil
}

// Examine walks the candidate's mutual-connections view until it converges
// and counts the distinct accounts collected.
func (s *NativeMutual) Examine(ctx context.Context, base *Baseline, candidate domain.FollowerRecord) (*domain.Competitor, error) {
	mutuals, err := s.pager.collectHandles(ctx, mutualURLs(candidate.Username), 0)
	if err != nil {
		return nil, fmt.Errorf("fetch mutual view of %s: %w", candidate.Username, err)
	}

	s.debug("candidate examined", "candidate", candidate.Username, "mutuals", len(mutuals))

	return &domain.Competitor{
		Username:          candidate.Username,
		MutualConnections: len(mutuals),
		FollowerCount:     candidate.FollowerCount,
		DiscoveredAt:      time.Now().UTC(),
		Method:            domain.MethodNativeMutual,
	}, nil
}

// HighQuality reports whether the candidate clears the mutual threshold.
func (s *NativeMutual) HighQuality(c domain.Competitor) bool {
	return c.MutualConnections >= highQualityMutuals
}

// Metric is the ranking key: raw mutual connections, descending.
func (s *NativeMutual) Metric(c domain.Competitor) float64 {
	return float64(c.MutualConnections)
}

func (s *NativeMutual) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
