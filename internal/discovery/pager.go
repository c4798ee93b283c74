package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/extract"
	"CompetitorScanner/internal/ports"
)

const (
	baseHost = "https://x.com"
	// Pages still resolve under the pre-migration host; used as fallback.
	legacyHost = "https://twitter.com"

	defaultMaxScrolls = 30
	scrollStep        = 1200
	scrollSettle      = 700 * time.Millisecond
)

// pager walks a scroll-paginated listing view and accumulates extracted
// account records until convergence, a requested limit, or the scroll
// ceiling.
type pager struct {
	session    ports.BrowserSession
	logger     *slog.Logger
	maxScrolls int
	settle     time.Duration
}

func newPager(session ports.BrowserSession, logger *slog.Logger) *pager {
	return &pager{
		session:    session,
		logger:     logger,
		maxScrolls: defaultMaxScrolls,
		settle:     scrollSettle,
	}
}

// navigateFirst tries each URL in priority order until one loads.
func (p *pager) navigateFirst(ctx context.Context, urls []string) error {
	var lastErr error
	for _, u := range urls {
		if err := p.session.Navigate(ctx, u); err != nil {
			lastErr = err
			p.debug("navigate failed", "url", u, "error", err)
			continue
		}
		return nil
	}
	if lastErr == nil {
		return fmt.Errorf("no navigation candidates provided")
	}
	return fmt.Errorf("all navigation candidates failed: %w", lastErr)
}

// collectRecords returns follower records in encounter order. The walk stops
// when one full scroll cycle surfaces no new accounts, when limit records
// were gathered (limit > 0), or when the scroll ceiling is hit.
func (p *pager) collectRecords(ctx context.Context, urls []string, limit int) ([]domain.FollowerRecord, error) {
	if err := p.navigateFirst(ctx, urls); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	records := make([]domain.FollowerRecord, 0)

	for scroll := 0; ; scroll++ {
		elements, err := p.session.ReadDOMElements(ctx)
		if err != nil {
			return nil, fmt.Errorf("read elements: %w", err)
		}

		batch := extract.Records(elements, seen)
		records = append(records, batch...)

		if limit > 0 && len(records) >= limit {
			records = records[:limit]
			break
		}
		if len(batch) == 0 && scroll > 0 {
			p.debug("listing converged", "scrolls", scroll, "records", len(records))
			break
		}
		if scroll >= p.maxScrolls {
			p.debug("scroll ceiling reached", "records", len(records))
			break
		}

		if err := p.session.Scroll(ctx, 0, scrollStep); err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		p.wait(ctx)
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
	}

	return records, nil
}

// collectHandles is collectRecords reduced to the extracted identifiers.
func (p *pager) collectHandles(ctx context.Context, urls []string, limit int) ([]string, error) {
	records, err := p.collectRecords(ctx, urls, limit)
	if err != nil {
		return nil, err
	}

	handles := make([]string, 0, len(records))
	for _, rec := range records {
		handles = append(handles, rec.Username)
	}
	return handles, nil
}

func (p *pager) wait(ctx context.Context) {
	timer := time.NewTimer(p.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (p *pager) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func followingURLs(handle string) []string {
	return listingURLs(handle, "following")
}

func followersURLs(handle string) []string {
	return listingURLs(handle, "followers")
}

func mutualURLs(handle string) []string {
	return listingURLs(handle, "followers_you_follow")
}

func listingURLs(handle, view string) []string {
	return []string{
		fmt.Sprintf("%s/%s/%s", baseHost, handle, view),
		fmt.Sprintf("%s/%s/%s", legacyHost, handle, view),
	}
}
