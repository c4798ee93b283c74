package analytics

import (
	"sort"

	"CompetitorScanner/internal/domain"
)

const topPerformerLimit = 50

// Score is the weighted engagement value of a single post; retweets count
// double for their amplification reach.
func Score(p domain.Post) int64 {
	return p.Likes + 2*p.Retweets + p.Replies
}

// Rate is the engagement score relative to views, as a percentage. Posts
// without view data are treated as single-view so the rate stays defined.
func Rate(p domain.Post) float64 {
	views := p.Views
	if views < 1 {
		views = 1
	}
	return float64(Score(p)) / float64(views) * 100
}

// TopPerformers flattens every competitor's posts and returns the strongest
// by engagement score, descending, capped at 50.
func TopPerformers(competitors []domain.Competitor) []domain.TopPost {
	ranked := make([]domain.TopPost, 0)
	for _, c := range competitors {
		for _, p := range c.Posts {
			if p.Author == "" {
				p.Author = c.Username
			}
			ranked = append(ranked, domain.TopPost{
				Post:            p,
				EngagementScore: Score(p),
				EngagementRate:  Rate(p),
			})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].EngagementScore > ranked[b].EngagementScore
	})
	if len(ranked) > topPerformerLimit {
		ranked = ranked[:topPerformerLimit]
	}
	return ranked
}
