package domain

import "time"

// TopPost pairs a post with its computed engagement numbers.
type TopPost struct {
	Post            Post    `json:"post"`
	EngagementScore int64   `json:"engagement_score"`
	EngagementRate  float64 `json:"engagement_rate"`
}

// EngagementGoals surfaces distribution quartiles as progressive targets:
// beginner/intermediate/advanced/expert map to p25/p50/p75/p90.
type EngagementGoals struct {
	Beginner     float64 `json:"beginner"`
	Intermediate float64 `json:"intermediate"`
	Advanced     float64 `json:"advanced"`
	Expert       float64 `json:"expert"`
}

// MetricBenchmark summarizes the distribution of one engagement counter.
type MetricBenchmark struct {
	Average float64         `json:"average"`
	Goals   EngagementGoals `json:"goals"`
}

// BenchmarkReport aggregates benchmarks across all engagement counters.
type BenchmarkReport struct {
	PostCount int             `json:"post_count"`
	Likes     MetricBenchmark `json:"likes"`
	Retweets  MetricBenchmark `json:"retweets"`
	Replies   MetricBenchmark `json:"replies"`
	Views     MetricBenchmark `json:"views"`
}

// TierAccount is one competitor's membership entry within a tier.
type TierAccount struct {
	Username      string  `json:"username"`
	FollowerCount *int64  `json:"follower_count,omitempty"`
	AvgEngagement float64 `json:"avg_engagement"`
	AccountType   string  `json:"account_type"`
}

// TierSummary aggregates the competitors that fall into one tier.
type TierSummary struct {
	Tier            string        `json:"tier"`
	Count           int           `json:"count"`
	AvgFollowers    float64       `json:"avg_followers"`
	AvgEngagement   float64       `json:"avg_engagement"`
	TopAccountTypes []string      `json:"top_account_types"`
	Accounts        []TierAccount `json:"accounts"`
}

// ClusterReport groups competitors into tiers; Basis records whether tiers
// were derived from follower counts or from engagement fallback.
type ClusterReport struct {
	Basis string        `json:"basis"`
	Tiers []TierSummary `json:"tiers"`
}

// PatternAnalysis is the qualitative LLM output. RawAnalysis carries the
// verbatim response whenever it could not be decoded as JSON.
type PatternAnalysis struct {
	Topics          []string `json:"topics"`
	Formats         []string `json:"formats"`
	PostingInsights []string `json:"posting_insights"`
	RawAnalysis     string   `json:"raw_analysis,omitempty"`
}

// Insights bundles every analytics product for one account. Derived and
// recomputable, never authoritative state.
type Insights struct {
	UserHandle    string          `json:"user_handle"`
	TopPerformers []TopPost       `json:"top_performers"`
	Patterns      PatternAnalysis `json:"patterns"`
	Suggestions   []string        `json:"suggestions"`
	Benchmarks    BenchmarkReport `json:"benchmarks"`
	Clusters      ClusterReport   `json:"clusters"`
	AnalyzedAt    time.Time       `json:"analyzed_at"`
}
