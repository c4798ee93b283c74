package domain

import "time"

// Method selects how competitors are discovered and ranked.
type Method string

const (
	// MethodFollowingOverlap ranks by following-set intersection with the target.
	MethodFollowingOverlap Method = "following_overlap"
	// MethodNativeMutual ranks by the platform's own mutual-follower listing.
	MethodNativeMutual Method = "native_mutual"
)

// RunStatus enumerates discovery-run milestones persisted in progress updates.
type RunStatus string

const (
	StatusAnalyzing RunStatus = "analyzing"
	StatusComplete  RunStatus = "complete"
	StatusCancelled RunStatus = "cancelled"
)

// Stage names for the orchestrator state machine, written into Progress.
const (
	StageBaseline   = "baseline_fetch"
	StageSelection  = "candidate_selection"
	StageAnalyzing  = "analyzing"
	StagePersisting = "persisting"
)

// IdentifierSet is a deduplicated membership set of account handles.
type IdentifierSet map[string]struct{}

// NewIdentifierSet builds a set from a slice, dropping duplicates.
func NewIdentifierSet(handles []string) IdentifierSet {
	set := make(IdentifierSet, len(handles))
	for _, h := range handles {
		set[h] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s IdentifierSet) Contains(handle string) bool {
	_, ok := s[handle]
	return ok
}

// FollowerRecord is one account drawn from a follower listing. FollowerCount
// is nil when no count could be parsed from the rendered text; unknown is
// distinct from zero and never excludes a candidate from filtering. Verified
// is only ever set from API-sourced profiles, not from rendered pages.
type FollowerRecord struct {
	Username      string `json:"username"`
	FollowerCount *int64 `json:"follower_count,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
}

// OverlapResult captures intersection statistics between the target's
// following set and one candidate's following set.
type OverlapResult struct {
	OverlapCount      int      `json:"overlap_count"`
	OverlapPercentage float64  `json:"overlap_percentage"`
	CommonAccounts    []string `json:"common_accounts"`
}

// Competitor is one ranked candidate produced by a discovery run. Created
// once per run and immutable afterwards, except for the posts-enrichment pass.
type Competitor struct {
	Username          string    `json:"username"`
	OverlapCount      int       `json:"overlap_count,omitempty"`
	OverlapPercentage float64   `json:"overlap_percentage,omitempty"`
	CommonAccounts    []string  `json:"common_accounts,omitempty"`
	MutualConnections int       `json:"mutual_connections,omitempty"`
	FollowerCount     *int64    `json:"follower_count,omitempty"`
	Verified          bool      `json:"verified,omitempty"`
	Posts             []Post    `json:"posts,omitempty"`
	DiscoveredAt      time.Time `json:"discovered_at"`
	Method            Method    `json:"method"`
}

// RunConfig holds the caller-supplied parameters of a discovery run; it is
// echoed into the snapshot so results stay reproducible.
type RunConfig struct {
	TargetHandle      string `json:"target_handle"`
	Strategy          Method `json:"strategy"`
	MaxCandidates     int    `json:"max_candidates_to_check"`
	MinFollowerCount  int64  `json:"min_follower_count"`
	MaxFollowerCount  int64  `json:"max_follower_count"`
	MaxFollowingFetch int    `json:"max_following_fetch_size"`
}

// Snapshot is the single, atomically replaced result document for a user's
// most recent discovery run. Written exactly once per run completion,
// including cancelled completion; never partially overwritten mid-run.
type Snapshot struct {
	UserHandle        string       `json:"user_handle"`
	AnalyzedCount     int          `json:"analyzed_count"`
	AllCompetitorsRaw []Competitor `json:"all_competitors_raw"`
	TopCompetitors    []Competitor `json:"top_competitors"`
	HighQualityCount  int          `json:"high_quality_count"`
	CreatedAt         time.Time    `json:"created_at"`
	LastUpdated       time.Time    `json:"last_updated"`
	Method            Method       `json:"method"`
	Config            RunConfig    `json:"config"`
}

// Progress reports how far a discovery run has advanced. Overwritten at a
// fixed key once per candidate iteration; Current never decreases in a run.
type Progress struct {
	Current        int       `json:"current"`
	Total          int       `json:"total"`
	CurrentAccount string    `json:"current_account"`
	Status         RunStatus `json:"status"`
	Stage          string    `json:"stage"`
}

// ControlFlag is the cooperative cancellation signal. An external actor sets
// it; the orchestrator polls it between candidates.
type ControlFlag struct {
	Cancelled bool `json:"cancelled"`
}

// RunRecord is one archived discovery-run summary row.
type RunRecord struct {
	ID               string    `json:"id"`
	UserHandle       string    `json:"user_handle"`
	Method           Method    `json:"method"`
	AnalyzedCount    int       `json:"analyzed_count"`
	HighQualityCount int       `json:"high_quality_count"`
	TopCompetitor    string    `json:"top_competitor"`
	CreatedAt        time.Time `json:"created_at"`
}
