package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"CompetitorScanner/internal/domain"
)

// ErrNotFound is returned by KeyValueStore.Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// DOMElement is one structured element surfaced by the browser session.
// Consumers never parse markup themselves; this list is the whole contract.
type DOMElement struct {
	Href string `json:"href,omitempty"`
	Text string `json:"text,omitempty"`
}

// BrowserSession exposes the minimal surface of the remote browser
// automation collaborator used by discovery strategies.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	ReadDOMElements(ctx context.Context) ([]DOMElement, error)
	Scroll(ctx context.Context, dx, dy int) error
}

// Namespace scopes key-value entries to one account and category.
type Namespace struct {
	AccountID string
	Category  string
}

// Entry is a single pair returned by Search, value still JSON-encoded.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// KeyValueStore persists snapshots, progress, and control flags. Values are
// JSON-encoded by implementations.
type KeyValueStore interface {
	Put(ctx context.Context, ns Namespace, key string, value any) error
	Get(ctx context.Context, ns Namespace, key string, dest any) error
	Search(ctx context.Context, ns Namespace, limit int) ([]Entry, error)
	Delete(ctx context.Context, ns Namespace, key string) error
}

// Store categories and fixed keys shared across the discovery engine.
const (
	CategorySocialGraph = "social_graph"
	CategoryProgress    = "discovery_progress"
	CategoryControl     = "discovery_control"
	CategoryProfiles    = "competitor_profiles"
	CategoryInsights    = "content_insights"

	KeyLatest  = "latest"
	KeyCurrent = "current"
)

// TextGenerator produces free-form completions from an LLM collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PostsProvider fetches recent public posts and profile data through the
// platform API for the enrichment pass.
type PostsProvider interface {
	RecentPosts(ctx context.Context, username string, limit int) ([]domain.Post, error)
	Profile(ctx context.Context, username string) (*domain.FollowerRecord, error)
}

// RunArchive appends completed run summaries for cross-run history.
type RunArchive interface {
	SaveRun(ctx context.Context, snap domain.Snapshot) error
	RecentRuns(ctx context.Context, handle string, limit int) ([]domain.RunRecord, error)
}

// Scheduler controls when discovery runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Notifier pushes a short run digest to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, digest string) error
}
