package social

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

const (
	apiHost        = "https://api.twitter.com"
	requestTimeout = 15 * time.Second

	// v2 timeline endpoints accept max_results between 5 and 100.
	minTimelinePage = 5
	maxTimelinePage = 100
)

// bearerAuthorizer injects the app-only bearer token into API requests.
type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// Provider serves recent posts and profile numbers from the official API.
// It complements browser-based discovery: scraping finds the accounts, the
// API fills in trustworthy numbers.
type Provider struct {
	client *twitter.Client
	logger *slog.Logger
}

var _ ports.PostsProvider = (*Provider)(nil)

// NewProvider builds the adapter; the bearer token is required.
func NewProvider(bearerToken string, logger *slog.Logger) (*Provider, error) {
	if bearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token is empty")
	}
	return &Provider{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: bearerToken},
			Client:     &http.Client{Timeout: requestTimeout},
			Host:       apiHost,
		},
		logger: logger,
	}, nil
}

// Profile resolves username into its follower count and verification state.
func (p *Provider) Profile(ctx context.Context, username string) (*domain.FollowerRecord, error) {
	user, err := p.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	record := &domain.FollowerRecord{Username: user.UserName, Verified: user.Verified}
	if user.PublicMetrics != nil {
		count := int64(user.PublicMetrics.Followers)
		record.FollowerCount = &count
	}
	return record, nil
}

// RecentPosts returns up to limit recent original posts of username, with
// retweets and replies excluded.
func (p *Provider) RecentPosts(ctx context.Context, username string, limit int) ([]domain.Post, error) {
	user, err := p.lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	timeline, err := p.client.UserTweetTimeline(ctx, user.ID, twitter.UserTweetTimelineOpts{
		MaxResults: clampPage(limit),
		Excludes:   []twitter.Exclude{twitter.ExcludeRetweets, twitter.ExcludeReplies},
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldPublicMetrics,
			twitter.TweetFieldCreatedAt,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tweet timeline for %s: %w", username, err)
	}
	if timeline.Raw == nil {
		return []domain.Post{}, nil
	}

	posts := make([]domain.Post, 0, len(timeline.Raw.Tweets))
	for _, tweet := range timeline.Raw.Tweets {
		if tweet == nil {
			continue
		}
		posts = append(posts, toPost(username, tweet))
		if limit > 0 && len(posts) == limit {
			break
		}
	}
	p.debug("recent posts fetched", "account", username, "posts", len(posts))
	return posts, nil
}

func (p *Provider) lookup(ctx context.Context, username string) (*twitter.UserObj, error) {
	resp, err := p.client.UserNameLookup(ctx, []string{username}, twitter.UserLookupOpts{
		UserFields: []twitter.UserField{
			twitter.UserFieldPublicMetrics,
			twitter.UserFieldVerified,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("user lookup for %s: %w", username, err)
	}
	if resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil {
		return nil, fmt.Errorf("user %s: %w", username, ports.ErrNotFound)
	}
	return resp.Raw.Users[0], nil
}

func clampPage(limit int) int {
	switch {
	case limit < minTimelinePage:
		return minTimelinePage
	case limit > maxTimelinePage:
		return maxTimelinePage
	default:
		return limit
	}
}

func toPost(username string, tweet *twitter.TweetObj) domain.Post {
	post := domain.Post{ID: tweet.ID, Author: username, Text: tweet.Text}
	if tweet.PublicMetrics != nil {
		post.Likes = int64(tweet.PublicMetrics.Likes)
		post.Retweets = int64(tweet.PublicMetrics.Retweets)
		post.Replies = int64(tweet.PublicMetrics.Replies)
		post.Views = int64(tweet.PublicMetrics.Impressions)
	}
	if tweet.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
			post.PostedAt = ts.UTC()
		}
	}
	return post
}

func (p *Provider) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
