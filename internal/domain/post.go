package domain

import "time"

// Post is a single public post with engagement counters, attached to a
// competitor by the enrichment pass.
type Post struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Likes    int64     `json:"likes"`
	Retweets int64     `json:"retweets"`
	Replies  int64     `json:"replies"`
	Views    int64     `json:"views"`
	PostedAt time.Time `json:"posted_at"`
}
