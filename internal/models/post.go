package models

import (
	"strings"
	"time"
)

// CandidatePost is a Reddit post that survived the fetcher's quality filters.
// JSON names follow Reddit's listing payload so a raw listing child decodes
// straight into it.
type CandidatePost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"selftext"`
	URL         string  `json:"url"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Upvotes     int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
}

// CreatedAt converts the epoch seconds Reddit reports into a time.Time.
func (p CandidatePost) CreatedAt() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0).UTC()
}

// RedditURL returns the absolute link to the post's comment page.
func (p CandidatePost) RedditURL() string {
	if p.Permalink == "" {
		return p.URL
	}
	if strings.HasPrefix(p.Permalink, "http") {
		return p.Permalink
	}
	return "https://reddit.com" + p.Permalink
}

// Listing is the envelope Reddit wraps search results in.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string         `json:"after"`
		Children []ListingChild `json:"children"`
	} `json:"data"`
}

// ListingChild wraps one post in a listing.
type ListingChild struct {
	Kind string        `json:"kind"`
	Data CandidatePost `json:"data"`
}

// Posts flattens the listing children.
func (l *Listing) Posts() []CandidatePost {
	if l == nil {
		return nil
	}
	posts := make([]CandidatePost, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts
}
