// Package model defines the core data structures and error types shared by
// the feed client: feed entries, server configuration, grouping configuration
// and the classified error taxonomy.
package model

// FeedLabels carries the structured metadata a source attaches to an entry.
// All fields are optional; LocalPodcastPath is only ever set by the offline
// download pipeline, never by a source.
type FeedLabels struct {
	Title            string `json:"title,omitempty"`
	Category         string `json:"category,omitempty"`
	Source           string `json:"source,omitempty"`
	Link             string `json:"link,omitempty"`
	PodcastURL       string `json:"podcast_url,omitempty"`
	LocalPodcastPath string `json:"local_podcast_path,omitempty"`
}

// Feed is one content entry produced by a source.
//
// Time is kept as the raw timestamp string the source sent; precision and
// timezone suffix are not uniform across servers, so ordering always goes
// through TimeSortKey rather than a parsed time.Time.
type Feed struct {
	Labels FeedLabels `json:"labels"`
	Time   string     `json:"time"`
	// ServerID identifies the configured source that produced this entry.
	// The primary source uses the empty string. It is stamped by the
	// aggregator after fetch and never trusted from the wire.
	ServerID string `json:"server_id,omitempty"`
	// IsRead is derived from the read-state store at display time and is
	// not persisted with the entry.
	IsRead bool `json:"-"`
}

// FeedRequest is the query window sent to a source.
type FeedRequest struct {
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Limit     int      `json:"limit"`
	Query     string   `json:"query,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Summarize bool     `json:"summarize"`
}

// FeedResponse is the merged result of a fetch across all configured sources.
// Error is non-empty only when cached data is being served as a degraded
// result after every source failed.
type FeedResponse struct {
	Feeds []Feed `json:"feeds"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// ServerConfig describes one independently configured backend.
// ID is stable and independent of the display name.
type ServerConfig struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	APIURL     string `json:"api_url"`
	BackendURL string `json:"backend_url"`
}

// CategoryFilterConfig controls visibility and ordering for one group label.
// It is keyed by the raw label string, so a category and a source sharing the
// same literal name share one config entry.
type CategoryFilterConfig struct {
	CategoryName string `json:"category_name"`
	ShowInAll    bool   `json:"show_in_all"`
	ShowGroup    bool   `json:"show_group"`
	// SortOrder orders groups ascending; 0 means unordered and sorts last.
	SortOrder int `json:"sort_order"`
}

// FavoriteEntry is a favorited feed plus a full snapshot of the entry at
// favorite time. The snapshot is updated in place when the offline pipeline
// records a local podcast path.
type FavoriteEntry struct {
	FeedID      string `json:"feed_id"`
	FavoritedAt int64  `json:"favorited_at"`
	Feed        Feed   `json:"feed"`
}
