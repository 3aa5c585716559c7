package client

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/leopold7/zenfeed-go/model"
)

// RSSClient adapts a plain RSS or Atom feed to the source boundary. Entries
// outside the requested window are dropped before aggregation.
type RSSClient struct {
	feedURL  string
	category string
	parser   *gofeed.Parser
}

// NewRSSClient creates an RSS source for feedURL. All of its entries carry the
// given category label.
func NewRSSClient(feedURL, category string) (*RSSClient, error) {
	if err := model.ValidateServerURL(feedURL); err != nil {
		return nil, err
	}
	parser := gofeed.NewParser()
	parser.Client = NewRateLimitedHTTPClient(2.0, 5, 30*time.Second)
	return &RSSClient{
		feedURL:  feedURL,
		category: category,
		parser:   parser,
	}, nil
}

// FetchFeeds parses the feed and maps items into the common entry shape.
func (c *RSSClient) FetchFeeds(ctx context.Context, req model.FeedRequest) ([]model.Feed, error) {
	parsed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(parsed.Title)
	if source == "" {
		source = c.feedURL
	}

	var feeds []model.Feed
	for _, item := range parsed.Items {
		published := itemTime(item)
		if !inWindow(published, req.Start, req.End) {
			continue
		}
		feed := model.Feed{
			Labels: model.FeedLabels{
				Title:      item.Title,
				Category:   c.category,
				Source:     source,
				Link:       item.Link,
				PodcastURL: audioEnclosure(item),
			},
		}
		if published != nil {
			feed.Time = published.UTC().Format(time.RFC3339)
		}
		feeds = append(feeds, feed)
		if req.Limit > 0 && len(feeds) >= req.Limit {
			break
		}
	}
	return feeds, nil
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

func inWindow(published *time.Time, start, end string) bool {
	if published == nil {
		return true
	}
	if start != "" {
		if t, err := time.Parse(time.RFC3339, start); err == nil && published.Before(t) {
			return false
		}
	}
	if end != "" {
		if t, err := time.Parse(time.RFC3339, end); err == nil && published.After(t) {
			return false
		}
	}
	return true
}

func audioEnclosure(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") {
			return enc.URL
		}
	}
	return ""
}
