package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leopold7/zenfeed-go/model"
)

func TestQueryClientFetchFeeds(t *testing.T) {
	var gotPath, gotBackend, gotContentType string
	var gotReq model.FeedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBackend = r.URL.Query().Get("backend")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := model.FeedResponse{
			Feeds: []model.Feed{
				{Labels: model.FeedLabels{Title: "Hello"}, Time: "2024-01-01T00:00:00Z"},
			},
			Count: 1,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := NewQueryClient(server.URL, "http://backend.test:8080", nil)
	require.NoError(t, err)

	threshold := 0.6
	feeds, err := c.FetchFeeds(context.Background(), model.FeedRequest{
		Start:     "2024-01-01T00:00:00Z",
		End:       "2024-01-02T00:00:00Z",
		Query:     "go",
		Threshold: &threshold,
		Limit:     50,
	})
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "Hello", feeds[0].Labels.Title)

	assert.Equal(t, "/query", gotPath)
	assert.Equal(t, "http://backend.test:8080", gotBackend)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "go", gotReq.Query)
	assert.Equal(t, 50, gotReq.Limit)
}

func TestQueryClientNoBackendParam(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(model.FeedResponse{})
	}))
	defer server.Close()

	c, err := NewQueryClient(server.URL, "", nil)
	require.NoError(t, err)
	_, err = c.FetchFeeds(context.Background(), model.FeedRequest{})
	require.NoError(t, err)
	assert.Empty(t, rawQuery)
}

func TestQueryClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewQueryClient(server.URL, "", nil)
	require.NoError(t, err)

	_, err = c.FetchFeeds(context.Background(), model.FeedRequest{})
	require.Error(t, err)
	var fe *model.FeedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.ErrorTypeHTTP, fe.ErrorType)
	assert.Equal(t, http.StatusServiceUnavailable, fe.HTTPStatus)
}

func TestQueryClientRejectsBadURL(t *testing.T) {
	_, err := NewQueryClient("ftp://example.com", "", nil)
	assert.Error(t, err)
}

func TestRSSClientMapsItems(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Tech Show</title>
    <item>
      <title>Episode 2</title>
      <link>http://example.test/ep2</link>
      <pubDate>Tue, 02 Jan 2024 00:00:00 GMT</pubDate>
      <enclosure url="http://example.test/ep2.mp3" type="audio/mpeg" length="100"/>
    </item>
    <item>
      <title>Episode 1</title>
      <link>http://example.test/ep1</link>
      <pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rss))
	}))
	defer server.Close()

	c, err := NewRSSClient(server.URL, "podcasts")
	require.NoError(t, err)

	feeds, err := c.FetchFeeds(context.Background(), model.FeedRequest{})
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	assert.Equal(t, "Episode 2", feeds[0].Labels.Title)
	assert.Equal(t, "podcasts", feeds[0].Labels.Category)
	assert.Equal(t, "Tech Show", feeds[0].Labels.Source)
	assert.Equal(t, "http://example.test/ep2.mp3", feeds[0].Labels.PodcastURL)
	assert.Equal(t, "2024-01-02T00:00:00Z", feeds[0].Time)

	assert.Empty(t, feeds[1].Labels.PodcastURL)
}

func TestRSSClientWindowFilter(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Tech Show</title>
    <item>
      <title>Recent</title>
      <pubDate>Tue, 02 Jan 2024 00:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Ancient</title>
      <pubDate>Sat, 01 Jan 2000 00:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss))
	}))
	defer server.Close()

	c, err := NewRSSClient(server.URL, "tech")
	require.NoError(t, err)

	feeds, err := c.FetchFeeds(context.Background(), model.FeedRequest{
		Start: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "Recent", feeds[0].Labels.Title)
}
