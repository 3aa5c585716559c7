package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStableFeedID(t *testing.T) {
	assert.Equal(t, "Title-2024-01-01T00:00:00Z-srv1",
		StableFeedID("Title", "2024-01-01T00:00:00Z", "srv1"))
}

func TestStableFeedIDEmptyParts(t *testing.T) {
	// The primary source uses an empty server ID; missing titles still yield
	// a deterministic key.
	assert.Equal(t, "-2024-01-01T00:00:00Z-", StableFeedID("", "2024-01-01T00:00:00Z", ""))
}

func TestFeedStableIDIgnoresMutableFields(t *testing.T) {
	a := Feed{
		Labels:   FeedLabels{Title: "Episode 1", LocalPodcastPath: ""},
		Time:     "2024-01-01T00:00:00Z",
		ServerID: "srv1",
	}
	b := a
	b.Labels.LocalPodcastPath = "/cache/abc.audio"
	b.IsRead = true

	assert.Equal(t, a.StableID(), b.StableID())
}

func TestFeedStableIDDistinguishesServers(t *testing.T) {
	a := Feed{Labels: FeedLabels{Title: "Same"}, Time: "2024-01-01T00:00:00Z", ServerID: "s1"}
	b := a
	b.ServerID = "s2"
	assert.NotEqual(t, a.StableID(), b.StableID())
}
