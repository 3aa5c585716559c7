package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leopold7/zenfeed-go/model"
)

func TestNewFeedCount(t *testing.T) {
	old := []model.Feed{
		feed("A", "2024-01-01T00:00:00Z"),
		feed("B", "2024-01-02T00:00:00Z"),
	}
	current := []model.Feed{
		feed("B", "2024-01-02T00:00:00Z"),
		feed("C", "2024-01-03T00:00:00Z"),
		feed("D", "2024-01-04T00:00:00Z"),
	}
	assert.Equal(t, 2, NewFeedCount(old, current))
}

func TestNewFeedCountEmptyPrevious(t *testing.T) {
	current := []model.Feed{feed("A", "2024-01-01T00:00:00Z")}
	assert.Equal(t, 1, NewFeedCount(nil, current))
	assert.Equal(t, 0, NewFeedCount(current, current))
}

func TestNewFeedCountDistinguishesServers(t *testing.T) {
	a := feed("A", "2024-01-01T00:00:00Z")
	b := a
	b.ServerID = "other"
	assert.Equal(t, 1, NewFeedCount([]model.Feed{a}, []model.Feed{b}))
}
