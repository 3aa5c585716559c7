package store

import "github.com/leopold7/zenfeed-go/model"

// NewFeedCount reports how many entries in current were not present in
// previous, compared by stable identity. Used to tell the user how much a
// refresh actually brought in.
func NewFeedCount(previous, current []model.Feed) int {
	if len(previous) == 0 {
		return len(current)
	}
	seen := make(map[string]struct{}, len(previous))
	for _, feed := range previous {
		seen[feed.StableID()] = struct{}{}
	}
	count := 0
	for _, feed := range current {
		if _, ok := seen[feed.StableID()]; !ok {
			count++
		}
	}
	return count
}
