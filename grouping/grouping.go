// Package grouping turns a flat multi-source feed list into filtered,
// grouped, ordered views. Everything here is pure: identical inputs produce
// identical views, with no network or disk access.
package grouping

import (
	"sort"
	"strings"

	"github.com/leopold7/zenfeed-go/model"
)

// Uncategorized is the group name for entries whose grouping label is blank.
const Uncategorized = "uncategorized"

// Views is the derived presentation state for one feed list.
type Views struct {
	// Flat is the filtered list, newest first.
	Flat []model.Feed
	// All is the synthetic "all" group: entries whose applicable labels all
	// have showInAll enabled.
	All []model.Feed
	// Groups maps visible group names to their entries.
	Groups map[string][]model.Feed
	// GroupOrder lists the visible group names in display order.
	GroupOrder []string
}

type groupConfig struct {
	showInAll bool
	showGroup bool
	sortOrder int
}

var defaultGroupConfig = groupConfig{showInAll: true, showGroup: true, sortOrder: 0}

// ComputeViews derives the grouped views from a merged feed list.
// titleFilterKeywords is a comma-separated exclusion list matched
// case-insensitively against titles. readIDs marks entries read by stable
// identity; pass nil to leave read flags untouched.
func ComputeViews(feeds []model.Feed, titleFilterKeywords string, configs []model.CategoryFilterConfig, mode model.GroupingMode, readIDs map[string]struct{}) Views {
	filtered := filterByTitle(feeds, titleFilterKeywords)
	for i := range filtered {
		if readIDs != nil {
			_, filtered[i].IsRead = readIDs[filtered[i].StableID()]
		}
	}
	sortByTime(filtered)

	if mode == model.GroupNone {
		return Views{Flat: filtered, All: filtered}
	}

	byName := make(map[string]groupConfig, len(configs))
	for _, cfg := range configs {
		byName[cfg.CategoryName] = groupConfig{
			showInAll: cfg.ShowInAll,
			showGroup: cfg.ShowGroup,
			sortOrder: cfg.SortOrder,
		}
	}
	lookup := func(name string) groupConfig {
		if cfg, ok := byName[name]; ok {
			return cfg
		}
		return defaultGroupConfig
	}

	groups := make(map[string][]model.Feed)
	categoryNames := make(map[string]struct{})
	sourceNames := make(map[string]struct{})

	for _, feed := range filtered {
		category := groupName(feed.Labels.Category)
		source := groupName(feed.Labels.Source)
		switch mode {
		case model.GroupByCategory:
			groups[category] = append(groups[category], feed)
			categoryNames[category] = struct{}{}
		case model.GroupBySource:
			groups[source] = append(groups[source], feed)
			sourceNames[source] = struct{}{}
		case model.GroupByCategoryAndSource:
			groups[category] = append(groups[category], feed)
			categoryNames[category] = struct{}{}
			if source != category {
				groups[source] = append(groups[source], feed)
			}
			sourceNames[source] = struct{}{}
		}
	}

	all := make([]model.Feed, 0, len(filtered))
	for _, feed := range filtered {
		if inAll(feed, mode, lookup) {
			all = append(all, feed)
		}
	}

	var order []string
	for name := range groups {
		if lookup(name).showGroup {
			order = append(order, name)
		}
	}
	visible := make(map[string][]model.Feed, len(order))
	for _, name := range order {
		visible[name] = groups[name]
	}

	sortGroupNames(order, mode, lookup, categoryNames, sourceNames)

	return Views{Flat: filtered, All: all, Groups: visible, GroupOrder: order}
}

// inAll reports whether every applicable label of feed admits it to the "all"
// group under the current mode.
func inAll(feed model.Feed, mode model.GroupingMode, lookup func(string) groupConfig) bool {
	switch mode {
	case model.GroupByCategory:
		return lookup(groupName(feed.Labels.Category)).showInAll
	case model.GroupBySource:
		return lookup(groupName(feed.Labels.Source)).showInAll
	case model.GroupByCategoryAndSource:
		return lookup(groupName(feed.Labels.Category)).showInAll &&
			lookup(groupName(feed.Labels.Source)).showInAll
	}
	return true
}

// sortGroupNames orders group names by sortOrder ascending with zero last,
// ties alphabetical. In the combined mode an all-zero configuration keeps
// category names as one alphabetical block ahead of source names, and
// otherwise equal-order ties put categories before sources.
func sortGroupNames(names []string, mode model.GroupingMode, lookup func(string) groupConfig, categoryNames, sourceNames map[string]struct{}) {
	isCategory := func(name string) bool {
		_, ok := categoryNames[name]
		return ok
	}

	if mode == model.GroupByCategoryAndSource && allZeroOrder(names, lookup) {
		sort.Slice(names, func(i, j int) bool {
			ci, cj := isCategory(names[i]), isCategory(names[j])
			if ci != cj {
				return ci
			}
			return names[i] < names[j]
		})
		return
	}

	sort.Slice(names, func(i, j int) bool {
		oi, oj := orderKey(lookup(names[i]).sortOrder), orderKey(lookup(names[j]).sortOrder)
		if oi != oj {
			return oi < oj
		}
		if mode == model.GroupByCategoryAndSource {
			ci, cj := isCategory(names[i]), isCategory(names[j])
			if ci != cj {
				return ci
			}
		}
		return names[i] < names[j]
	})
}

func allZeroOrder(names []string, lookup func(string) groupConfig) bool {
	for _, name := range names {
		if lookup(name).sortOrder != 0 {
			return false
		}
	}
	return true
}

// orderKey maps sortOrder zero past every explicit order.
func orderKey(sortOrder int) int {
	if sortOrder == 0 {
		return int(^uint(0) >> 1)
	}
	return sortOrder
}

func groupName(label string) string {
	if strings.TrimSpace(label) == "" {
		return Uncategorized
	}
	return label
}

// filterByTitle drops entries whose title contains any keyword from the
// comma-separated list, case-insensitively. Blank keywords and blank titles
// never exclude.
func filterByTitle(feeds []model.Feed, keywords string) []model.Feed {
	var terms []string
	for _, raw := range strings.Split(keywords, ",") {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term != "" {
			terms = append(terms, term)
		}
	}

	out := make([]model.Feed, 0, len(feeds))
	for _, feed := range feeds {
		if excludedByTitle(feed.Labels.Title, terms) {
			continue
		}
		out = append(out, feed)
	}
	return out
}

func excludedByTitle(title string, terms []string) bool {
	if title == "" || len(terms) == 0 {
		return false
	}
	lower := strings.ToLower(title)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// sortByTime orders entries newest first, title ascending on ties.
func sortByTime(feeds []model.Feed) {
	sort.SliceStable(feeds, func(i, j int) bool {
		ti := model.TimeSortKey(feeds[i].Time)
		tj := model.TimeSortKey(feeds[j].Time)
		if ti != tj {
			return ti > tj
		}
		return feeds[i].Labels.Title < feeds[j].Labels.Title
	})
}
