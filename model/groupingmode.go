package model

import (
	"errors"
)

var ErrInvalidGroupingMode = errors.New("invalid grouping mode")

// GroupingMode selects the dimension used to partition feeds for display.
type GroupingMode uint8

const (
	UndefinedGrouping GroupingMode = iota
	GroupByCategory
	GroupBySource
	GroupByCategoryAndSource
	GroupNone
)

// ParseGroupingMode converts a stored setting string to a GroupingMode.
func ParseGroupingMode(mode string) (GroupingMode, error) {
	switch mode {
	case "category":
		return GroupByCategory, nil
	case "source":
		return GroupBySource, nil
	case "category,source":
		return GroupByCategoryAndSource, nil
	case "none":
		return GroupNone, nil
	default:
		return UndefinedGrouping, ErrInvalidGroupingMode
	}
}

// String returns the string representation of a GroupingMode.
func (m GroupingMode) String() string {
	switch m {
	case GroupByCategory:
		return "category"
	case GroupBySource:
		return "source"
	case GroupByCategoryAndSource:
		return "category,source"
	case GroupNone:
		return "none"
	default:
		return "undefined"
	}
}
