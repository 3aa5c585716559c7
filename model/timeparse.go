package model

import (
	"hash/fnv"
	"strings"
	"time"
)

// Legacy layouts seen in the wild from older backends. Tried in order after
// the RFC 3339 variants fail.
var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimeSortKey converts a raw timestamp string into a value used solely for
// ordering. The fallback chain guarantees that even an unparseable timestamp
// produces a stable, deterministic sort position:
//
//  1. RFC 3339 with or without fractional seconds,
//  2. a small set of legacy layouts,
//  3. the first 14 digits found in the string read as a number,
//  4. an FNV hash of the raw string.
//
// The result is never suitable for display.
func TimeSortKey(raw string) int64 {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UnixMilli()
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMilli()
		}
	}
	if key, ok := digitSortKey(raw); ok {
		return key
	}
	return hashSortKey(raw)
}

// digitSortKey extracts up to the first 14 digits of raw and reads them as a
// number. Fewer than 8 digits is too little signal to order on, so it reports
// false and the caller falls through to the hash.
func digitSortKey(raw string) (int64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 14 {
				break
			}
		}
	}
	digits := b.String()
	if len(digits) < 8 {
		return 0, false
	}
	var n int64
	for _, r := range digits {
		n = n*10 + int64(r-'0')
	}
	return n, true
}

func hashSortKey(raw string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(raw)) // FNV hash Write never returns an error
	return int64(h.Sum32())
}
