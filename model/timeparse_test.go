package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSortKeyRFC3339(t *testing.T) {
	earlier := TimeSortKey("2024-01-01T00:00:00Z")
	later := TimeSortKey("2024-06-01T12:30:00Z")
	assert.Less(t, earlier, later)
}

func TestTimeSortKeyFractionalSeconds(t *testing.T) {
	a := TimeSortKey("2024-01-01T00:00:00.001Z")
	b := TimeSortKey("2024-01-01T00:00:00.002Z")
	assert.Less(t, a, b)
}

func TestTimeSortKeyLegacyLayouts(t *testing.T) {
	cases := []struct {
		earlier string
		later   string
	}{
		{"2024-01-01T00:00:00", "2024-01-02T00:00:00"},
		{"2024-01-01 00:00:00", "2024-01-02 00:00:00"},
		{"2024-01-01", "2024-01-02"},
	}
	for _, tc := range cases {
		assert.Less(t, TimeSortKey(tc.earlier), TimeSortKey(tc.later),
			"%q should sort before %q", tc.earlier, tc.later)
	}
}

func TestTimeSortKeyDigitFallback(t *testing.T) {
	// Strings no layout parses still order by their leading digits.
	a := TimeSortKey("20240101120000 weird suffix")
	b := TimeSortKey("20240102120000 weird suffix")
	assert.Less(t, a, b)
}

func TestTimeSortKeyHashFallback(t *testing.T) {
	// No digits at all: the key must still be stable.
	first := TimeSortKey("not a date")
	second := TimeSortKey("not a date")
	assert.Equal(t, first, second)
	assert.NotEqual(t, TimeSortKey("not a date"), TimeSortKey("also not a date"))
}

func TestTimeSortKeyEmpty(t *testing.T) {
	assert.Equal(t, TimeSortKey(""), TimeSortKey(""))
}
