package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDateISO(t *testing.T) {
	// ISO always wins, regardless of currency hint.
	for _, hint := range []string{"", "EUR", "USD", "CHF"} {
		resolved, ok := ResolveDate("2024-03-07", hint)
		assert.True(t, ok)
		assert.Equal(t, "2024-03-07", resolved, "hint %q", hint)
	}

	// ISO prefix with trailing time component.
	resolved, ok := ResolveDate("2024-03-07T15:04:05Z", "USD")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-07", resolved)
}

func TestResolveDateSeparated(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hint     string
		expected string
		ok       bool
	}{
		{"year first with dashes", "2024-3-7", "", "2024-03-07", true},
		{"year first with slashes", "2024/03/07", "", "2024-03-07", true},
		{"day unambiguous first", "23.04.2024", "", "2024-04-23", true},
		{"day unambiguous second", "04/23/2024", "", "2024-04-23", true},
		{"ambiguous no hint is day-first", "03/07/2024", "", "2024-07-03", true},
		{"ambiguous EUR is day-first", "03/07/2024", "EUR", "2024-07-03", true},
		{"ambiguous USD is month-first", "03/07/2024", "USD", "2024-03-07", true},
		{"German dotted ambiguous", "03.07.2024", "", "2024-07-03", true},
		{"both parts over twelve", "13/13/2024", "", "13/13/2024", false},
		{"two parts only", "03/2024", "", "03/2024", false},
		{"not numeric", "ab/cd/2024", "", "ab/cd/2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := ResolveDate(tt.input, tt.hint)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestResolveDateMonthName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"German day first", "3. März 2024", "2024-03-03", true},
		{"German full month", "15. Dezember 2023", "2023-12-15", true},
		{"English month first", "March 7, 2024", "2024-03-07", true},
		{"English abbreviated", "7 Mar 2024", "2024-03-07", true},
		{"English day first", "23 April 2024", "2024-04-23", true},
		{"unknown month name", "7 Brumaire 2024", "7 Brumaire 2024", false},
		{"missing year", "7 March", "7 March", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := ResolveDate(tt.input, "")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestResolveDatePassthrough(t *testing.T) {
	// Unparseable input is returned unchanged, never an error.
	for _, input := range []string{"", "  ", "unknown", "2024", "31.02.2024"} {
		resolved, ok := ResolveDate(input, "EUR")
		assert.False(t, ok, "input %q", input)
		assert.Equal(t, input, resolved)
	}
}

func TestDateWarningFuture(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Contains(t, warningAt("2099-01-01", now), "future")
	assert.Contains(t, warningAt("2024-08-01", now), "future")
	assert.Equal(t, "", warningAt("2024-07-01", now))
}

func TestDateWarningPast(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Contains(t, warningAt("2015-01-01", now), "past")
	assert.Contains(t, warningAt("2019-06-14", now), "past")
	assert.Equal(t, "", warningAt("2020-01-01", now))
}

func TestDateWarningTransposition(t *testing.T) {
	// Today is 5 March: 2024-03-07 is fine, but 2024-07-03 reads like a
	// transposed 3 July and its swap lands two days from today.
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	warning := warningAt("2024-07-03", now)
	assert.Contains(t, warning, "transposed")
	assert.Contains(t, warning, "2024-03-07")

	// The already-near date itself never warns.
	assert.Equal(t, "", warningAt("2024-03-07", now))

	// Swap would not be near today either: no warning.
	assert.Equal(t, "", warningAt("2024-04-02", now))
}

func TestDateWarningNonISO(t *testing.T) {
	assert.Equal(t, "", DateWarning("03/07/2024"))
	assert.Equal(t, "", DateWarning("not a date"))
	assert.Equal(t, "", DateWarning(""))
}
