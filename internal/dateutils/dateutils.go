// Package dateutils resolves the freeform date strings produced by AI
// extraction into calendar dates. Parsing never fails: input that matches no
// known form is returned unchanged and the caller treats it as unresolved.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rullmann/portfolio-now-sub005/internal/currencyutils"
	"github.com/sirupsen/logrus"
)

// DateLayoutISO is the display format for resolved dates.
const DateLayoutISO = "2006-01-02"

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

var (
	isoPrefix  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	separators = regexp.MustCompile(`[./-]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// monthNames maps local (German) and English month names and abbreviations
// to their month number.
var monthNames = map[string]time.Month{
	"jan": time.January, "januar": time.January, "january": time.January,
	"feb": time.February, "februar": time.February, "february": time.February,
	"mar": time.March, "mär": time.March, "marz": time.March, "märz": time.March, "maerz": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"mai": time.May, "may": time.May,
	"jun": time.June, "juni": time.June, "june": time.June,
	"jul": time.July, "juli": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oct": time.October, "oktober": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dez": time.December, "dec": time.December, "dezember": time.December, "december": time.December,
}

// ResolveDate parses a freeform date string into an ISO-formatted calendar
// date. The currency hint biases day/month order toward month-first when the
// hint's issuing region conventionally writes month-first (e.g. USD).
//
// Resolution order: ISO prefix (unambiguous, always wins), separator-
// delimited numeric forms, month-name forms. If nothing parses, the original
// string is returned unchanged with ok=false.
func ResolveDate(raw, currencyHint string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw, false
	}

	if m := isoPrefix.FindStringSubmatch(s); m != nil {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d.Format(DateLayoutISO), true
		}
	}

	if d, ok := resolveSeparated(s, currencyHint); ok {
		return d.Format(DateLayoutISO), true
	}

	if d, ok := resolveMonthName(s); ok {
		return d.Format(DateLayoutISO), true
	}

	log.WithField("date", raw).Debug("Unresolvable date, passing through unchanged")
	return raw, false
}

// resolveSeparated handles three-part numeric dates split by '.', '/' or '-'.
func resolveSeparated(s, currencyHint string) (time.Time, bool) {
	parts := separators.Split(s, -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || !isDigits(p) {
			return time.Time{}, false
		}
		nums[i] = atoi(p)
	}

	switch {
	case len(strings.TrimSpace(parts[0])) == 4:
		// Year-first: YYYY sep M sep D.
		return makeDate(nums[0], nums[1], nums[2])
	case len(strings.TrimSpace(parts[2])) == 4:
		// Year-last: resolve day/month order for the first two parts.
		a, b, year := nums[0], nums[1], nums[2]
		switch {
		case a > 12 && b <= 12:
			return makeDate(year, b, a)
		case b > 12 && a <= 12:
			return makeDate(year, a, b)
		case currencyutils.MonthFirstConvention(currencyHint):
			return makeDate(year, a, b)
		default:
			return makeDate(year, b, a)
		}
	}
	return time.Time{}, false
}

// resolveMonthName handles day-month-name-year and month-name-day-year
// forms such as "3. März 2024" or "March 3, 2024".
func resolveMonthName(s string) (time.Time, bool) {
	cleaned := strings.NewReplacer(",", " ", ".", " ").Replace(s)
	tokens := spaces.Split(strings.TrimSpace(cleaned), -1)
	if len(tokens) != 3 {
		return time.Time{}, false
	}

	year := tokens[2]
	if len(year) != 4 || !isDigits(year) {
		return time.Time{}, false
	}

	if isDigits(tokens[0]) {
		if month, ok := lookupMonth(tokens[1]); ok {
			return makeDate(atoi(year), int(month), atoi(tokens[0]))
		}
	}
	if isDigits(tokens[1]) {
		if month, ok := lookupMonth(tokens[0]); ok {
			return makeDate(atoi(year), int(month), atoi(tokens[1]))
		}
	}
	return time.Time{}, false
}

func lookupMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// makeDate builds a calendar date, rejecting components that would roll
// over (e.g. month 13 or 31 February).
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1000 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// Warning thresholds. Extraction sources routinely transpose day and month;
// a resolved date far from today is the strongest signal.
const (
	futureWarningDays = 30
	pastWarningYears  = 5
	transpositionDays = 14
)

// DateWarning inspects an ISO-formatted date and returns an advisory
// warning, or the empty string. Non-ISO input never warns.
func DateWarning(isoDate string) string {
	return warningAt(isoDate, time.Now())
}

func warningAt(isoDate string, now time.Time) string {
	m := isoPrefix.FindStringSubmatch(strings.TrimSpace(isoDate))
	if m == nil {
		return ""
	}
	t, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	if !ok {
		return ""
	}
	now = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// A swapped day/month that lands near today while the original does not
	// suggests the extraction source transposed them. Checked first so a
	// transposed date months away is reported as a transposition, not
	// merely as far-off.
	day, month := t.Day(), int(t.Month())
	if day <= 12 && day != month {
		if swapped, ok := makeDate(t.Year(), day, month); ok {
			if withinDays(swapped, now, transpositionDays) && !withinDays(t, now, transpositionDays) {
				return fmt.Sprintf("date %s may have day and month transposed: %s would be within %d days of today",
					t.Format(DateLayoutISO), swapped.Format(DateLayoutISO), transpositionDays)
			}
		}
	}

	if t.After(now.AddDate(0, 0, futureWarningDays)) {
		return fmt.Sprintf("date %s is more than %d days in the future", t.Format(DateLayoutISO), futureWarningDays)
	}
	if t.Before(now.AddDate(-pastWarningYears, 0, 0)) {
		return fmt.Sprintf("date %s is more than %d years in the past", t.Format(DateLayoutISO), pastWarningYears)
	}

	return ""
}

func withinDays(t, now time.Time, days int) bool {
	diff := t.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}
