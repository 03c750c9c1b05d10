package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateRule tries to read a calendar date out of a cell value.
type DateRule func(s string) (civil.Date, bool)

var (
	compactDateRe  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	dayFirstDateRe = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	isoDateRe      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
)

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02-01-06",
	"02/01/06",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"Mon, 02 Jan 2006",
}

// DefaultDateRules returns the date rules in priority order: compact
// YYYYMMDD, day-first with -, / or . separators, ISO, then a layout fallback.
func DefaultDateRules() []DateRule {
	return []DateRule{
		parseCompactDate,
		parseDayFirstDate,
		parseISODate,
		parseFallbackDate,
	}
}

// ParseDate parses s with the default date rules.
func ParseDate(s string) (civil.Date, bool) {
	return parseDateWith(DefaultDateRules(), s)
}

// ParseDate parses s with the rule set of p.
func (p Patterns) ParseDate(s string) (civil.Date, bool) {
	return parseDateWith(p.DateRules, s)
}

func parseDateWith(rules []DateRule, s string) (civil.Date, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return civil.Date{}, false
	}
	for _, rule := range rules {
		if d, ok := rule(s); ok {
			return d, true
		}
	}
	return civil.Date{}, false
}

// NewDate builds a civil.Date and reports whether it names a real day.
func NewDate(year, month, day int) (civil.Date, bool) {
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

func parseCompactDate(s string) (civil.Date, bool) {
	m := compactDateRe.FindStringSubmatch(s)
	if m == nil {
		return civil.Date{}, false
	}
	return dateFromParts(m[1], m[2], m[3])
}

func parseDayFirstDate(s string) (civil.Date, bool) {
	m := dayFirstDateRe.FindStringSubmatch(s)
	if m == nil {
		return civil.Date{}, false
	}
	return dateFromParts(m[3], m[2], m[1])
}

func parseISODate(s string) (civil.Date, bool) {
	m := isoDateRe.FindStringSubmatch(s)
	if m == nil {
		return civil.Date{}, false
	}
	return dateFromParts(m[1], m[2], m[3])
}

func parseFallbackDate(s string) (civil.Date, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

func dateFromParts(year, month, day string) (civil.Date, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return civil.Date{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return civil.Date{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return civil.Date{}, false
	}
	return NewDate(y, m, d)
}
