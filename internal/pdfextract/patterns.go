package pdfextract

import (
	"regexp"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/normalize"
)

// DateMatch is a date found inside a statement line. Start and End are byte
// offsets into the line. Valid is false when the text looked like a date but
// does not name a real calendar day.
type DateMatch struct {
	Date       civil.Date
	Start, End int
	Valid      bool
}

// DateMatcher looks for one date shape in a line.
type DateMatcher func(line string) (DateMatch, bool)

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[-./](\d{1,2})[-./](\d{4})\b`)
	shortDateRe   = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{2})\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	textDateRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mrt|maa|mar|apr|mei|may|jun|jul|aug|sep|okt|oct|nov|dec)[a-z]*\.?\s+(\d{4})\b`)
)

var monthAbbreviations = map[string]int{
	"jan": 1, "feb": 2, "mrt": 3, "maa": 3, "mar": 3, "apr": 4,
	"mei": 5, "may": 5, "jun": 6, "jul": 7, "aug": 8, "sep": 9,
	"okt": 10, "oct": 10, "nov": 11, "dec": 12,
}

// DefaultDateMatchers returns the matchers in the order they are tried:
// DD-MM-YYYY (also . and /), DD-MM-YY, YYYY-MM-DD and "D MMM YYYY".
func DefaultDateMatchers() []DateMatcher {
	return []DateMatcher{
		matchNumericDate,
		matchShortDate,
		matchISODate,
		matchTextDate,
	}
}

func matchNumericDate(line string) (DateMatch, bool) {
	return matchParts(numericDateRe, line, func(m []string) (int, int, int) {
		return atoi(m[3]), atoi(m[2]), atoi(m[1])
	})
}

func matchShortDate(line string) (DateMatch, bool) {
	return matchParts(shortDateRe, line, func(m []string) (int, int, int) {
		return 2000 + atoi(m[3]), atoi(m[2]), atoi(m[1])
	})
}

func matchISODate(line string) (DateMatch, bool) {
	return matchParts(isoDateRe, line, func(m []string) (int, int, int) {
		return atoi(m[1]), atoi(m[2]), atoi(m[3])
	})
}

func matchTextDate(line string) (DateMatch, bool) {
	return matchParts(textDateRe, line, func(m []string) (int, int, int) {
		return atoi(m[3]), monthAbbreviations[strings.ToLower(m[2])], atoi(m[1])
	})
}

func matchParts(re *regexp.Regexp, line string, ymd func(m []string) (int, int, int)) (DateMatch, bool) {
	idx := re.FindStringSubmatchIndex(line)
	if idx == nil {
		return DateMatch{}, false
	}
	groups := make([]string, len(idx)/2)
	for i := range groups {
		if idx[2*i] >= 0 {
			groups[i] = line[idx[2*i]:idx[2*i+1]]
		}
	}
	y, m, d := ymd(groups)
	date, ok := normalize.NewDate(y, m, d)
	return DateMatch{Date: date, Start: idx[0], End: idx[1], Valid: ok}, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// AmountMatch is an amount found inside a statement line.
type AmountMatch struct {
	Raw        string
	Start, End int
}

// amountRe matches grouped thousands with a decimal comma, a decimal comma,
// or a decimal point, each with an optional leading minus. The trailing
// group keeps "25,475" from matching as "25,47".
var amountRe = regexp.MustCompile(`(-?(?:\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2}|\d+\.\d{2}))(?:\D|$)`)

// FindAmounts returns every amount in s in order of appearance.
func FindAmounts(s string) []AmountMatch {
	var out []AmountMatch
	for _, idx := range amountRe.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, AmountMatch{Raw: s[idx[2]:idx[3]], Start: idx[2], End: idx[3]})
	}
	return out
}

// LastAmount returns the last amount in s. Statement lines usually end with
// the transaction amount, but a trailing balance column will be picked up
// instead; callers that know their layout can swap this out.
func LastAmount(s string) (AmountMatch, bool) {
	all := FindAmounts(s)
	if len(all) == 0 {
		return AmountMatch{}, false
	}
	return all[len(all)-1], true
}

// StripAmounts removes every amount from s.
func StripAmounts(s string) string {
	all := FindAmounts(s)
	if len(all) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, a := range all {
		b.WriteString(s[prev:a.Start])
		prev = a.End
	}
	b.WriteString(s[prev:])
	return b.String()
}
