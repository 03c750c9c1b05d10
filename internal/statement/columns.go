package statement

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/dvloznov/statement-importer/internal/domain"
)

// FormatUnrecognizedError is returned when the required column roles could
// not be bound to any header.
type FormatUnrecognizedError struct {
	Headers     []string
	Missing     []domain.ColumnRole
	Suggestions map[string]string
}

func (e *FormatUnrecognizedError) Error() string {
	var b strings.Builder
	b.WriteString("format not recognized: missing ")
	for i, role := range e.Missing {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(role))
	}
	b.WriteString(" column; detected headers: [")
	b.WriteString(strings.Join(e.Headers, ", "))
	b.WriteString("]")

	if len(e.Suggestions) > 0 {
		keys := make([]string, 0, len(e.Suggestions))
		for h := range e.Suggestions {
			keys = append(keys, h)
		}
		sort.Strings(keys)
		b.WriteString("; did you mean")
		for i, h := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %q for %q", e.Suggestions[h], h)
		}
	}
	return b.String()
}

// ColumnMap records which header index was bound to which role.
type ColumnMap struct {
	Headers     []string
	Columns     map[domain.ColumnRole]int
	Description []int
}

// Index returns the column index bound to role.
func (m ColumnMap) Index(role domain.ColumnRole) (int, bool) {
	idx, ok := m.Columns[role]
	return idx, ok
}

// NormalizeHeader lowercases, strips surrounding quotes and trims h.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(h, `"'`)
	return strings.ToLower(strings.TrimSpace(h))
}

// MapColumns binds header positions to column roles. For each role the first
// header matching one of its synonyms is taken; exact matches are preferred
// over prefix matches such as "bedrag (eur)" for "bedrag". Every header that
// matches a description synonym is bound as a description column.
func MapColumns(headers []string, syn Synonyms) (ColumnMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	m := ColumnMap{
		Headers: normalized,
		Columns: make(map[domain.ColumnRole]int),
	}
	taken := make(map[int]bool)

	for _, role := range roleOrder {
		if idx, ok := findHeader(normalized, syn[role], taken, exactMatch); ok {
			m.Columns[role] = idx
			taken[idx] = true
		}
	}
	for _, role := range roleOrder {
		if _, ok := m.Columns[role]; ok {
			continue
		}
		if idx, ok := findHeader(normalized, syn[role], taken, prefixMatch); ok {
			m.Columns[role] = idx
			taken[idx] = true
		}
	}

	for i, h := range normalized {
		if taken[i] {
			continue
		}
		for _, s := range syn[domain.RoleDescription] {
			if exactMatch(h, s) || prefixMatch(h, s) {
				m.Description = append(m.Description, i)
				taken[i] = true
				break
			}
		}
	}

	var missing []domain.ColumnRole
	if _, ok := m.Columns[domain.RoleDate]; !ok {
		missing = append(missing, domain.RoleDate)
	}
	_, hasAmount := m.Columns[domain.RoleAmount]
	_, hasDebit := m.Columns[domain.RoleDebit]
	if !hasAmount && !hasDebit {
		missing = append(missing, domain.RoleAmount)
	}
	if len(missing) > 0 {
		return ColumnMap{}, &FormatUnrecognizedError{
			Headers:     normalized,
			Missing:     missing,
			Suggestions: suggestHeaders(normalized, missing, syn, taken),
		}
	}

	return m, nil
}

type matchFunc func(header, synonym string) bool

func exactMatch(header, synonym string) bool {
	return header == synonym
}

// prefixMatch accepts "bedrag (eur)" for "bedrag" but not "afschrijving" for "af".
func prefixMatch(header, synonym string) bool {
	if len(header) <= len(synonym) || !strings.HasPrefix(header, synonym) {
		return false
	}
	next := rune(header[len(synonym)])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

func findHeader(headers, synonyms []string, taken map[int]bool, match matchFunc) (int, bool) {
	for i, h := range headers {
		if taken[i] || h == "" {
			continue
		}
		for _, s := range synonyms {
			if match(h, s) {
				return i, true
			}
		}
	}
	return 0, false
}

// suggestHeaders proposes, for each unbound header, the closest synonym of a
// missing role when it is within a small edit distance.
func suggestHeaders(headers []string, missing []domain.ColumnRole, syn Synonyms, taken map[int]bool) map[string]string {
	const maxDistance = 3

	var candidates []string
	for _, role := range missing {
		candidates = append(candidates, syn[role]...)
		if role == domain.RoleAmount {
			candidates = append(candidates, syn[domain.RoleDebit]...)
		}
	}

	out := make(map[string]string)
	for i, h := range headers {
		if taken[i] || h == "" {
			continue
		}
		best, bestDist := "", maxDistance+1
		for _, c := range candidates {
			if d := levenshtein.ComputeDistance(h, c); d < bestDist && d < len(c) {
				best, bestDist = c, d
			}
		}
		if best != "" {
			out[h] = best
		}
	}
	return out
}
