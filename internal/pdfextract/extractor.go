package pdfextract

import (
	"regexp"
	"strings"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/normalize"
)

// Phase names the extraction strategy that produced the result.
type Phase string

const (
	PhaseNone    Phase = ""
	PhaseLine    Phase = "line"
	PhaseGrouped Phase = "grouped"
)

// DefaultLookahead is how many lines after a date line the grouped pass
// searches for an amount.
const DefaultLookahead = 5

// Config holds the rules used by an Extractor.
type Config struct {
	DateMatchers  []DateMatcher
	LastAmount    func(s string) (AmountMatch, bool)
	DebitKeywords []string
	Lookahead     int
	Patterns      normalize.Patterns
}

// DefaultConfig returns the built-in extraction rules.
func DefaultConfig() Config {
	return Config{
		DateMatchers:  DefaultDateMatchers(),
		LastAmount:    LastAmount,
		DebitKeywords: []string{"af", "debet", "debit"},
		Lookahead:     DefaultLookahead,
		Patterns:      normalize.DefaultPatterns(),
	}
}

// Result is the outcome of an extraction.
type Result struct {
	Transactions []domain.ParsedTransaction
	Phase        Phase
	Lines        int
}

// Extractor recovers transactions from text extracted from a PDF statement.
type Extractor struct {
	cfg     Config
	debitRe *regexp.Regexp
}

// NewExtractor builds an Extractor from cfg.
func NewExtractor(cfg Config) *Extractor {
	if cfg.LastAmount == nil {
		cfg.LastAmount = LastAmount
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	quoted := make([]string, 0, len(cfg.DebitKeywords))
	for _, kw := range cfg.DebitKeywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	var debitRe *regexp.Regexp
	if len(quoted) > 0 {
		debitRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return &Extractor{cfg: cfg, debitRe: debitRe}
}

// SplitLines returns the trimmed, non-empty lines of text.
func SplitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Extract runs the line-based pass and falls back to the grouped pass when
// the first one finds nothing. Either may return an empty list.
func (e *Extractor) Extract(text string) Result {
	lines := SplitLines(text)

	if txs := e.extractLines(lines); len(txs) > 0 {
		return Result{Transactions: txs, Phase: PhaseLine, Lines: len(lines)}
	}
	if txs := e.extractGrouped(lines); len(txs) > 0 {
		return Result{Transactions: txs, Phase: PhaseGrouped, Lines: len(lines)}
	}
	return Result{Lines: len(lines)}
}

// matchDate tries the date matchers in order. The first matcher that finds
// a date decides; an impossible date rejects the line.
func (e *Extractor) matchDate(line string) (DateMatch, bool) {
	for _, m := range e.cfg.DateMatchers {
		if dm, found := m(line); found {
			return dm, dm.Valid
		}
	}
	return DateMatch{}, false
}

func (e *Extractor) extractLines(lines []string) []domain.ParsedTransaction {
	var out []domain.ParsedTransaction
	for _, line := range lines {
		dm, ok := e.matchDate(line)
		if !ok {
			continue
		}
		rest := line[dm.End:]
		am, ok := e.cfg.LastAmount(rest)
		if !ok {
			continue
		}
		desc := trimDescription(rest[:am.Start])
		if tx, ok := e.build(dm, am, desc, line); ok {
			out = append(out, tx)
		}
	}
	return out
}

func (e *Extractor) extractGrouped(lines []string) []domain.ParsedTransaction {
	var out []domain.ParsedTransaction
	for i := 0; i < len(lines); i++ {
		dm, ok := e.matchDate(lines[i])
		if !ok {
			continue
		}

		parts := []string{lines[i][dm.End:]}
		for j := i + 1; j < len(lines) && j <= i+e.cfg.Lookahead; j++ {
			am, found := e.cfg.LastAmount(lines[j])
			if !found {
				parts = append(parts, lines[j])
				continue
			}
			parts = append(parts, StripAmounts(lines[j]))

			var desc []string
			for _, p := range parts {
				if p = trimDescription(p); p != "" {
					desc = append(desc, p)
				}
			}
			window := strings.Join(lines[i:j+1], " ")
			if tx, ok := e.build(dm, am, strings.Join(desc, " "), window); ok {
				out = append(out, tx)
			}
			i = j
			break
		}
	}
	return out
}

func (e *Extractor) build(dm DateMatch, am AmountMatch, desc, window string) (domain.ParsedTransaction, bool) {
	value, err := normalize.ParseAmount(am.Raw)
	if err != nil || value.IsZero() {
		return domain.ParsedTransaction{}, false
	}

	direction := normalize.DirectionCredit
	if strings.HasPrefix(am.Raw, "-") || (e.debitRe != nil && e.debitRe.MatchString(window)) {
		direction = normalize.DirectionDebit
	}

	description := normalize.CleanDescription(desc)
	txType, abs := e.cfg.Patterns.Classify(value, direction, description)

	return domain.ParsedTransaction{
		Date:        dm.Date,
		Description: description,
		Amount:      abs,
		Type:        txType,
	}, true
}

func trimDescription(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "-–— \t"))
}
