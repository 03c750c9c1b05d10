package normalize

import "strings"

// Patterns is the immutable rule set used by the Normalizer. Build one with
// DefaultPatterns and adjust the copy when a caller needs different rules.
type Patterns struct {
	// DateRules are tried in order; the first rule that returns ok wins.
	DateRules []DateRule

	// TransferPhrases force type=transfer when found in a lowercased description.
	TransferPhrases []string

	// DebitIndicators and CreditIndicators are the accepted values of an
	// explicit direction column, compared lowercased and trimmed.
	DebitIndicators  []string
	CreditIndicators []string
}

var (
	defaultTransferPhrases = []string{
		"spaarrekening",
		"naar eigen rekening",
		"van eigen rekening",
		"beleggingsrek",
		"tussenrekening",
		"oranje spaarrekening",
		"internal transfer",
		"own account transfer",
	}

	defaultDebitIndicators  = []string{"af", "debet", "debit", "d", "dbit", "dr", "-", "uit", "afschrijving"}
	defaultCreditIndicators = []string{"bij", "credit", "c", "crdt", "cr", "+", "in", "bijschrijving"}
)

// DefaultPatterns returns a fresh copy of the built-in rule set.
func DefaultPatterns() Patterns {
	return Patterns{
		DateRules:        DefaultDateRules(),
		TransferPhrases:  append([]string(nil), defaultTransferPhrases...),
		DebitIndicators:  append([]string(nil), defaultDebitIndicators...),
		CreditIndicators: append([]string(nil), defaultCreditIndicators...),
	}
}

// IsTransfer reports whether description contains one of the transfer phrases.
func (p Patterns) IsTransfer(description string) bool {
	desc := strings.ToLower(description)
	for _, phrase := range p.TransferPhrases {
		if phrase != "" && strings.Contains(desc, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// Indicator classifies the value of an explicit direction column.
func (p Patterns) Indicator(value string) Direction {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return DirectionUnknown
	}
	for _, d := range p.DebitIndicators {
		if v == d {
			return DirectionDebit
		}
	}
	for _, c := range p.CreditIndicators {
		if v == c {
			return DirectionCredit
		}
	}
	return DirectionUnknown
}
