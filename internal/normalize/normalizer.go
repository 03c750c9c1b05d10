package normalize

import (
	"fmt"
	"strings"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/shopspring/decimal"
)

// Normalizer converts raw rows into ParsedTransactions.
type Normalizer struct {
	patterns Patterns
}

// NewNormalizer creates a Normalizer bound to the given rule set.
func NewNormalizer(p Patterns) *Normalizer {
	return &Normalizer{patterns: p}
}

// Patterns returns the rule set the normalizer was built with.
func (n *Normalizer) Patterns() Patterns {
	return n.patterns
}

// Normalize converts rows, dropping the ones whose date or amount cannot be
// read. Every dropped row is reported as a RowError.
func (n *Normalizer) Normalize(rows []domain.RawRow) ([]domain.ParsedTransaction, []domain.RowError) {
	var (
		out  []domain.ParsedTransaction
		errs []domain.RowError
	)
	for _, row := range rows {
		tx, err := n.normalizeRow(row)
		if err != nil {
			errs = append(errs, domain.RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		out = append(out, tx)
	}
	return out, errs
}

func (n *Normalizer) normalizeRow(row domain.RawRow) (domain.ParsedTransaction, error) {
	rawDate := row.Get(domain.RoleDate)
	date, ok := n.patterns.ParseDate(rawDate)
	if !ok {
		return domain.ParsedTransaction{}, fmt.Errorf("invalid date %q", rawDate)
	}

	amount, explicit, err := n.rowAmount(row)
	if err != nil {
		return domain.ParsedTransaction{}, err
	}
	if amount.IsZero() {
		return domain.ParsedTransaction{}, fmt.Errorf("zero amount")
	}

	description := CleanDescription(row.Get(domain.RoleDescription))
	txType, abs := n.patterns.Classify(amount, explicit, description)

	return domain.ParsedTransaction{
		Date:        date,
		Description: description,
		Amount:      abs,
		Type:        txType,
	}, nil
}

// rowAmount picks the amount out of a row. A single amount column is paired
// with the direction column when one is bound; otherwise separate debit and
// credit columns act as the explicit indicator.
func (n *Normalizer) rowAmount(row domain.RawRow) (decimal.Decimal, Direction, error) {
	if raw := strings.TrimSpace(row.Get(domain.RoleAmount)); raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			return decimal.Zero, DirectionUnknown, err
		}
		return amount, n.patterns.Indicator(row.Get(domain.RoleDirection)), nil
	}

	if raw := strings.TrimSpace(row.Get(domain.RoleDebit)); raw != "" {
		amount, err := ParseAmount(raw)
		if err == nil && !amount.IsZero() {
			return amount, DirectionDebit, nil
		}
	}
	if raw := strings.TrimSpace(row.Get(domain.RoleCredit)); raw != "" {
		amount, err := ParseAmount(raw)
		if err == nil && !amount.IsZero() {
			return amount, DirectionCredit, nil
		}
	}

	return decimal.Zero, DirectionUnknown, fmt.Errorf("%w: no amount in row", ErrInvalidAmount)
}

// CleanDescription collapses whitespace and falls back to the sentinel text
// when nothing is left.
func CleanDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " -")
	if s == "" {
		return domain.UnknownDescription
	}
	return s
}
