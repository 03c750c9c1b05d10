package normalize

import (
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/shopspring/decimal"
)

// Direction is the money flow read from an explicit indicator.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionDebit
	DirectionCredit
)

// ResolveType turns a signed amount and an optional explicit direction into a
// transaction type and an absolute amount. The explicit direction wins over
// the sign.
func ResolveType(amount decimal.Decimal, explicit Direction) (domain.TransactionType, decimal.Decimal) {
	abs := amount.Abs()
	switch explicit {
	case DirectionDebit:
		return domain.TypeExpense, abs
	case DirectionCredit:
		return domain.TypeIncome, abs
	}
	if amount.IsNegative() {
		return domain.TypeExpense, abs
	}
	return domain.TypeIncome, abs
}

// Classify resolves the type and applies transfer detection to description.
func (p Patterns) Classify(amount decimal.Decimal, explicit Direction, description string) (domain.TransactionType, decimal.Decimal) {
	t, abs := ResolveType(amount, explicit)
	if p.IsTransfer(description) {
		t = domain.TypeTransfer
	}
	return t, abs
}
