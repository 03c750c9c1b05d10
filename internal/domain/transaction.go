package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType encodes the direction of money for a transaction.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// UnknownDescription replaces descriptions that are empty after cleanup.
const UnknownDescription = "unknown transaction"

// ParsedTransaction is one normalized statement line.
// Amount is always the absolute magnitude; the direction lives in Type.
type ParsedTransaction struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
}

// CategorySource tells which categorization phase assigned a category.
type CategorySource string

const (
	SourceNone    CategorySource = ""
	SourceAI      CategorySource = "ai"
	SourceKeyword CategorySource = "keyword"
)

// CategorizedTransaction is the last in-memory form before persistence.
type CategorizedTransaction struct {
	ParsedTransaction
	CategoryID     string         `json:"category_id,omitempty"`
	CategorySource CategorySource `json:"category_source,omitempty"`
}

// Categorized reports whether a category has been assigned.
func (t CategorizedTransaction) Categorized() bool {
	return t.CategoryID != ""
}

// AssignCategory sets the category and re-syncs the type to the category's
// type. Transfers keep their type.
func (t *CategorizedTransaction) AssignCategory(c Category, source CategorySource) {
	t.CategoryID = c.ID
	t.CategorySource = source
	if t.Type != TypeTransfer && c.Type.Valid() {
		t.Type = c.Type
	}
}

// ExistingTransaction is the slice of a stored transaction needed for dedup.
type ExistingTransaction struct {
	Date        civil.Date
	Amount      decimal.Decimal
	Description string
}
