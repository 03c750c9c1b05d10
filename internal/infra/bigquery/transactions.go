package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	UserID      string `bigquery:"user_id"`       // REQUIRED
	ImportRunID string `bigquery:"import_run_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC, always >= 0
	Type   string   `bigquery:"type"`   // REQUIRED: income, expense or transfer

	Description string `bigquery:"description"` // REQUIRED STRING

	CategoryID     bigquery.NullString `bigquery:"category_id"`     // NULLABLE
	CategorySource bigquery.NullString `bigquery:"category_source"` // NULLABLE: ai or keyword

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// NewTransactionRow maps a categorized transaction to its table row.
func NewTransactionRow(userID, runID string, tx domain.CategorizedTransaction, now time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   uuid.NewString(),
		UserID:          userID,
		ImportRunID:     runID,
		TransactionDate: tx.Date,
		Amount:          tx.Amount.Rat(),
		Type:            string(tx.Type),
		Description:     tx.Description,
		CategoryID:      bigquery.NullString{StringVal: tx.CategoryID, Valid: tx.CategoryID != ""},
		CategorySource:  bigquery.NullString{StringVal: string(tx.CategorySource), Valid: tx.CategorySource != ""},
		CreatedTS:       now,
	}
}

// transactionReadRow is the shape of transaction queries. The amount is
// selected as a string so it converts to a decimal without rounding.
type transactionReadRow struct {
	TransactionID   string              `bigquery:"transaction_id"`
	ImportRunID     string              `bigquery:"import_run_id"`
	TransactionDate civil.Date          `bigquery:"transaction_date"`
	Amount          string              `bigquery:"amount"`
	Type            string              `bigquery:"type"`
	Description     string              `bigquery:"description"`
	CategoryID      bigquery.NullString `bigquery:"category_id"`
	CategorySource  bigquery.NullString `bigquery:"category_source"`
	CreatedTS       time.Time           `bigquery:"created_ts"`
}

func (r transactionReadRow) toDomain() (domain.StoredTransaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return domain.StoredTransaction{}, err
	}
	return domain.StoredTransaction{
		ID:    r.TransactionID,
		RunID: r.ImportRunID,
		CategorizedTransaction: domain.CategorizedTransaction{
			ParsedTransaction: domain.ParsedTransaction{
				Date:        r.TransactionDate,
				Description: r.Description,
				Amount:      amount,
				Type:        domain.TransactionType(r.Type),
			},
			CategoryID:     r.CategoryID.StringVal,
			CategorySource: domain.CategorySource(r.CategorySource.StringVal),
		},
		CreatedAt: r.CreatedTS,
	}, nil
}
