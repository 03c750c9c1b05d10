package bigquery

import (
	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/domain"
)

type CategoryRow struct {
	CategoryID string              `bigquery:"category_id"` // REQUIRED
	UserID     bigquery.NullString `bigquery:"user_id"`     // NULLABLE, NULL = shared by every user

	Name     string   `bigquery:"name"`     // REQUIRED
	Type     string   `bigquery:"type"`     // REQUIRED: income, expense or transfer
	Keywords []string `bigquery:"keywords"` // REPEATED STRING

	Position bigquery.NullInt64 `bigquery:"position"`  // NULLABLE, catalog order
	IsActive bigquery.NullBool  `bigquery:"is_active"` // NULLABLE

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // NULLABLE (defaults to CURRENT_TIMESTAMP())
}

// ToDomain converts the row into a catalog entry.
func (r CategoryRow) ToDomain() domain.Category {
	return domain.Category{
		ID:       r.CategoryID,
		Name:     r.Name,
		Type:     domain.TransactionType(r.Type),
		Keywords: r.Keywords,
	}
}
