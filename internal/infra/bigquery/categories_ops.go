package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/domain"
	"google.golang.org/api/iterator"
)

// ListCategoriesWithClient returns the active categories visible to userID,
// in catalog order, using the provided BigQuery client.
func ListCategoriesWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string) ([]domain.Category, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  category_id,
		  user_id,
		  name,
		  type,
		  keywords,
		  position,
		  is_active,
		  created_ts
		FROM %s.categories
		WHERE IFNULL(is_active, TRUE) = TRUE
		  AND (user_id IS NULL OR user_id = @user_id)
		ORDER BY IFNULL(position, 2147483647), name
	`, dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var out []domain.Category
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		out = append(out, r.ToDomain())
	}

	return out, nil
}
