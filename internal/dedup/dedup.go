// Package dedup drops transactions that are already stored so that importing
// the same statement twice does not create duplicates.
package dedup

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/shopspring/decimal"
)

// DescriptionPrefix is how many characters of the description take part in
// the key.
const DescriptionPrefix = 50

// Key identifies a logical transaction across imports.
type Key struct {
	Date        civil.Date
	Amount      string
	Description string
}

// KeyOf builds the key for a date, absolute amount and description.
func KeyOf(date civil.Date, amount decimal.Decimal, description string) Key {
	runes := []rune(strings.TrimSpace(description))
	if len(runes) > DescriptionPrefix {
		runes = runes[:DescriptionPrefix]
	}
	return Key{
		Date:        date,
		Amount:      amount.Abs().StringFixed(2),
		Description: string(runes),
	}
}

// WindowReader returns the stored transactions of a user between two dates,
// both inclusive.
type WindowReader interface {
	QueryTransactionsByDateRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error)
}

// Window returns the earliest and latest date in txs.
func Window(txs []domain.CategorizedTransaction) (start, end civil.Date, ok bool) {
	for i, tx := range txs {
		if i == 0 || tx.Date.Before(start) {
			start = tx.Date
		}
		if i == 0 || tx.Date.After(end) {
			end = tx.Date
		}
	}
	return start, end, len(txs) > 0
}

// Filter reads the stored window once and keeps the transactions whose key
// is not in it. Repeats inside txs itself are kept.
func Filter(ctx context.Context, store WindowReader, userID string, txs []domain.CategorizedTransaction) ([]domain.CategorizedTransaction, int, error) {
	start, end, ok := Window(txs)
	if !ok {
		return nil, 0, nil
	}

	existing, err := store.QueryTransactionsByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, 0, fmt.Errorf("dedup.Filter: query existing transactions: %w", err)
	}

	seen := make(map[Key]struct{}, len(existing))
	for _, e := range existing {
		seen[KeyOf(e.Date, e.Amount, e.Description)] = struct{}{}
	}

	kept := make([]domain.CategorizedTransaction, 0, len(txs))
	skipped := 0
	for _, tx := range txs {
		if _, dup := seen[KeyOf(tx.Date, tx.Amount, tx.Description)]; dup {
			skipped++
			continue
		}
		kept = append(kept, tx)
	}
	return kept, skipped, nil
}
