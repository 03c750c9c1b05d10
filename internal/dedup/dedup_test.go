package dedup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWindowReader struct {
	calls     int
	QueryFunc func(ctx context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error)
}

func (m *mockWindowReader) QueryTransactionsByDateRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error) {
	m.calls++
	return m.QueryFunc(ctx, userID, start, end)
}

func day(d int) civil.Date {
	return civil.Date{Year: 2024, Month: 3, Day: d}
}

func newTx(d int, desc, amount string) domain.CategorizedTransaction {
	return domain.CategorizedTransaction{ParsedTransaction: domain.ParsedTransaction{
		Date:        day(d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Type:        domain.TypeExpense,
	}}
}

func TestKeyOf(t *testing.T) {
	long := strings.Repeat("é", 60)

	a := KeyOf(day(1), decimal.RequireFromString("25.4"), long)
	b := KeyOf(day(1), decimal.RequireFromString("-25.40"), long+" extra")
	assert.Equal(t, a, b, "amount is compared by magnitude and description by its first 50 characters")
	assert.Equal(t, "25.40", a.Amount)
	assert.Len(t, []rune(a.Description), DescriptionPrefix)

	assert.NotEqual(t, a, KeyOf(day(2), decimal.RequireFromString("25.4"), long))
}

func TestWindow(t *testing.T) {
	_, _, ok := Window(nil)
	assert.False(t, ok)

	start, end, ok := Window([]domain.CategorizedTransaction{newTx(9, "a", "1"), newTx(2, "b", "1"), newTx(17, "c", "1")})
	require.True(t, ok)
	assert.Equal(t, day(2), start)
	assert.Equal(t, day(17), end)
}

func TestFilter(t *testing.T) {
	store := &mockWindowReader{
		QueryFunc: func(_ context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, day(1), start)
			assert.Equal(t, day(3), end)
			return []domain.ExistingTransaction{
				{Date: day(1), Amount: decimal.RequireFromString("25.47"), Description: "Albert Heijn"},
			}, nil
		},
	}

	txs := []domain.CategorizedTransaction{
		newTx(1, "Albert Heijn", "25.47"),
		newTx(1, "Albert Heijn", "25.48"),
		newTx(3, "Jumbo", "3.00"),
		newTx(3, "Jumbo", "3.00"),
	}

	kept, skipped, err := Filter(context.Background(), store, "user-1", txs)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Len(t, kept, 3, "identical rows inside one import are both kept")
	assert.Equal(t, 1, store.calls)
}

func TestFilterReimportSkipsEverything(t *testing.T) {
	txs := []domain.CategorizedTransaction{newTx(1, "Albert Heijn", "25.47"), newTx(2, "Shell", "45")}
	store := &mockWindowReader{
		QueryFunc: func(context.Context, string, civil.Date, civil.Date) ([]domain.ExistingTransaction, error) {
			var out []domain.ExistingTransaction
			for _, tx := range txs {
				out = append(out, domain.ExistingTransaction{Date: tx.Date, Amount: tx.Amount, Description: tx.Description})
			}
			return out, nil
		},
	}

	kept, skipped, err := Filter(context.Background(), store, "u", txs)
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Equal(t, 2, skipped)
}

func TestFilterEmptyAndErrors(t *testing.T) {
	store := &mockWindowReader{
		QueryFunc: func(context.Context, string, civil.Date, civil.Date) ([]domain.ExistingTransaction, error) {
			return nil, errors.New("store down")
		},
	}

	kept, skipped, err := Filter(context.Background(), store, "u", nil)
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Zero(t, skipped)
	assert.Zero(t, store.calls)

	_, _, err = Filter(context.Background(), store, "u", []domain.CategorizedTransaction{newTx(1, "x", "1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}
