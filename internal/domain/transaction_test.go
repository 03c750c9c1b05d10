package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignCategory(t *testing.T) {
	groceries := Category{ID: "c1", Name: "Boodschappen", Type: TypeExpense}

	tests := []struct {
		name     string
		start    TransactionType
		wantType TransactionType
	}{
		{name: "income resyncs to expense", start: TypeIncome, wantType: TypeExpense},
		{name: "expense stays expense", start: TypeExpense, wantType: TypeExpense},
		{name: "transfer is never overridden", start: TypeTransfer, wantType: TypeTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := CategorizedTransaction{ParsedTransaction: ParsedTransaction{Type: tt.start}}
			tx.AssignCategory(groceries, SourceKeyword)

			assert.Equal(t, "c1", tx.CategoryID)
			assert.Equal(t, SourceKeyword, tx.CategorySource)
			assert.Equal(t, tt.wantType, tx.Type)
			assert.True(t, tx.Categorized())
		})
	}
}

func TestCategoryMatchesKeyword(t *testing.T) {
	c := Category{Keywords: []string{"albert heijn", " ", "JUMBO"}}

	assert.True(t, c.MatchesKeyword("ALBERT HEIJN 1234 AMSTERDAM"))
	assert.True(t, c.MatchesKeyword("Jumbo Utrecht"))
	assert.False(t, c.MatchesKeyword("Lidl"))
}

func TestFilterCategoriesByType(t *testing.T) {
	catalog := []Category{
		{ID: "a", Type: TypeExpense},
		{ID: "b", Type: TypeIncome},
		{ID: "c", Type: TypeExpense},
	}

	got := FilterCategoriesByType(catalog, TypeExpense)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Empty(t, FilterCategoriesByType(catalog, TypeTransfer))
}

func TestRowErrorMessage(t *testing.T) {
	assert.Equal(t, "line 4: invalid date \"x\"", RowError{Line: 4, Reason: "invalid date \"x\""}.Error())
	assert.Equal(t, "no amount", RowError{Reason: "no amount"}.Error())
}
