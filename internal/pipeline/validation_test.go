package pipeline

import (
	"errors"
	"testing"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Source
	}{
		{name: "pdf magic", in: Input{Filename: "export.bin", Data: []byte("%PDF-1.7\n...")}, want: SourcePDF},
		{name: "pdf magic after whitespace", in: Input{Data: []byte("\r\n%PDF-1.4")}, want: SourcePDF},
		{name: "zip magic", in: Input{Filename: "upload", Data: []byte("PK\x03\x04rest")}, want: SourceSpreadsheet},
		{name: "pdf extension", in: Input{Filename: "Statement.PDF", Data: []byte("garbage")}, want: SourcePDF},
		{name: "xlsx extension", in: Input{Filename: "a.xlsx", Data: []byte("x")}, want: SourceSpreadsheet},
		{name: "csv", in: Input{Filename: "a.csv", Data: []byte("Datum;Bedrag")}, want: SourceDelimited},
		{name: "no name", in: Input{Data: []byte("Date,Amount")}, want: SourceDelimited},
		{name: "explicit kind wins", in: Input{Kind: SourceDelimited, Data: []byte("%PDF")}, want: SourceDelimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSource(tt.in))
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	catalog := []domain.Category{
		{ID: "groceries", Name: "Boodschappen", Type: domain.TypeExpense},
		{ID: "", Name: "Nameless", Type: domain.TypeExpense},
		{ID: "weird", Name: "Weird", Type: "refund"},
		{ID: " salary ", Name: "Salaris", Type: domain.TypeIncome},
		{ID: "groceries", Name: "Duplicate", Type: domain.TypeExpense},
	}

	valid, problems := ValidateCatalog(catalog)

	require.Len(t, valid, 2)
	assert.Equal(t, "groceries", valid[0].ID)
	assert.Equal(t, "Boodschappen", valid[0].Name)
	assert.Equal(t, "salary", valid[1].ID)

	reasons := make([]string, 0, len(problems))
	for _, p := range problems {
		reasons = append(reasons, p.Reason)
	}
	assert.Equal(t, []string{"empty id", `unknown type "refund"`, "duplicate id"}, reasons)
}

func TestEmptyInputErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      *EmptyInputError
		contains string
	}{
		{name: "pdf", err: &EmptyInputError{Source: SourcePDF}, contains: "PDF"},
		{name: "delimited", err: &EmptyInputError{Source: SourceDelimited, Headers: []string{"datum", "bedrag"}, Rejected: 3}, contains: "detected headers: [datum, bedrag]"},
		{name: "feed", err: &EmptyInputError{Source: SourceFeed, Rejected: 2}, contains: "bank feed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.err
			assert.Contains(t, err.Error(), tt.contains)

			var target *EmptyInputError
			assert.True(t, errors.As(err, &target))
		})
	}
}
