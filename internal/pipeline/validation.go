package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-importer/internal/domain"
)

// EmptyInputError is returned when a source yields no transactions at all.
type EmptyInputError struct {
	Source   Source
	Headers  []string
	Rejected int
}

func (e *EmptyInputError) Error() string {
	switch e.Source {
	case SourcePDF:
		return "no transactions found in PDF: no line contains a date followed by an amount"
	case SourceFeed:
		return fmt.Sprintf("no usable transactions in bank feed (%d items rejected)", e.Rejected)
	default:
		return fmt.Sprintf("no parsable rows in %s file (%d rows rejected); detected headers: [%s]",
			e.Source, e.Rejected, strings.Join(e.Headers, ", "))
	}
}

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// DetectSource picks the reader for an uploaded file. An explicit kind wins,
// then the content magic, then the file extension. Anything else is read as
// delimited text.
func DetectSource(in Input) Source {
	if in.Kind != SourceAuto {
		return in.Kind
	}
	head := bytes.TrimLeft(in.Data, "\ufeff \t\r\n")
	switch {
	case bytes.HasPrefix(head, pdfMagic):
		return SourcePDF
	case bytes.HasPrefix(in.Data, zipMagic):
		return SourceSpreadsheet
	}
	switch strings.ToLower(filepath.Ext(in.Filename)) {
	case ".pdf":
		return SourcePDF
	case ".xlsx", ".xlsm":
		return SourceSpreadsheet
	}
	return SourceDelimited
}

// CatalogProblem is a category that was left out of the run's catalog.
type CatalogProblem struct {
	CategoryID string
	Reason     string
}

func (p CatalogProblem) Error() string {
	return fmt.Sprintf("category %q: %s", p.CategoryID, p.Reason)
}

// ValidateCatalog drops categories that cannot be assigned safely: missing
// ids, unknown types and repeated ids. Order is preserved.
func ValidateCatalog(catalog []domain.Category) ([]domain.Category, []CatalogProblem) {
	var (
		valid    = make([]domain.Category, 0, len(catalog))
		problems []CatalogProblem
		seen     = make(map[string]bool, len(catalog))
	)
	for _, c := range catalog {
		id := strings.TrimSpace(c.ID)
		switch {
		case id == "":
			problems = append(problems, CatalogProblem{CategoryID: c.Name, Reason: "empty id"})
		case !c.Type.Valid():
			problems = append(problems, CatalogProblem{CategoryID: id, Reason: fmt.Sprintf("unknown type %q", c.Type)})
		case seen[id]:
			problems = append(problems, CatalogProblem{CategoryID: id, Reason: "duplicate id"})
		default:
			seen[id] = true
			c.ID = id
			valid = append(valid, c)
		}
	}
	return valid, problems
}
