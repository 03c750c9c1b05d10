package pipeline

import (
	"github.com/dvloznov/statement-importer/internal/categorize"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/pdfextract"
)

// Source is the kind of input an import run reads.
type Source string

const (
	SourceAuto        Source = ""
	SourceDelimited   Source = "delimited"
	SourceSpreadsheet Source = "spreadsheet"
	SourcePDF         Source = "pdf"
	SourceFeed        Source = "feed"
)

// Input is an uploaded statement file. Kind may be left empty to detect it
// from the content and the file name.
type Input struct {
	Filename string
	Kind     Source
	Data     []byte
}

// State holds the shared state across all pipeline steps.
type State struct {
	RunID     string
	UserID    string
	Source    Source
	Input     Input
	AccountID string

	// Extraction output. Delimited and spreadsheet files fill Headers and
	// Rows, feeds fill FeedItems, PDFs go straight to Parsed.
	Headers   []string
	Rows      []domain.RawRow
	FeedItems []domain.FeedItem
	PDFPhase  pdfextract.Phase

	Parsed      []domain.ParsedTransaction
	RowErrors   []domain.RowError
	Catalog     []domain.Category
	Categorized []domain.CategorizedTransaction
	Stats       categorize.Stats
	Kept        []domain.CategorizedTransaction
	Skipped     int
	Imported    int
}

// Summary reports the counters of the run so far.
func (s *State) Summary() domain.ImportSummary {
	errs := make([]string, 0, len(s.RowErrors))
	for _, e := range s.RowErrors {
		errs = append(errs, e.Error())
	}
	return domain.ImportSummary{
		Imported:           s.Imported,
		Total:              len(s.Parsed),
		Categorized:        s.Stats.AI + s.Stats.Keyword,
		AICategorized:      s.Stats.AI,
		KeywordCategorized: s.Stats.Keyword,
		Uncategorized:      s.Stats.Uncategorized,
		Skipped:            s.Skipped,
		Errors:             errs,
	}
}
