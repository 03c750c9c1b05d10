package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-importer/internal/bankfeed"
	"github.com/dvloznov/statement-importer/internal/categorize"
	"github.com/dvloznov/statement-importer/internal/dedup"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/dvloznov/statement-importer/internal/normalize"
	"github.com/dvloznov/statement-importer/internal/pdfextract"
	"github.com/dvloznov/statement-importer/internal/statement"
)

// Step represents a single step in the import pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Step 1 (files): ExtractStep reads raw rows, or transactions for PDFs, out
// of the uploaded bytes.
type ExtractStep struct {
	Synonyms statement.Synonyms
	PDF      *pdfextract.Extractor
	Text     TextExtractor
}

func (s *ExtractStep) Name() string { return "extract" }

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	switch state.Source {
	case SourcePDF:
		if s.Text == nil {
			return fmt.Errorf("ExtractStep: no PDF text extractor configured")
		}
		text, err := s.Text.ExtractText(ctx, state.Input.Data)
		if err != nil {
			return fmt.Errorf("ExtractStep: read pdf: %w", err)
		}
		res := s.PDF.Extract(text)
		if len(res.Transactions) == 0 {
			return &EmptyInputError{Source: SourcePDF}
		}
		state.Parsed = res.Transactions
		state.PDFPhase = res.Phase
		log.Info().Int("lines", res.Lines).Int("transactions", len(res.Transactions)).
			Str("phase", string(res.Phase)).Msg("Extracted transactions from PDF")
		return nil

	case SourceSpreadsheet:
		res, err := statement.ParseSpreadsheet(state.Input.Data, s.Synonyms)
		if err != nil {
			return fmt.Errorf("ExtractStep: %w", err)
		}
		state.Headers, state.Rows = res.Headers, res.Rows

	case SourceDelimited:
		res, err := statement.ParseDelimited(state.Input.Data, s.Synonyms)
		if err != nil {
			return fmt.Errorf("ExtractStep: %w", err)
		}
		state.Headers, state.Rows = res.Headers, res.Rows

	default:
		return fmt.Errorf("ExtractStep: unsupported source %q", state.Source)
	}

	log.Info().Strs("headers", state.Headers).Int("rows", len(state.Rows)).Msg("Extracted rows")
	return nil
}

// Step 1 (feeds): FetchFeedStep pages through the bank feed and keeps every
// item in memory.
type FetchFeedStep struct {
	Source   FeedSource
	MaxPages int
}

func (s *FetchFeedStep) Name() string { return "fetch-feed" }

func (s *FetchFeedStep) Execute(ctx context.Context, state *State) error {
	items, pages, err := bankfeed.Collect(ctx, s.Source, state.AccountID, s.MaxPages)
	if err != nil {
		return fmt.Errorf("FetchFeedStep: %w", err)
	}
	state.FeedItems = items
	log := logger.FromContext(ctx)
	log.Info().Str("account_id", state.AccountID).Int("pages", pages).
		Int("items", len(items)).Msg("Fetched bank feed")
	return nil
}

// Step 2: NormalizeStep turns rows or feed items into parsed transactions.
type NormalizeStep struct {
	Normalizer *normalize.Normalizer
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	switch state.Source {
	case SourcePDF:
		// Already normalized by the extractor.
		return nil
	case SourceFeed:
		if len(state.FeedItems) == 0 {
			return nil
		}
		state.Parsed, state.RowErrors = s.Normalizer.NormalizeFeed(state.FeedItems)
		if len(state.Parsed) == 0 {
			return &EmptyInputError{Source: SourceFeed, Rejected: len(state.RowErrors)}
		}
	default:
		state.Parsed, state.RowErrors = s.Normalizer.Normalize(state.Rows)
		if len(state.Parsed) == 0 {
			return &EmptyInputError{Source: state.Source, Headers: state.Headers, Rejected: len(state.RowErrors)}
		}
	}

	log := logger.FromContext(ctx)
	log.Info().Int("parsed", len(state.Parsed)).Int("rejected", len(state.RowErrors)).
		Msg("Normalized transactions")
	return nil
}

// Step 3: LoadCatalogStep reads the user's categories once for the run.
type LoadCatalogStep struct {
	Store CategoryStore
}

func (s *LoadCatalogStep) Name() string { return "load-catalog" }

func (s *LoadCatalogStep) Execute(ctx context.Context, state *State) error {
	if len(state.Parsed) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	catalog, err := s.Store.ListCategories(ctx, state.UserID)
	if err != nil {
		return fmt.Errorf("LoadCatalogStep: list categories: %w", err)
	}
	valid, problems := ValidateCatalog(catalog)
	for _, p := range problems {
		log.Warn().Str("category_id", p.CategoryID).Str("reason", p.Reason).Msg("Skipping category")
	}
	if len(valid) == 0 {
		log.Warn().Msg("Category catalog is empty, transactions will stay uncategorized")
	}
	state.Catalog = valid
	return nil
}

// Step 4: CategorizeStep assigns categories.
type CategorizeStep struct {
	Engine *categorize.Engine
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *State) error {
	state.Categorized, state.Stats = s.Engine.Categorize(ctx, state.Parsed, state.Catalog)
	return nil
}

// Step 5: DedupStep drops transactions already stored for the user.
type DedupStep struct {
	Store dedup.WindowReader
}

func (s *DedupStep) Name() string { return "dedup" }

func (s *DedupStep) Execute(ctx context.Context, state *State) error {
	kept, skipped, err := dedup.Filter(ctx, s.Store, state.UserID, state.Categorized)
	if err != nil {
		return fmt.Errorf("DedupStep: %w", err)
	}
	state.Kept, state.Skipped = kept, skipped
	log := logger.FromContext(ctx)
	log.Info().Int("kept", len(kept)).Int("skipped", skipped).Msg("Deduplicated transactions")
	return nil
}

// Step 6: PersistStep writes the new transactions. It is the only step that
// writes to the transaction store.
type PersistStep struct {
	Store TransactionStore
}

func (s *PersistStep) Name() string { return "persist" }

func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	if len(state.Kept) == 0 {
		return nil
	}
	if err := s.Store.InsertTransactions(ctx, state.UserID, state.RunID, state.Kept); err != nil {
		return fmt.Errorf("PersistStep: insert transactions: %w", err)
	}
	state.Imported = len(state.Kept)
	log := logger.FromContext(ctx)
	log.Info().Int("imported", state.Imported).Msg("Persisted transactions")
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially and stops at the first
// failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) not started: %w", i+1, step.Name(), err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}
