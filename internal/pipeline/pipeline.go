package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-importer/internal/categorize"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/dvloznov/statement-importer/internal/normalize"
	"github.com/dvloznov/statement-importer/internal/pdfextract"
	"github.com/dvloznov/statement-importer/internal/statement"
	"github.com/google/uuid"
)

// Config wires an Importer. Categories and Transactions are required; the
// rest fall back to defaults or disable the matching feature when nil.
type Config struct {
	Categories   CategoryStore
	Transactions TransactionStore
	Runs         RunRecorder
	Text         TextExtractor
	Classifier   categorize.Classifier

	BatchSize     int
	Concurrency   int
	FeedPageLimit int

	Synonyms statement.Synonyms
	Patterns *normalize.Patterns
	PDF      *pdfextract.Config
}

// Importer runs statement files and bank feeds through the import pipeline.
type Importer struct {
	categories   CategoryStore
	transactions TransactionStore
	runs         RunRecorder
	text         TextExtractor

	engine        *categorize.Engine
	normalizer    *normalize.Normalizer
	extractor     *pdfextract.Extractor
	synonyms      statement.Synonyms
	feedPageLimit int
}

// NewImporter builds an Importer from cfg.
func NewImporter(cfg Config) *Importer {
	patterns := normalize.DefaultPatterns()
	if cfg.Patterns != nil {
		patterns = *cfg.Patterns
	}

	pdfCfg := pdfextract.DefaultConfig()
	if cfg.PDF != nil {
		pdfCfg = *cfg.PDF
	}
	pdfCfg.Patterns = patterns

	synonyms := cfg.Synonyms
	if synonyms == nil {
		synonyms = statement.DefaultSynonyms()
	}

	text := cfg.Text
	if text == nil {
		text = pdfextract.TextExtractor{}
	}

	pageLimit := cfg.FeedPageLimit
	if pageLimit <= 0 {
		pageLimit = DefaultFeedPageLimit
	}

	return &Importer{
		categories:    cfg.Categories,
		transactions:  cfg.Transactions,
		runs:          cfg.Runs,
		text:          text,
		engine:        categorize.NewEngine(cfg.Classifier, cfg.BatchSize, cfg.Concurrency),
		normalizer:    normalize.NewNormalizer(patterns),
		extractor:     pdfextract.NewExtractor(pdfCfg),
		synonyms:      synonyms,
		feedPageLimit: pageLimit,
	}
}

// tail returns the steps shared by every source, in order.
func (i *Importer) tail() []Step {
	return []Step{
		&NormalizeStep{Normalizer: i.normalizer},
		&LoadCatalogStep{Store: i.categories},
		&CategorizeStep{Engine: i.engine},
		&DedupStep{Store: i.transactions},
		&PersistStep{Store: i.transactions},
	}
}

// NewFilePipeline creates the pipeline for uploaded statement files.
func (i *Importer) NewFilePipeline() *Pipeline {
	extract := &ExtractStep{Synonyms: i.synonyms, PDF: i.extractor, Text: i.text}
	return NewPipeline(append([]Step{extract}, i.tail()...)...)
}

// NewFeedPipeline creates the pipeline for a bank feed.
func (i *Importer) NewFeedPipeline(src FeedSource) *Pipeline {
	fetch := &FetchFeedStep{Source: src, MaxPages: i.feedPageLimit}
	return NewPipeline(append([]Step{fetch}, i.tail()...)...)
}

// Import runs one uploaded statement file. Row level problems end up in the
// summary; an unreadable file, an unrecognized layout or a file without any
// usable row is returned as an error.
func (i *Importer) Import(ctx context.Context, userID string, in Input) (domain.ImportSummary, error) {
	state := &State{
		UserID: userID,
		Source: DetectSource(in),
		Input:  in,
	}
	return i.run(ctx, state, in.Filename, i.NewFilePipeline())
}

// ImportFeed reads every page of an account's feed and imports the result.
func (i *Importer) ImportFeed(ctx context.Context, userID string, src FeedSource, accountID string) (domain.ImportSummary, error) {
	state := &State{
		UserID:    userID,
		Source:    SourceFeed,
		AccountID: accountID,
	}
	return i.run(ctx, state, accountID, i.NewFeedPipeline(src))
}

func (i *Importer) run(ctx context.Context, state *State, name string, p *Pipeline) (domain.ImportSummary, error) {
	if state.UserID == "" {
		state.UserID = DefaultUserID
	}

	runID, err := i.startRun(ctx, state, name)
	if err != nil {
		return domain.ImportSummary{}, err
	}
	state.RunID = runID

	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"run_id":  runID,
		"user_id": state.UserID,
		"source":  string(state.Source),
	})
	ctx = logger.WithContext(ctx, log)
	log.Info().Str("name", name).Msg("Starting import")

	if err := p.Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Import failed")
		if i.runs != nil {
			i.runs.MarkImportRunFailed(ctx, runID, err)
		}
		return state.Summary(), err
	}

	summary := state.Summary()
	if i.runs != nil {
		if err := i.runs.MarkImportRunSucceeded(ctx, runID, summary); err != nil {
			log.Warn().Err(err).Msg("Failed to record import run result")
		}
	}
	log.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Int("errors", len(summary.Errors)).
		Msg("Import finished")
	return summary, nil
}

func (i *Importer) startRun(ctx context.Context, state *State, name string) (string, error) {
	if i.runs == nil {
		return uuid.NewString(), nil
	}
	runID, err := i.runs.StartImportRun(ctx, state.UserID, string(state.Source), name)
	if err != nil {
		return "", fmt.Errorf("Importer: start import run: %w", err)
	}
	return runID, nil
}
