package categorize

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/logger"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxBatchSize is the largest number of transactions sent in one call.
	MaxBatchSize = 50

	// DefaultConcurrency is the number of batches classified at once.
	DefaultConcurrency = 4
)

// Stats counts how each transaction ended up.
type Stats struct {
	AI            int `json:"ai"`
	Keyword       int `json:"keyword"`
	Uncategorized int `json:"uncategorized"`
}

// Batch is a group of same-type transactions classified together.
type Batch struct {
	Type  domain.TransactionType
	Items []BatchItem
}

// Engine assigns categories in two phases: an optional AI pass followed by
// keyword rules for whatever is left.
type Engine struct {
	Classifier  Classifier
	BatchSize   int
	Concurrency int
}

// NewEngine returns an Engine. classifier may be nil for keyword-only runs.
func NewEngine(classifier Classifier, batchSize, concurrency int) *Engine {
	return &Engine{Classifier: classifier, BatchSize: batchSize, Concurrency: concurrency}
}

func (e *Engine) batchSize() int {
	if e.BatchSize <= 0 || e.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return e.BatchSize
}

func (e *Engine) concurrency() int {
	if e.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return e.Concurrency
}

// Categorize returns a categorized copy of txs. It never fails: a backend
// error only disables the AI pass for this run.
func (e *Engine) Categorize(ctx context.Context, txs []domain.ParsedTransaction, catalog []domain.Category) ([]domain.CategorizedTransaction, Stats) {
	log := logger.FromContext(ctx)

	out := make([]domain.CategorizedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = domain.CategorizedTransaction{ParsedTransaction: tx}
	}

	var stats Stats
	if e.Classifier != nil && len(out) > 0 && len(catalog) > 0 {
		assigned, err := e.classify(ctx, txs, catalog)
		if err != nil {
			log.Warn().Err(err).Int("transactions", len(txs)).Msg("AI categorization failed, falling back to keyword rules")
		} else {
			byID := indexCatalog(catalog)
			for idx, id := range assigned {
				out[idx].AssignCategory(byID[id], domain.SourceAI)
				stats.AI++
			}
		}
	}

	for i := range out {
		if out[i].Categorized() {
			continue
		}
		if cat, ok := MatchKeyword(out[i].Description, out[i].Type, catalog); ok {
			out[i].AssignCategory(cat, domain.SourceKeyword)
			stats.Keyword++
			continue
		}
		stats.Uncategorized++
	}

	log.Info().
		Int("ai", stats.AI).
		Int("keyword", stats.Keyword).
		Int("uncategorized", stats.Uncategorized).
		Msg("Categorization finished")

	return out, stats
}

// classify runs every batch and merges the answers by global index. Any
// failing batch fails the whole pass.
func (e *Engine) classify(ctx context.Context, txs []domain.ParsedTransaction, catalog []domain.Category) (map[int]string, error) {
	batches := PlanBatches(txs, e.batchSize())
	results := make([]map[int]string, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency())
	for i, b := range batches {
		sub := domain.FilterCategoriesByType(catalog, b.Type)
		if len(sub) == 0 {
			continue
		}
		g.Go(func() error {
			m, err := e.Classifier.Classify(gctx, b.Items, sub)
			if err != nil {
				return fmt.Errorf("classify batch %d (%s, %d items): %w", i, b.Type, len(b.Items), err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[int]string)
	for i, m := range results {
		allowed := typeIDs(catalog, batches[i].Type)
		for idx, id := range m {
			if idx < 0 || idx >= len(txs) || txs[idx].Type != batches[i].Type {
				continue
			}
			if _, ok := allowed[id]; ok {
				merged[idx] = id
			}
		}
	}
	return merged, nil
}

// PlanBatches groups txs by type, in first-seen type order, and splits each
// group into batches of at most size items.
func PlanBatches(txs []domain.ParsedTransaction, size int) []Batch {
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	var order []domain.TransactionType
	groups := make(map[domain.TransactionType][]BatchItem)
	for i, tx := range txs {
		if _, ok := groups[tx.Type]; !ok {
			order = append(order, tx.Type)
		}
		groups[tx.Type] = append(groups[tx.Type], BatchItem{
			Index:       i,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Description: tx.Description,
		})
	}

	var out []Batch
	for _, t := range order {
		items := groups[t]
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			out = append(out, Batch{Type: t, Items: items[start:end]})
		}
	}
	return out
}

// MatchKeyword returns the first category of type t, in catalog order, with a
// keyword contained in description.
func MatchKeyword(description string, t domain.TransactionType, catalog []domain.Category) (domain.Category, bool) {
	for _, cat := range domain.FilterCategoriesByType(catalog, t) {
		if cat.MatchesKeyword(description) {
			return cat, true
		}
	}
	return domain.Category{}, false
}

func indexCatalog(catalog []domain.Category) map[string]domain.Category {
	out := make(map[string]domain.Category, len(catalog))
	for _, c := range catalog {
		if _, ok := out[c.ID]; !ok {
			out[c.ID] = c
		}
	}
	return out
}

func typeIDs(catalog []domain.Category, t domain.TransactionType) map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range domain.FilterCategoriesByType(catalog, t) {
		out[c.ID] = struct{}{}
	}
	return out
}
