package bankfeed

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-importer/internal/domain"
)

var (
	// ErrLoopingCursor is returned when the feed hands out a continuation
	// key it already returned.
	ErrLoopingCursor = errors.New("bank feed repeated a continuation key")

	// ErrPageLimit is returned when the feed has more pages than allowed.
	ErrPageLimit = errors.New("bank feed page limit reached")
)

// PageSource is a paged transaction feed.
type PageSource interface {
	FetchPage(ctx context.Context, accountID, continuationKey string) (domain.FeedPage, error)
}

// Collect follows continuation keys until the feed reports no further pages
// and returns every item read. maxPages <= 0 means no limit.
func Collect(ctx context.Context, src PageSource, accountID string, maxPages int) ([]domain.FeedItem, int, error) {
	var (
		items []domain.FeedItem
		key   string
		seen  = map[string]bool{}
	)
	for pages := 1; ; pages++ {
		if maxPages > 0 && pages > maxPages {
			return nil, pages - 1, fmt.Errorf("Collect: account %s: %w (%d)", accountID, ErrPageLimit, maxPages)
		}

		page, err := src.FetchPage(ctx, accountID, key)
		if err != nil {
			return nil, pages, fmt.Errorf("Collect: account %s page %d: %w", accountID, pages, err)
		}
		items = append(items, page.Items...)

		if page.ContinuationKey == "" {
			return items, pages, nil
		}
		if seen[page.ContinuationKey] {
			return nil, pages, fmt.Errorf("Collect: account %s: %w: %q", accountID, ErrLoopingCursor, page.ContinuationKey)
		}
		seen[page.ContinuationKey] = true
		key = page.ContinuationKey
	}
}
