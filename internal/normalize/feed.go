package normalize

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
)

// NormalizeFeed converts bank-feed items. Booking date is preferred over
// value date, which is preferred over transaction date. Errors use the
// 1-based position of the item in the feed as the line number.
func (n *Normalizer) NormalizeFeed(items []domain.FeedItem) ([]domain.ParsedTransaction, []domain.RowError) {
	var (
		out  []domain.ParsedTransaction
		errs []domain.RowError
	)
	for i, item := range items {
		tx, err := n.normalizeFeedItem(item)
		if err != nil {
			errs = append(errs, domain.RowError{Line: i + 1, Reason: err.Error()})
			continue
		}
		out = append(out, tx)
	}
	return out, errs
}

func (n *Normalizer) normalizeFeedItem(item domain.FeedItem) (domain.ParsedTransaction, error) {
	var (
		date civil.Date
		ok   bool
	)
	for _, raw := range []string{item.BookingDate, item.ValueDate, item.TransactionDate} {
		if raw == "" {
			continue
		}
		if date, ok = n.patterns.ParseDate(raw); ok {
			break
		}
	}
	if !ok {
		return domain.ParsedTransaction{}, fmt.Errorf("no usable date (booking %q, value %q, transaction %q)",
			item.BookingDate, item.ValueDate, item.TransactionDate)
	}

	amount, err := ParseAmount(item.Amount)
	if err != nil {
		return domain.ParsedTransaction{}, err
	}
	if amount.IsZero() {
		return domain.ParsedTransaction{}, fmt.Errorf("zero amount")
	}

	explicit := n.patterns.Indicator(item.Direction)
	description := CleanDescription(feedDescription(item, explicit, amount.IsNegative()))
	txType, abs := n.patterns.Classify(amount, explicit, description)

	return domain.ParsedTransaction{
		Date:        date,
		Description: description,
		Amount:      abs,
		Type:        txType,
	}, nil
}

// feedDescription uses the counterparty: the creditor when money goes out,
// the debtor when it comes in. Remittance lines follow the name.
func feedDescription(item domain.FeedItem, explicit Direction, negative bool) string {
	outgoing := explicit == DirectionDebit || (explicit == DirectionUnknown && negative)

	name := item.DebtorName
	if outgoing {
		name = item.CreditorName
	}
	if name == "" {
		if outgoing {
			name = item.DebtorName
		} else {
			name = item.CreditorName
		}
	}

	parts := []string{strings.TrimSpace(name)}
	for _, line := range item.RemittanceLines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
