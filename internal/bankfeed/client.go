// Package bankfeed reads account transactions from a bank-aggregation API
// that pages its results with a continuation key.
package bankfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/statement-importer/internal/domain"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 30 * time.Second

// Client fetches transaction pages for one API deployment. Authorization is
// handled outside of this package; the client only carries the access token.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL authenticating with a bearer token.
// base may be nil.
func NewClient(ctx context.Context, baseURL, token string, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{Timeout: DefaultTimeout}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = base.Timeout
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type amountJSON struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type partyJSON struct {
	Name string `json:"name"`
}

type transactionJSON struct {
	TransactionAmount     amountJSON `json:"transaction_amount"`
	CreditDebitIndicator  string     `json:"credit_debit_indicator"`
	BookingDate           string     `json:"booking_date"`
	ValueDate             string     `json:"value_date"`
	TransactionDate       string     `json:"transaction_date"`
	Creditor              *partyJSON `json:"creditor"`
	Debtor                *partyJSON `json:"debtor"`
	RemittanceInformation []string   `json:"remittance_information"`
}

type pageJSON struct {
	Transactions    []transactionJSON `json:"transactions"`
	ContinuationKey string            `json:"continuation_key"`
}

// APIError is a non-2xx answer from the feed.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bank feed returned %d: %s", e.StatusCode, e.Body)
}

// FetchPage reads one page of transactions. An empty continuationKey asks
// for the first page.
func (c *Client) FetchPage(ctx context.Context, accountID, continuationKey string) (domain.FeedPage, error) {
	u := fmt.Sprintf("%s/accounts/%s/transactions", c.baseURL, url.PathEscape(accountID))
	if continuationKey != "" {
		u += "?" + url.Values{"continuation_key": {continuationKey}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("Client.FetchPage: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("Client.FetchPage: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.FeedPage{}, fmt.Errorf("Client.FetchPage: %w", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	var page pageJSON
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return domain.FeedPage{}, fmt.Errorf("Client.FetchPage: decode response: %w", err)
	}

	out := domain.FeedPage{
		Items:           make([]domain.FeedItem, 0, len(page.Transactions)),
		ContinuationKey: page.ContinuationKey,
	}
	for _, t := range page.Transactions {
		out.Items = append(out.Items, t.toItem())
	}
	return out, nil
}

func (t transactionJSON) toItem() domain.FeedItem {
	item := domain.FeedItem{
		Amount:          t.TransactionAmount.Amount,
		Currency:        t.TransactionAmount.Currency,
		Direction:       t.CreditDebitIndicator,
		BookingDate:     t.BookingDate,
		ValueDate:       t.ValueDate,
		TransactionDate: t.TransactionDate,
		RemittanceLines: t.RemittanceInformation,
	}
	if t.Creditor != nil {
		item.CreditorName = t.Creditor.Name
	}
	if t.Debtor != nil {
		item.DebtorName = t.Debtor.Name
	}
	return item
}
