package domain

// FeedItem is one transaction as delivered by a bank-aggregation feed,
// before normalization. Dates and the amount are kept as the raw strings
// the feed sent.
type FeedItem struct {
	Amount          string   `json:"amount"`
	Currency        string   `json:"currency"`
	Direction       string   `json:"direction"`
	BookingDate     string   `json:"booking_date,omitempty"`
	ValueDate       string   `json:"value_date,omitempty"`
	TransactionDate string   `json:"transaction_date,omitempty"`
	CreditorName    string   `json:"creditor_name,omitempty"`
	DebtorName      string   `json:"debtor_name,omitempty"`
	RemittanceLines []string `json:"remittance_lines,omitempty"`
}

// FeedPage is a single page of a paged feed. An empty ContinuationKey means
// the feed has no further pages.
type FeedPage struct {
	Items           []FeedItem
	ContinuationKey string
}
