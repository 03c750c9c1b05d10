package statement

import "github.com/dvloznov/statement-importer/internal/domain"

// Synonyms maps each column role to its accepted, lowercased header names in
// priority order.
type Synonyms map[domain.ColumnRole][]string

// roleOrder is the order in which single-column roles claim headers.
// Direction goes before debit so that "af bij" is not taken as a debit
// column through its "af" prefix.
var roleOrder = []domain.ColumnRole{
	domain.RoleDate,
	domain.RoleDirection,
	domain.RoleAmount,
	domain.RoleDebit,
	domain.RoleCredit,
}

// DefaultSynonyms returns a fresh copy of the built-in header synonyms.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		domain.RoleDate: {
			"datum", "date", "boekingsdatum", "transactiedatum",
			"booking date", "transaction date", "valutadatum", "rentedatum",
		},
		domain.RoleDirection: {
			"af bij", "af/bij", "bij/af", "debet/credit", "credit/debet",
			"debit/credit", "richting", "direction", "credit debit indicator",
		},
		domain.RoleAmount: {
			"bedrag", "bedrag (eur)", "amount", "transactiebedrag", "waarde",
		},
		domain.RoleDebit: {
			"af", "debet", "debit", "uitgaven", "paid out",
		},
		domain.RoleCredit: {
			"bij", "credit", "inkomsten", "paid in",
		},
		domain.RoleDescription: {
			"naam / omschrijving", "naam/omschrijving", "omschrijving",
			"description", "naam", "name", "mededelingen", "tegenpartij",
			"counterparty", "details",
		},
	}
}
