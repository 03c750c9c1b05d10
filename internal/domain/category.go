package domain

import "strings"

// Category is a spending or income bucket supplied by the category store.
type Category struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
	Keywords []string        `json:"keywords"`
}

// MatchesKeyword reports whether any keyword is a case-insensitive substring
// of description.
func (c Category) MatchesKeyword(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range c.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// FilterCategoriesByType returns the categories of type t in catalog order.
func FilterCategoriesByType(catalog []Category, t TransactionType) []Category {
	var out []Category
	for _, c := range catalog {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}
