package domain

import "fmt"

// ColumnRole is the semantic role inferred for a delimited-text column.
type ColumnRole string

const (
	RoleDate        ColumnRole = "date"
	RoleDescription ColumnRole = "description"
	RoleAmount      ColumnRole = "amount"
	RoleDebit       ColumnRole = "debit"
	RoleCredit      ColumnRole = "credit"
	RoleDirection   ColumnRole = "direction"
)

// RawRow holds the string values of one data line keyed by column role.
// Line is the 1-based line number in the source file.
type RawRow struct {
	Line   int
	Values map[ColumnRole]string
}

// Get returns the value bound to role, or "" when the role is unbound.
func (r RawRow) Get(role ColumnRole) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[role]
}

// Has reports whether role was bound for this row.
func (r RawRow) Has(role ColumnRole) bool {
	if r.Values == nil {
		return false
	}
	_, ok := r.Values[role]
	return ok
}

// RowError describes a row that was dropped during parsing.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	if e.Line <= 0 {
		return e.Reason
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}
