package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a value does not contain a number.
var ErrInvalidAmount = errors.New("invalid amount")

var amountNoiseRe = regexp.MustCompile(`[^0-9.,\-]`)

// ParseAmount reads a signed decimal from a locale-formatted amount.
//
// Everything except digits, '.', ',' and '-' is dropped. When both '.' and
// ',' are present, '.' groups thousands and ',' is the decimal mark. A lone
// ',' is the decimal mark as well.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountNoiseRe.ReplaceAllString(s, "")

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	// Some exports put the sign last ("25,47-").
	if strings.HasSuffix(cleaned, "-") && !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + strings.TrimSuffix(cleaned, "-")
	}

	if cleaned == "" || cleaned == "-" || strings.Count(cleaned, "-") > 1 || strings.LastIndex(cleaned, "-") > 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
