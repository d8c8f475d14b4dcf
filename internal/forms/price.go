// Package forms holds the decode-and-validate helpers for raw form fields.
// Untyped input is normalized here, before any business logic sees it, so
// parsing does not depend on process-wide locale state.
package forms

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceFormat configures how a raw price string is read. It replaces the
// ambient culture the original relied on: the separators are passed in
// explicitly, so parsing is deterministic and testable.
type PriceFormat struct {
	DecimalSeparator   string
	ThousandsSeparator string
	CurrencySymbol     string
}

// DefaultPriceFormat is the en-US style format: "1,299.99", optional "$".
func DefaultPriceFormat() PriceFormat {
	return PriceFormat{
		DecimalSeparator:   ".",
		ThousandsSeparator: ",",
		CurrencySymbol:     "$",
	}
}

// Parse reads a raw submitted price into an exact decimal. It is the
// workflow's own pass over the form value; whatever a binding layer may have
// produced is overwritten with this result.
func (f PriceFormat) Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if f.CurrencySymbol != "" {
		s = strings.TrimSpace(strings.TrimPrefix(s, f.CurrencySymbol))
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("price is required")
	}
	if f.ThousandsSeparator != "" {
		s = strings.ReplaceAll(s, f.ThousandsSeparator, "")
	}
	if f.DecimalSeparator != "" && f.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, f.DecimalSeparator, ".")
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	return price, nil
}
