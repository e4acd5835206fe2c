// Package money formats integer minor-currency-unit amounts for
// display. No locale negotiation happens here; a shop-configured
// formatter takes precedence when the host supplies one.
package money

import "fmt"

// FormatFunc renders an amount in minor units as a display string.
type FormatFunc func(amount int64) string

// Formatter turns minor-unit amounts into display strings.
type Formatter struct {
	custom FormatFunc
}

// NewFormatter returns a formatter using the host-provided function,
// or the fixed two-decimal dollar fallback when custom is nil.
func NewFormatter(custom FormatFunc) *Formatter {
	return &Formatter{custom: custom}
}

// Format renders the amount.
func (f *Formatter) Format(amount int64) string {
	if f.custom != nil {
		return f.custom(amount)
	}
	return fmt.Sprintf("$%.2f", float64(amount)/100)
}
