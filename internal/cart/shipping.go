package cart

import (
	"strings"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/internal/money"
)

// ShippingCalculator derives free-shipping progress from a cart total.
type ShippingCalculator struct {
	threshold    int64
	successMsg   string
	remainingMsg string
	formatter    *money.Formatter
}

// NewShippingCalculator builds a calculator for one shop's threshold.
// remainingMsg may contain a "{amount}" placeholder, replaced with the
// formatted amount still missing.
func NewShippingCalculator(threshold int64, successMsg, remainingMsg string, formatter *money.Formatter) *ShippingCalculator {
	return &ShippingCalculator{
		threshold:    threshold,
		successMsg:   successMsg,
		remainingMsg: remainingMsg,
		formatter:    formatter,
	}
}

// Progress computes the shipping bar state for a cart total in minor
// units. Percent is clamped to [0, 100] and remaining floored at zero,
// so an over-threshold total never renders an overfull bar.
func (c *ShippingCalculator) Progress(total int64) domain.ShippingProgress {
	if total < 0 {
		total = 0
	}

	if total >= c.threshold {
		return domain.ShippingProgress{
			Percent:  100,
			Achieved: true,
			Message:  c.successMsg,
		}
	}

	remaining := c.threshold - total
	return domain.ShippingProgress{
		Percent:   float64(total) / float64(c.threshold) * 100,
		Remaining: remaining,
		Message:   strings.ReplaceAll(c.remainingMsg, "{amount}", c.formatter.Format(remaining)),
	}
}
