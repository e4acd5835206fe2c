package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curetcore/velox-storefront/internal/money"
)

func newTestCalculator() *ShippingCalculator {
	return NewShippingCalculator(
		200000,
		"You have free shipping!",
		"Add {amount} more for free shipping",
		money.NewFormatter(nil),
	)
}

func TestShippingProgress_BelowThreshold(t *testing.T) {
	got := newTestCalculator().Progress(150000)

	assert.InDelta(t, 75.0, got.Percent, 0.001)
	assert.Equal(t, int64(50000), got.Remaining)
	assert.False(t, got.Achieved)
	assert.Equal(t, "Add $500.00 more for free shipping", got.Message)
}

func TestShippingProgress_AtThreshold(t *testing.T) {
	got := newTestCalculator().Progress(200000)

	assert.Equal(t, 100.0, got.Percent)
	assert.Equal(t, int64(0), got.Remaining)
	assert.True(t, got.Achieved)
	assert.Equal(t, "You have free shipping!", got.Message)
}

func TestShippingProgress_OverThresholdClamps(t *testing.T) {
	got := newTestCalculator().Progress(250000)

	assert.Equal(t, 100.0, got.Percent)
	assert.Equal(t, int64(0), got.Remaining)
	assert.True(t, got.Achieved)
}

func TestShippingProgress_EmptyCart(t *testing.T) {
	got := newTestCalculator().Progress(0)

	assert.Equal(t, 0.0, got.Percent)
	assert.Equal(t, int64(200000), got.Remaining)
	assert.False(t, got.Achieved)
	assert.Equal(t, "Add $2000.00 more for free shipping", got.Message)
}

func TestShippingProgress_NegativeTotalFlooredAtZero(t *testing.T) {
	got := newTestCalculator().Progress(-500)

	assert.Equal(t, 0.0, got.Percent)
	assert.Equal(t, int64(200000), got.Remaining)
}

func TestShippingProgress_CustomFormatter(t *testing.T) {
	calc := NewShippingCalculator(
		200000,
		"Free shipping unlocked",
		"{amount} to go",
		money.NewFormatter(func(amount int64) string { return "500 kr" }),
	)

	got := calc.Progress(150000)
	assert.Equal(t, "500 kr to go", got.Message)
}
