package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, int64(200000), cfg.FreeShippingThreshold)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce())
	assert.Equal(t, 2, cfg.SearchMinQueryLen)
	assert.Equal(t, 6, cfg.SearchMaxResults)
	assert.Equal(t, 4, cfg.UpsellLimit)
	assert.Equal(t, 3*time.Second, cfg.NoticeTTL())
	assert.Contains(t, cfg.ShippingRemainingMsg, "{amount}")
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("FREE_SHIPPING_THRESHOLD", "-5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SEARCH_DEBOUNCE_MS", "150")
	t.Setenv("SEARCH_MAX_RESULTS", "10")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce())
	assert.Equal(t, 10, cfg.SearchMaxResults)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}
