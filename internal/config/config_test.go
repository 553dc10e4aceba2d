package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("POSTGRES_USER", "florist")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "florist")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GO_ENV", "dev")
	t.Setenv("FE_URL", "http://localhost:5173")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5433, cfg.PostgresPort)
	assert.Equal(t, "disable", cfg.PostgresSSLMode)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.CartCacheTTL)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, "Phoolishh Loveee", cfg.StoreName)
	assert.Equal(t, "#ec4899", cfg.ThemeColor)
	assert.True(t, cfg.PaymentFallback)
	assert.Equal(t, 10, cfg.RelayBurst)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CART_CACHE_TTL", "30m")
	t.Setenv("PAYMENT_FALLBACK", "false")
	t.Setenv("RELAY_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.CartCacheTTL)
	assert.False(t, cfg.PaymentFallback)
	assert.Equal(t, 0.5, cfg.RelayRPS)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_BadNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("POSTGRES_PORT", "abc")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("CART_CACHE_TTL", "tomorrow")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RateLimitMustBePositive(t *testing.T) {
	setRequired(t)
	t.Setenv("RELAY_BURST", "0")

	_, err := Load()
	assert.Error(t, err)
}
