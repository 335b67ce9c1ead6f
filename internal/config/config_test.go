package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.UseKeyRate)
	assert.Equal(t, 5.0, cfg.KeyRateMargin)
	assert.Equal(t, 70, cfg.AlertThreshold)
	assert.Equal(t, 1, cfg.VaRWorkers)
	assert.Nil(t, cfg.VaRSeed)
	assert.Equal(t, 10*time.Second, cfg.StressTimeout)
	assert.Empty(t, cfg.AlertRecipients)
	assert.Len(t, cfg.RescoreScenarios, 5)
}

func TestNewConfig_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOW_GUEST", "true")
	t.Setenv("USE_KEY_RATE", "1")
	t.Setenv("KEY_RATE_MARGIN", "3.5")
	t.Setenv("ALERT_RECIPIENTS", "risk@example.com, cfo@example.com ,")
	t.Setenv("ALERT_THRESHOLD", "80")
	t.Setenv("RESCORE_SCENARIOS", "liquidity_freeze")
	t.Setenv("VAR_WORKERS", "4")
	t.Setenv("VAR_SEED", "42")
	t.Setenv("STRESS_TIMEOUT", "2s")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.AllowGuest)
	assert.True(t, cfg.UseKeyRate)
	assert.Equal(t, 3.5, cfg.KeyRateMargin)
	assert.Equal(t, []string{"risk@example.com", "cfo@example.com"}, cfg.AlertRecipients)
	assert.Equal(t, 80, cfg.AlertThreshold)
	assert.Equal(t, []string{"liquidity_freeze"}, cfg.RescoreScenarios)
	assert.Equal(t, 4, cfg.VaRWorkers)
	require.NotNil(t, cfg.VaRSeed)
	assert.Equal(t, uint64(42), *cfg.VaRSeed)
	assert.Equal(t, 2*time.Second, cfg.StressTimeout)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
}

func TestNewConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := NewConfig()
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "empty db conn", key: "DB_CONN", value: ""},
		{name: "empty jwt secret", key: "JWT_SECRET", value: ""},
		{name: "bad bool", key: "ALLOW_GUEST", value: "maybe"},
		{name: "bad margin", key: "KEY_RATE_MARGIN", value: "five"},
		{name: "threshold out of range", key: "ALERT_THRESHOLD", value: "101"},
		{name: "zero workers", key: "VAR_WORKERS", value: "0"},
		{name: "negative seed", key: "VAR_SEED", value: "-1"},
		{name: "bad timeout", key: "STRESS_TIMEOUT", value: "soon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv(tc.key, tc.value)
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
