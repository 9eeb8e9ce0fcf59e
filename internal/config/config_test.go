package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("ORS_API_KEY", "key")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 10*time.Second, cfg.RoutingTimeout)
	assert.Equal(t, 1, cfg.RoutingMaxAttempts)
	assert.Equal(t, 5.0, cfg.RoutingRatePerSec)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Equal(t, 10, cfg.PageLimit)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, 4, cfg.DistanceDBMaxConns)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Location.String())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ROUTING_TIMEOUT", "3s")
	t.Setenv("PAGE_LIMIT", "25")
	t.Setenv("DISTANCE_DB_MAX_CONNS", "2")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PLANNER_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.RoutingTimeout)
	assert.Equal(t, 25, cfg.PageLimit)
	assert.Equal(t, 2, cfg.DistanceDBMaxConns)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoadRejectsMissingSecretsAndBadValues(t *testing.T) {
	t.Setenv("ORS_API_KEY", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "ORS_API_KEY")

	setRequired(t)
	t.Setenv("PAGE_LIMIT", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "PAGE_LIMIT")
}

func TestGetFallback(t *testing.T) {
	t.Setenv("SOME_KEY", "  ")
	assert.Equal(t, "fb", Get("SOME_KEY", "fb"))
	t.Setenv("SOME_KEY", "v")
	assert.Equal(t, "v", Get("SOME_KEY", "fb"))
}
