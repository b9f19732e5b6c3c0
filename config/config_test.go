package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("SESSION_COOKIE", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, "token", cfg.Session.CookieName)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://bugs.example.com/api/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("FANOUT_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://bugs.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 8, cfg.API.FanOutConcurrency)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: "8080"},
		API:     APIConfig{BaseURL: "http://api", FanOutConcurrency: 1},
		Session: SessionConfig{CookieName: "token"},
	}
	require.NoError(t, cfg.Validate())

	cfg.API.FanOutConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg.API.FanOutConcurrency = 1
	cfg.Session.CookieName = ""
	assert.Error(t, cfg.Validate())
}
