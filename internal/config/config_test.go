package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "./userdir.db", cfg.DataSource())
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 720*time.Hour, cfg.EventRetention)
	assert.Equal(t, "@daily", cfg.EventPruneSchedule)
	assert.Equal(t, 15*time.Second, cfg.StatsInterval)
	assert.InDelta(t, 90.0, cfg.CPUAlertThreshold, 0.001)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://app@localhost/userdir")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_PRETTY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "postgres://app@localhost/userdir", cfg.DataSource())
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.LogPretty)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "oracle"}},
		{"postgres without url", map[string]string{"DATABASE_DRIVER": "postgres"}},
		{"zero ttl", map[string]string{"TOKEN_TTL": "0s"}},
		{"bad port", map[string]string{"PORT": "70000"}},
		{"unparseable duration", map[string]string{"TOKEN_TTL": "soon"}},
		{"negative retention", map[string]string{"EVENT_RETENTION": "-1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_RetentionNeedsSchedule(t *testing.T) {
	cfg := Config{
		ServerPort:     8080,
		DatabaseDriver: DriverMemory,
		JWTSecret:      "s3cret",
		TokenTTL:       time.Hour,
		EventRetention: time.Hour,
	}
	assert.Error(t, cfg.Validate())

	cfg.EventPruneSchedule = "@hourly"
	assert.NoError(t, cfg.Validate())

	cfg.EventRetention = 0
	cfg.EventPruneSchedule = ""
	assert.NoError(t, cfg.Validate())
}
