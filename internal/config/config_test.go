package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"HTTP_PORT", "STORE_BACKEND", "MONGO_URI", "MONGO_DB_NAME", "REDIS_ADDR", "REDIS_PASSWORD",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "DATABASE_URL", "JWT_SECRET", "JWT_EXPIRY", "SMTP_HOST",
	"SMTP_PORT", "SMTP_FROM", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "ec_store", cfg.MongoDBName)
	assert.False(t, cfg.KafkaEnabled())
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("JWT_EXPIRY", "15m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiry)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STORE_BACKEND", "sqlite"},
		{"HTTP_PORT", "http"},
		{"REQUEST_TIMEOUT", "soon"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateJWT(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.ValidateJWT(), ErrInvalidConfig)

	cfg.JWTSecret = "too-short"
	assert.ErrorIs(t, cfg.ValidateJWT(), ErrInvalidConfig)

	cfg.JWTSecret = "a-secret-that-is-at-least-32-characters"
	assert.NoError(t, cfg.ValidateJWT())
}
