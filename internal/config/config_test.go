package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "password-recovery", cfg.AmqpQueue)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg := Load()
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
}

func TestAccessTokenTTLFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
}

func TestDSNContainsAllParts(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "svc",
		DBPassword: "pw",
		DBName:     "auth",
		DBSSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "sslmode=require")
}
