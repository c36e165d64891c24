package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "DB_PATH", "ADMIN_CHAT_IDS", "LOG_LEVEL", "DEFAULT_PRICE_TOKEN", "ISSUER_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "./mintgate.db", cfg.DBPath)
	assert.Equal(t, "TON", cfg.DefaultPriceToken)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.AdminChatIDs)
	assert.Empty(t, cfg.IssuerURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ADMIN_CHAT_IDS", "12345, -100200, bogus")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ISSUER_URL", "https://issuer.example/api/")

	cfg := Load()
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []int64{12345, -100200}, cfg.AdminChatIDs)
	assert.True(t, cfg.IsAdminChat(-100200))
	assert.False(t, cfg.IsAdminChat(1))
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "https://issuer.example/api", cfg.IssuerURL)
}

func TestLoad_PhaseWatchFallsBackOnNonPositive(t *testing.T) {
	for _, v := range []string{"0", "-5", "soon"} {
		t.Setenv("PHASE_WATCH_SECONDS", v)
		assert.Equal(t, 30, Load().PhaseWatchSeconds, v)
	}

	t.Setenv("PHASE_WATCH_SECONDS", "7")
	assert.Equal(t, 7, Load().PhaseWatchSeconds)
}
