package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP API
	HTTPPort  int
	JWTSecret string

	// Storage
	DBPath      string
	JournalPath string

	// Issuance service; empty URL issues locally
	IssuerURL    string
	IssuerAPIKey string

	// Telegram
	BotToken     string
	AdminChatIDs []int64

	// Platform
	PrimaryAdmin      string
	SecondaryAdmin    string
	DefaultPriceToken string
	PhaseWatchSeconds int

	LogLevel slog.Level
}

func Load() *Config {
	cfg := &Config{
		// HTTP API
		HTTPPort:  getEnvInt("HTTP_PORT", 8080),
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Storage
		DBPath:      getEnv("DB_PATH", "./mintgate.db"),
		JournalPath: getEnv("JOURNAL_PATH", "./journal"),

		// Issuance service
		IssuerURL:    strings.TrimSuffix(getEnv("ISSUER_URL", ""), "/"),
		IssuerAPIKey: getEnv("ISSUER_API_KEY", ""),

		// Telegram
		BotToken: getEnv("BOT_TOKEN", ""),

		// Platform
		PrimaryAdmin:      getEnv("PLATFORM_PRIMARY_ADMIN", ""),
		SecondaryAdmin:    getEnv("PLATFORM_SECONDARY_ADMIN", ""),
		DefaultPriceToken: getEnv("DEFAULT_PRICE_TOKEN", "TON"),
		PhaseWatchSeconds: getEnvPositiveInt("PHASE_WATCH_SECONDS", 30),

		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	// Parse admin chat IDs
	for _, idStr := range strings.Split(getEnv("ADMIN_CHAT_IDS", ""), ",") {
		idStr = strings.TrimSpace(idStr)
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			cfg.AdminChatIDs = append(cfg.AdminChatIDs, id)
		}
	}

	return cfg
}

// IsAdminChat reports whether chatID receives operator notifications
func (c *Config) IsAdminChat(chatID int64) bool {
	for _, id := range c.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvPositiveInt is getEnvInt for intervals: zero and negative values fall back to the default
func getEnvPositiveInt(key string, defaultVal int) int {
	if i := getEnvInt(key, defaultVal); i > 0 {
		return i
	}
	return defaultVal
}
