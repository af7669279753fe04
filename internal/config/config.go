package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Config is resolved once per process in a fixed order: real environment
// variables first, then a .env file (godotenv never overrides set vars).
// Nothing else in the codebase branches on deployment environment.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	SheetsCredentialsFile string
	SheetID               string
	WorksheetName         string

	DBPath     string
	ServerPort string
	LogLevel   string

	DuplicateCheck     bool
	PersistImageHashes bool
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		SheetsCredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", ""),
		SheetID:               getEnv("GOOGLE_SHEET_ID", ""),
		WorksheetName:         getEnv("WORKSHEET_NAME", "Leaderboard"),
		DBPath:                getEnv("DB_PATH", "scorecard.db"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DuplicateCheck:        getEnvBool("ENABLE_DUPLICATE_CHECK", true),
		PersistImageHashes:    getEnvBool("PERSIST_IMAGE_HASHES", false),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	logger.Info().
		Str("model", cfg.GeminiModel).
		Str("db_path", cfg.DBPath).
		Str("worksheet", cfg.WorksheetName).
		Bool("sheets_configured", cfg.SheetsConfigured()).
		Bool("duplicate_check", cfg.DuplicateCheck).
		Bool("persist_image_hashes", cfg.PersistImageHashes).
		Msg("configuration loaded")

	return cfg, nil
}

// SheetsConfigured reports whether the Google Sheets sink can be attempted.
func (c *Config) SheetsConfigured() bool {
	return c.SheetID != "" && c.SheetsCredentialsFile != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true")
}

var Module = fx.Provide(Load)
