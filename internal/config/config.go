package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"fjacquet/spend-ledger/internal/logging"
)

// LoadEnv loads environment variables from a .env file in the working directory or its
// parent, if one exists. Variables already set in the environment win.
func LoadEnv(logger logging.Logger) {
	logger = logging.OrNop(logger)

	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			logger.Debug("No .env file found, using environment variables")
			return
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.WithError(err).Warn("Error loading .env file")
		return
	}
	logger.Debug("Loaded environment variables", logging.Field{Key: logging.FieldPath, Value: envFile})
}

// NewLogger builds the application logger from the log section.
func NewLogger(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
}
