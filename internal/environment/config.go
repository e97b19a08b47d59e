// Package environment reads process-level settings from the environment,
// optionally seeded from a .env file in the working directory.
package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	LogLevel slog.Level
	// NatsURL enables progress streaming when set.
	NatsURL     string
	NatsSubject string
}

const defaultNatsSubject = "cpmaker.events"

// ReadEnvConfig loads .env when present. Variables already set in the
// environment win over the file.
func ReadEnvConfig() (*EnvConfig, error) {
	return readEnvConfig(".env")
}

func readEnvConfig(dotenv string) (*EnvConfig, error) {
	err := godotenv.Load(dotenv)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s file: %w", dotenv, err)
	}

	result := &EnvConfig{
		LogLevel:    slog.LevelInfo,
		NatsURL:     os.Getenv("CPMAKER_NATS_URL"),
		NatsSubject: os.Getenv("CPMAKER_NATS_SUBJECT"),
	}
	if result.NatsSubject == "" {
		result.NatsSubject = defaultNatsSubject
	}

	if lvl := strings.TrimSpace(os.Getenv("CPMAKER_LOG_LEVEL")); lvl != "" {
		if err := result.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid CPMAKER_LOG_LEVEL %q: %w", lvl, err)
		}
	}

	return result, nil
}
