package logger

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputFile string
}

func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format:     strings.ToLower(getEnv("LOG_FORMAT", "json")),
		OutputFile: getEnv("LOG_OUTPUT_FILE", "stdout"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// ToZapLevel maps the configured level; unknown values fall back to info.
func (c *LoggerConfig) ToZapLevel() zapcore.Level {
	if c.Level == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
