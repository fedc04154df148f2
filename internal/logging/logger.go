package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger based on level/format settings. Output goes
// to stderr so refined prompts on stdout stay clean.
func NewLogger(level, format string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	var zapLevel zapcore.Level
	if err := zapLevel.Set(strings.ToLower(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	encoding := strings.ToLower(strings.TrimSpace(format))
	switch encoding {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		encoding = "console"
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = encoding
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
