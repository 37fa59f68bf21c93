// Package logging configures the process-wide zerolog logger.
//
// Packages log through github.com/rs/zerolog/log after Setup has run:
//
//	logging.Setup(cfg.Log)
//	log.Info().Str("path", dbPath).Msg("database initialized")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/bookshelf/internal/config"
)

// Setup installs the global logger according to cfg and returns it.
func Setup(cfg config.Log) zerolog.Logger {
	return SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter is Setup with an explicit output, used by tests.
func SetupWithWriter(cfg config.Log, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := w
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a config value to a zerolog level. Unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Writer adapts the global logger to io.Writer for libraries that expect a
// standard logger (gin's default writer, the task queue).
type Writer struct {
	Level zerolog.Level
}

func (w Writer) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	log.WithLevel(w.Level).Msg(msg)
	return len(p), nil
}
