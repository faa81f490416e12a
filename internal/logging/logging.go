package logging

import (
	"io"
	"os"
	"time"

	"statboard/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger: level from config (info when
// unset or invalid), console output for "console"/"combined", JSON otherwise
func Setup(cfg config.LoggingConfig) {
	setup(cfg, os.Stdout)
}

func setup(cfg config.LoggingConfig, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.Format {
	case "console", "combined":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	default:
		log.Logger = zerolog.New(out)
	}

	log.Logger = log.With().Timestamp().Logger()
}
