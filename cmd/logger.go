package cmd

import (
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog"
)

// cmdConfig holds all configuration for the command line
type cmdConfig struct {
	Format string `env:"LOG_FORMAT" env-default:"text" env-description:"Log output format (text or json)"`
	Level  string `env:"LOG_LEVEL" env-default:"info" env-description:"Log level (debug, info, warn, error)"`
}

func loadCmdConfig() (cmdConfig, error) {
	var conf cmdConfig
	err := cleanenv.ReadEnv(&conf)
	return conf, err
}

// createLogger creates a slog logger from the configuration
func createLogger(conf cmdConfig) *slog.Logger {
	return newLogger(conf, os.Stderr)
}

func newLogger(conf cmdConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	switch conf.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var zerologLogger zerolog.Logger
	if conf.Format == "json" {
		zerologLogger = zerolog.New(out)
	} else {
		zerologLogger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Caller().Logger()
	}

	handler := slogzerolog.Option{
		Level:  level,
		Logger: &zerologLogger,
	}.NewZerologHandler()

	logger := slog.New(handler)

	log.SetFlags(0)
	slog.SetDefault(logger)

	return logger
}
