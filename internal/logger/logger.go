// Package logger provides structured logging using zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var globalLogger zerolog.Logger

type Config struct {
	Level  string `mapstructure:"level"`
	Debug  bool   `mapstructure:"debug"`
	Output string `mapstructure:"output"`
	Format string `mapstructure:"format"`
}

func init() {
	globalLogger = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init replaces the global logger according to config.
//
// Output is "stderr" (default) or "stdout". Format is "console" (default) or
// "json".
func Init(config Config) error {
	var output io.Writer

	switch config.Output {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		return fmt.Errorf("unknown log output %q", config.Output)
	}

	switch config.Format {
	case "", "console":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return err
		}
	}

	globalLogger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = globalLogger

	return nil
}

func GetLogger() zerolog.Logger {
	return globalLogger
}

func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}
