package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfans/fxlogger"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Name is the logger name printed at the start of every line.
const Name = "petbot"

// NameFieldName is the event field holding the logger name.
const NameFieldName = "logger"

const timeFormat = "2006-01-02 15:04:05.000"

// Options configures the logger sinks.
type Options struct {
	// File is appended to in addition to stdout. Empty disables it.
	File  string
	Debug bool
}

// OptionsFromEnv reads LOG_FILE and DEBUG. The logger is built before the
// config module so it can report config failures.
func OptionsFromEnv() Options {
	file, ok := os.LookupEnv("LOG_FILE")
	if !ok {
		file = "bot.log"
	}
	return Options{
		File:  file,
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// NewLogger creates a zerolog.Logger writing to stdout and, when configured,
// to an append-only file. The returned closer releases the file.
func NewLogger(opts Options) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = timeFormat

	writers := []io.Writer{newConsoleWriter(os.Stdout, false)}
	closer := io.Closer(nopCloser{})

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, newConsoleWriter(f, true))
		closer = f
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str(NameFieldName, Name).
		Logger()

	return logger, closer, nil
}

// newConsoleWriter renders "<logger-name> <LEVEL> (<timestamp>): <message>"
// followed by any extra fields.
func newConsoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:     out,
		NoColor: noColor,
		PartsOrder: []string{
			NameFieldName,
			zerolog.LevelFieldName,
			zerolog.TimestampFieldName,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{NameFieldName},
		FormatLevel:   formatLevel,
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("(%v):", i)
		},
	}
}

func formatLevel(i interface{}) string {
	switch lvl, _ := i.(string); lvl {
	case zerolog.LevelWarnValue:
		return "WARNING"
	case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "CRITICAL"
	case "":
		return "???"
	default:
		return strings.ToUpper(lvl)
	}
}

// Named returns a child logger for a component, e.g. "petbot.fetcher".
func Named(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str(NameFieldName, Name+"."+component).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Module supplies the logger to the graph and routes fx events through it.
func Module(logger zerolog.Logger) fx.Option {
	return fx.Options(
		fx.Supply(logger),
		fx.WithLogger(fxlogger.WithZerolog(logger)),
	)
}
