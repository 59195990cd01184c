package log

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConsoleWriterLineFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(newConsoleWriter(&buf, true)).
		With().
		Timestamp().
		Str(NameFieldName, Name).
		Logger()

	logger.Info().Msg("bot started")

	line := regexp.MustCompile(`^petbot INFO \([^)]+\): bot started\n$`)
	if !line.MatchString(buf.String()) {
		t.Errorf("unexpected log line %q", buf.String())
	}
}

func TestConsoleWriterLevels(t *testing.T) {
	tests := []struct {
		level zerolog.Level
		want  string
	}{
		{zerolog.DebugLevel, "DEBUG"},
		{zerolog.ErrorLevel, "ERROR"},
		{zerolog.WarnLevel, "WARNING"},
		{zerolog.FatalLevel, "CRITICAL"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := zerolog.New(newConsoleWriter(&buf, true)).With().Str(NameFieldName, Name).Logger()

		logger.WithLevel(tt.level).Msg("x")

		if !strings.HasPrefix(buf.String(), "petbot "+tt.want+" ") {
			t.Errorf("level %s: got %q", tt.level, buf.String())
		}
	}
}

func TestNamedKeepsFieldsAfterMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(newConsoleWriter(&buf, true)).With().Str(NameFieldName, Name).Logger()

	l := Named(logger, "fetcher")
	l.Error().Int("status", 404).Msg("photo api error")

	got := buf.String()
	if !strings.HasPrefix(got, "petbot.fetcher ERROR ") {
		t.Errorf("unexpected prefix %q", got)
	}
	if !strings.Contains(got, "photo api error") || !strings.Contains(got, "status=404") {
		t.Errorf("missing message or field in %q", got)
	}
	if strings.Count(got, "petbot") != 1 {
		t.Errorf("logger name repeated in %q", got)
	}
}

func TestNewLoggerAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	if err := os.WriteFile(path, []byte("previous line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger, closer, err := NewLogger(Options{File: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info().Msg("appended")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != "previous line" {
		t.Fatalf("file not appended: %q", data)
	}
	if !strings.HasPrefix(lines[1], "petbot INFO (") || !strings.HasSuffix(lines[1], "): appended") {
		t.Errorf("unexpected file line %q", lines[1])
	}
}

func TestNewLoggerDebugLevel(t *testing.T) {
	logger, closer, err := NewLogger(Options{Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %s, want debug", logger.GetLevel())
	}
}
