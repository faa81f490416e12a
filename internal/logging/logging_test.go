package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"statboard/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	setup(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Str("summoner", "faker").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["summoner"] != "faker" || entry["time"] == nil {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestSetupDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	setup(config.LoggingConfig{Level: "nonsense"}, &buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info", zerolog.GlobalLevel())
	}
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered, got %q", buf.String())
	}
}

func TestSetupConsole(t *testing.T) {
	var buf bytes.Buffer
	setup(config.LoggingConfig{Level: "info", Format: "console"}, &buf)

	log.Info().Msg("hello console")
	if !strings.Contains(buf.String(), "hello console") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("console output = %q", buf.String())
	}
}
