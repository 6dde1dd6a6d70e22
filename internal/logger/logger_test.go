package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("dashboard", "debug", false, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Component("collector").Debug().Str("symbol", "BTC-USD").Msg("fetched")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"service":   "dashboard",
		"component": "collector",
		"symbol":    "BTC-USD",
		"level":     "debug",
		"message":   "fetched",
	} {
		if entry[key] != want {
			t.Errorf("%s: got %v, want %q", key, entry[key], want)
		}
	}
}

func TestInitWithWriter_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("dashboard", "verbose", false, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level fallback, got %s", zerolog.GlobalLevel())
	}
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line should be filtered at info level, got %q", buf.String())
	}
}
