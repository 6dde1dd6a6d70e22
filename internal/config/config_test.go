package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.DataSource.DefaultSymbol != "BTC-USD" || cfg.DataSource.DefaultStart != "2024-01-01" {
		t.Errorf("unexpected defaults: %q %q", cfg.DataSource.DefaultSymbol, cfg.DataSource.DefaultStart)
	}
	if cfg.Cache.TTL != 20*time.Minute {
		t.Errorf("ttl: got %v", cfg.Cache.TTL)
	}
	if len(cfg.Schedule.Symbols) != 1 || cfg.Schedule.Symbols[0] != "BTC-USD" {
		t.Errorf("symbols: got %v", cfg.Schedule.Symbols)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
data_source:
  provider: mock
  default_symbol: ETH-USD
  timeout: 5s
cache:
  ttl: 1m
schedule:
  symbols: [ETH-USD, SOL-USD]
`)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("WATCH_SYMBOLS", "BTC-USD, ADA-USD,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("env should override addr, got %q", cfg.Server.Addr)
	}
	if cfg.DataSource.Provider != "mock" || cfg.DataSource.DefaultSymbol != "ETH-USD" {
		t.Errorf("yaml values lost: %+v", cfg.DataSource)
	}
	if cfg.DataSource.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", cfg.DataSource.Timeout)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("ttl: got %v", cfg.Cache.TTL)
	}
	if len(cfg.Schedule.Symbols) != 2 || cfg.Schedule.Symbols[1] != "ADA-USD" {
		t.Errorf("symbols: got %v", cfg.Schedule.Symbols)
	}
}

func TestLoad_ZeroTTLDisablesCache(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cache:\n  ttl: 0s\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.TTL != 0 {
		t.Errorf("yaml ttl 0s: got %v", cfg.Cache.TTL)
	}

	t.Setenv("CACHE_TTL", "0")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.TTL != 0 {
		t.Errorf("CACHE_TTL=0: got %v", cfg.Cache.TTL)
	}
}

func TestLoad_TTLCoversWarmupInterval(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schedule.WarmupCron != "0 */15 * * * *" || cfg.Cache.TTL < 15*time.Minute {
		t.Errorf("ttl %v expires before the next warm-up (%q)", cfg.Cache.TTL, cfg.Schedule.WarmupCron)
	}
}

func TestLoad_NormalizesSymbols(t *testing.T) {
	path := writeConfig(t, `
data_source:
  default_symbol: " btc-usd "
schedule:
  symbols: [eth-usd, " ETH-USD", "", sol-usd]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.DefaultSymbol != "BTC-USD" {
		t.Errorf("default symbol: got %q", cfg.DataSource.DefaultSymbol)
	}
	want := []string{"ETH-USD", "SOL-USD"}
	if len(cfg.Schedule.Symbols) != len(want) {
		t.Fatalf("symbols: got %v", cfg.Schedule.Symbols)
	}
	for i, s := range want {
		if cfg.Schedule.Symbols[i] != s {
			t.Errorf("symbols[%d]: got %q, want %q", i, cfg.Schedule.Symbols[i], s)
		}
	}

	t.Setenv("WATCH_SYMBOLS", "ada-usd, btc-usd")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Schedule.Symbols) != 2 || cfg.Schedule.Symbols[0] != "ADA-USD" {
		t.Errorf("env symbols: got %v", cfg.Schedule.Symbols)
	}
}

func TestLoad_BadValues(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
	t.Setenv("CACHE_TTL", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected CACHE_TTL error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "binance" }, true},
		{"bad start", func(c *Config) { c.DataSource.DefaultStart = "01/01/2024" }, true},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, true},
		{"non-numeric chat", func(c *Config) { c.Telegram.BotToken = "x"; c.Telegram.ChatID = "abc" }, true},
		{"telegram ok", func(c *Config) { c.Telegram.BotToken = "x"; c.Telegram.ChatID = "-100123" }, false},
		{"digest without telegram", func(c *Config) { c.Schedule.DigestCron = "0 0 8 * * *" }, true},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
