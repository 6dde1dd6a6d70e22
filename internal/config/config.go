package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Provider        string        `yaml:"provider"`
		DefaultSymbol   string        `yaml:"default_symbol"`
		DefaultStart    string        `yaml:"default_start"`
		RequestsPerSec  int           `yaml:"requests_per_sec"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxRetryElapsed time.Duration `yaml:"max_retry_elapsed"`
	} `yaml:"data_source"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
	} `yaml:"cache"`
	Schedule struct {
		WarmupCron string   `yaml:"warmup_cron"`
		DigestCron string   `yaml:"digest_cron"`
		Symbols    []string `yaml:"symbols"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`

	ttlSet bool // cache.ttl given explicitly, so 0 means disabled rather than unset
}

// Load reads config from a YAML file, then .env and environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		var explicit struct {
			Cache struct {
				TTL *time.Duration `yaml:"ttl"`
			} `yaml:"cache"`
		}
		if err := yaml.Unmarshal(data, &explicit); err == nil && explicit.Cache.TTL != nil {
			cfg.ttlSet = true
		}
	}

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"LISTEN_ADDR":        &c.Server.Addr,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DEFAULT_SYMBOL":     &c.DataSource.DefaultSymbol,
		"DEFAULT_START":      &c.DataSource.DefaultStart,
		"REDIS_ADDR":         &c.Cache.RedisAddr,
		"REDIS_PASSWORD":     &c.Cache.RedisPassword,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"CRON_WARMUP":        &c.Schedule.WarmupCron,
		"CRON_DIGEST":        &c.Schedule.DigestCron,
		"LOG_LEVEL":          &c.Log.Level,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.Cache.TTL = ttl
		c.ttlSet = true
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = db
	}
	if v := os.Getenv("WATCH_SYMBOLS"); v != "" {
		c.Schedule.Symbols = splitList(v)
	}
	if v := os.Getenv("LOG_CONSOLE"); v != "" {
		c.Log.Console = v == "true" || v == "1"
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.DefaultSymbol == "" {
		c.DataSource.DefaultSymbol = "BTC-USD"
	}
	if c.DataSource.DefaultStart == "" {
		c.DataSource.DefaultStart = "2024-01-01"
	}
	if c.DataSource.RequestsPerSec == 0 {
		c.DataSource.RequestsPerSec = 5
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.MaxRetryElapsed == 0 {
		c.DataSource.MaxRetryElapsed = 30 * time.Second
	}
	// must exceed the default warm-up interval
	if c.Cache.TTL == 0 && !c.ttlSet {
		c.Cache.TTL = 20 * time.Minute
	}
	if c.Schedule.WarmupCron == "" {
		c.Schedule.WarmupCron = "0 */15 * * * *"
	}
	c.DataSource.DefaultSymbol = normalizeSymbol(c.DataSource.DefaultSymbol)
	c.Schedule.Symbols = normalizeSymbols(c.Schedule.Symbols)
	if len(c.Schedule.Symbols) == 0 {
		c.Schedule.Symbols = []string{c.DataSource.DefaultSymbol}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider must be yahoo or mock, got %q", c.DataSource.Provider)
	}
	if _, err := time.Parse(model.DateLayout, c.DataSource.DefaultStart); err != nil {
		return fmt.Errorf("data_source.default_start: %w", err)
	}
	if c.DataSource.RequestsPerSec < 0 {
		return fmt.Errorf("data_source.requests_per_sec must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Telegram.ChatID != "" {
		if _, err := c.TelegramChatID(); err != nil {
			return err
		}
	}
	if c.Schedule.DigestCron != "" && c.Telegram.BotToken == "" {
		return fmt.Errorf("schedule.digest_cron requires telegram settings")
	}
	return nil
}

// TelegramChatID parses the configured chat ID.
func (c *Config) TelegramChatID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Telegram.ChatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id: %w", err)
	}
	return id, nil
}

// DefaultStart returns the parsed default range start.
func (c *Config) DefaultStart() time.Time {
	t, err := time.Parse(model.DateLayout, c.DataSource.DefaultStart)
	if err != nil {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// normalizeSymbol matches the form request symbols take on the server (trimmed, upper case),
// so warmed cache keys are the ones requests read.
func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeSymbols(symbols []string) []string {
	var out []string
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		s = normalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
