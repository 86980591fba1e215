package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	slogobs "github.com/leofalp/tablescrape/providers/observability/slog"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "tablescrape.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABLESCRAPE_"

// Server selects the MCP transport of the serve command.
type Server struct {
	Transport string `toml:"transport" comment:"stdio, sse or http"`
	Addr      string `toml:"addr" comment:"listen address of the sse and http transports"`
}

// Fetch tunes the HTTP fetcher shared by all tools.
type Fetch struct {
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxBodyBytes    int64  `toml:"max_body_bytes"`
	UserAgent       string `toml:"user_agent"`
	RandomUserAgent bool   `toml:"random_user_agent" comment:"send a random browser User-Agent instead of user_agent"`
}

// Log selects the level, format and destination of log records. MaxSizeMB,
// MaxBackups and MaxAgeDays only apply when File is set.
type Log struct {
	Level      string `toml:"level" comment:"trace, debug, info, warn or error"`
	Format     string `toml:"format" comment:"text or json"`
	File       string `toml:"file" comment:"log file path; empty logs to stderr"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config is the complete tablescrape configuration, one TOML table per field.
type Config struct {
	Server Server `toml:"server"`
	Fetch  Fetch  `toml:"fetch"`
	Log    Log    `toml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{
			Transport: "stdio",
			Addr:      ":8080",
		},
		Fetch: Fetch{
			TimeoutSeconds: 30,
			MaxBodyBytes:   10 * 1024 * 1024,
			UserAgent:      "tablescrape/1.0",
		},
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the
// environment, in that order of precedence (later wins).
//
// An empty path reads [DefaultPath] when it exists. An explicit path that
// cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from TABLESCRAPE_* variables. LOG_LEVEL is
// honoured when TABLESCRAPE_LOG_LEVEL is unset.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("TRANSPORT"); ok {
		c.Server.Transport = v
	}
	if v, ok := get("ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := get("FETCH_TIMEOUT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sFETCH_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Fetch.TimeoutSeconds = n
	}
	if v, ok := get("MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", EnvPrefix, err)
		}
		c.Fetch.MaxBodyBytes = n
	}
	if v, ok := get("USER_AGENT"); ok {
		c.Fetch.UserAgent = v
	}
	if v, ok := get("RANDOM_USER_AGENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRANDOM_USER_AGENT: %w", EnvPrefix, err)
		}
		c.Fetch.RandomUserAgent = b
	}

	if v, ok := slogobs.LogLevelFromEnv(lookup); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.Log.File = v
	}
	return nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be positive, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive, got %d", c.Fetch.MaxBodyBytes)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// FetchTimeout returns the fetch timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// WriteExample writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteExample(path string, force bool) error {
	if path == "" {
		path = DefaultPath
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
