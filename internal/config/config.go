// Package config loads rowlock configuration from YAML and validates it
// against an embedded CUE schema.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowlock/internal/store"
)

// Config is the full configuration of a rowlock process.
//
// Both yaml and json tags are set: yaml for the file, json for encoding into
// CUE during validation.
type Config struct {
	Database Database `yaml:"database" json:"database"`
	Store    Store    `yaml:"store" json:"store"`
	Server   Server   `yaml:"server" json:"server"`
	Demo     Demo     `yaml:"demo" json:"demo"`
	Log      Log      `yaml:"log" json:"log"`
}

// Database configures the SQLite record store.
type Database struct {
	Path          string `yaml:"path" json:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
	MaxOpenConns  int    `yaml:"max_open_conns" json:"max_open_conns"`
}

// Store configures write behaviour.
type Store struct {
	// Preflight rejects stale row-version writes before issuing the UPDATE.
	Preflight *bool `yaml:"preflight" json:"preflight"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Demo configures the conflict injector.
type Demo struct {
	AllowForceConflict *bool  `yaml:"allow_force_conflict" json:"allow_force_conflict"`
	InjectedAssignee   string `yaml:"injected_assignee" json:"injected_assignee"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Defaults used for fields the file leaves out.
const (
	DefaultPath             = "rowlock.db"
	DefaultAddr             = "127.0.0.1:8080"
	DefaultInjectedAssignee = "John Stevens"
	DefaultLevel            = "info"
	DefaultFormat           = "text"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, defaults and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config, rejecting unknown fields, then applies
// defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultPath
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = int(store.DefaultBusyTimeout / time.Millisecond)
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = store.DefaultMaxOpenConns
	}
	if c.Store.Preflight == nil {
		c.Store.Preflight = boolPtr(true)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Demo.AllowForceConflict == nil {
		c.Demo.AllowForceConflict = boolPtr(true)
	}
	if c.Demo.InjectedAssignee == "" {
		c.Demo.InjectedAssignee = DefaultInjectedAssignee
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultFormat
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// StoreConfig converts the database and store sections for store.OpenConfig.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Path:         c.Database.Path,
		BusyTimeout:  time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond,
		MaxOpenConns: c.Database.MaxOpenConns,
		Preflight:    c.Store.Preflight != nil && *c.Store.Preflight,
	}
}

// ForceConflictAllowed reports whether the conflict injector is wired.
func (c *Config) ForceConflictAllowed() bool {
	return c.Demo.AllowForceConflict != nil && *c.Demo.AllowForceConflict
}

// SlogLevel maps log.level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
