package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/material"
)

// Environment variables that override the config file.
const (
	EnvLogLevel  = "MATERIALMGR_LOG_LEVEL"
	EnvLogFormat = "MATERIALMGR_LOG_FORMAT"
	EnvNotifyURL = "MATERIALMGR_NOTIFY_URL"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocumentPath string // hcl document file

	LogFormat string
	LogLevel  string

	ChannelSize     int
	ChannelDepth    int
	ReconcilePolicy string

	NotifyURL       string
	NotifyNamespace string
	NotifyTimeout   time.Duration

	// DryRun runs operations without saving the document.
	DryRun bool
}

// DefaultConfig returns the values used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		LogFormat:       "text",
		LogLevel:        "info",
		ChannelSize:     docgraph.DefaultDims.Width,
		ChannelDepth:    docgraph.DefaultDims.Depth,
		ReconcilePolicy: material.AllOrNothing.String(),
		NotifyNamespace: "/",
		NotifyTimeout:   5 * time.Second,
	}
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.DocumentPath == "" {
		return nil, errors.New("DocumentPath is a required configuration field and cannot be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if _, err := material.ParsePolicy(cfg.ReconcilePolicy); err != nil {
		return nil, err
	}
	if cfg.ChannelSize <= 0 {
		return nil, fmt.Errorf("channel size must be positive, got %d", cfg.ChannelSize)
	}
	if cfg.ChannelDepth <= 0 {
		return nil, fmt.Errorf("channel depth must be positive, got %d", cfg.ChannelDepth)
	}
	if cfg.NotifyTimeout <= 0 {
		return nil, fmt.Errorf("notify timeout must be positive, got %s", cfg.NotifyTimeout)
	}
	return &cfg, nil
}

// EngineConfig derives the material engine settings.
func (c *Config) EngineConfig() material.Config {
	policy, _ := material.ParsePolicy(c.ReconcilePolicy)
	cfg := material.DefaultConfig()
	cfg.ChannelDims = docgraph.Dims{Width: c.ChannelSize, Height: c.ChannelSize, Depth: c.ChannelDepth}
	cfg.Policy = policy
	return cfg
}

// fileConfig maps config.toml keys.
type fileConfig struct {
	Document        string `toml:"document"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	ChannelSize     int    `toml:"channel_size"`
	ChannelDepth    int    `toml:"channel_depth"`
	ReconcilePolicy string `toml:"reconcile_policy"`
	Notify          struct {
		URL       string `toml:"url"`
		Namespace string `toml:"namespace"`
		Timeout   string `toml:"timeout"`
	} `toml:"notify"`
}

// LoadFile overlays the keys defined in the TOML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("document") {
		cfg.DocumentPath = strings.TrimSpace(raw.Document)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(raw.LogFormat))
	}
	if meta.IsDefined("channel_size") {
		cfg.ChannelSize = raw.ChannelSize
	}
	if meta.IsDefined("channel_depth") {
		cfg.ChannelDepth = raw.ChannelDepth
	}
	if meta.IsDefined("reconcile_policy") {
		cfg.ReconcilePolicy = strings.TrimSpace(raw.ReconcilePolicy)
	}
	if meta.IsDefined("notify", "url") {
		cfg.NotifyURL = strings.TrimSpace(raw.Notify.URL)
	}
	if meta.IsDefined("notify", "namespace") {
		cfg.NotifyNamespace = strings.TrimSpace(raw.Notify.Namespace)
	}
	if meta.IsDefined("notify", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Notify.Timeout))
		if err != nil {
			return fmt.Errorf("load config %s: notify.timeout: %w", path, err)
		}
		cfg.NotifyTimeout = d
	}
	return nil
}

// ApplyEnv overlays the MATERIALMGR_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := lookup(EnvNotifyURL); ok {
		cfg.NotifyURL = v
	}
}
