// Package config reads the TOML configuration of the kolab tool.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cyp0633/libkolab/format"
	"github.com/cyp0633/libkolab/list"
	"github.com/cyp0633/libkolab/recurrence"
	"github.com/cyp0633/libkolab/storage"
	"github.com/cyp0633/libkolab/storage/imap"
)

type Config struct {
	LogLevel string `toml:"log_level"`
	// Driver selects the folder storage: "imap" or "memory".
	Driver string `toml:"driver"`

	Format     FormatConfig               `toml:"format"`
	IMAP       IMAPConfig                 `toml:"imap"`
	Namespaces []storage.NamespaceElement `toml:"namespace"`
	Cache      CacheConfig                `toml:"cache"`
	Recurrence RecurrenceConfig           `toml:"recurrence"`
}

type FormatConfig struct {
	Relaxed   bool   `toml:"relaxed"`
	ProductID string `toml:"product_id"`
}

type IMAPConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	TLS                bool   `toml:"tls"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

type CacheConfig struct {
	// Path of the SQLite folder list cache. Empty keeps the cache in memory.
	Path string `toml:"path"`
	// Defaults is "bail" or "log" and selects how duplicate default
	// folders are handled.
	Defaults string `toml:"defaults"`
}

type RecurrenceConfig struct {
	// Preset is "default", "low-memory" or "disabled-cache".
	Preset         string   `toml:"preset"`
	CacheTTL       duration `toml:"cache_ttl"`
	MaxOccurrences int      `toml:"max_occurrences"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Default returns the configuration used without a config file.
func Default() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return &Config{
		LogLevel: "info",
		Driver:   "memory",
		Format:   FormatConfig{ProductID: format.ProductID},
		IMAP:     IMAPConfig{TLS: true},
		Cache: CacheConfig{
			Path:     filepath.Join(cacheDir, "libkolab", "folders.db"),
			Defaults: "bail",
		},
		Recurrence: RecurrenceConfig{Preset: "default"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	conf := Default()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if !oneOf(c.Driver, "imap", "memory") {
		return fmt.Errorf("invalid driver %q, valid drivers are imap and memory", c.Driver)
	}
	if !oneOf(c.Cache.Defaults, "bail", "log") {
		return fmt.Errorf("invalid defaults handling %q, valid values are bail and log", c.Cache.Defaults)
	}
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	for _, ns := range c.Namespaces {
		if !oneOf(string(ns.Type), string(storage.NamespacePersonal), string(storage.NamespaceOther), string(storage.NamespaceShared)) {
			return fmt.Errorf("invalid namespace type %q", ns.Type)
		}
	}
	if c.Driver == "imap" && (c.IMAP.Host == "" || c.IMAP.User == "") {
		return fmt.Errorf("imap driver needs a host and a user")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q, valid levels are debug, info, warn and error", c.LogLevel)
	}
	return level, nil
}

// FormatOptions returns the options for format.New.
func (c *Config) FormatOptions(logger *slog.Logger) []format.Option {
	opts := []format.Option{format.WithRelaxed(c.Format.Relaxed), format.WithLogger(logger)}
	if c.Format.ProductID != "" {
		opts = append(opts, format.WithProductID(c.Format.ProductID))
	}
	return opts
}

// Namespace returns the configured namespace of user, or nil to use the
// server default.
func (c *Config) Namespace(user string) *storage.Namespace {
	if len(c.Namespaces) == 0 {
		return nil
	}
	return storage.NewNamespace(user, c.Namespaces...)
}

// IMAPDriverConfig returns the connection settings of the IMAP driver.
func (c *Config) IMAPDriverConfig(logger *slog.Logger) imap.Config {
	return imap.Config{
		Host:               c.IMAP.Host,
		Port:               c.IMAP.Port,
		User:               c.IMAP.User,
		Password:           c.IMAP.Password,
		TLS:                c.IMAP.TLS,
		InsecureSkipVerify: c.IMAP.InsecureSkipVerify,
		Namespace:          c.Namespace(c.IMAP.User),
		Logger:             logger,
	}
}

// Defaults returns the duplicate default handling of the folder list.
func (c *Config) Defaults(logger *slog.Logger) list.Defaults {
	if c.Cache.Defaults == "log" {
		return list.NewLogDefaults(logger)
	}
	return list.NewBailDefaults()
}

// EngineConfig returns the recurrence engine settings.
func (c *Config) EngineConfig() (recurrence.EngineConfig, error) {
	var conf recurrence.EngineConfig
	switch strings.ToLower(c.Recurrence.Preset) {
	case "", "default":
		conf = recurrence.DefaultEngineConfig
	case "low-memory":
		conf = recurrence.LowMemoryConfig
	case "disabled-cache":
		conf = recurrence.DisabledCacheConfig
	default:
		return conf, fmt.Errorf("invalid recurrence preset %q", c.Recurrence.Preset)
	}
	if c.Recurrence.CacheTTL.Duration > 0 {
		conf.CacheConfig.TTL = c.Recurrence.CacheTTL.Duration
	}
	if c.Recurrence.MaxOccurrences > 0 {
		conf.Expansion.MaxOccurrences = c.Recurrence.MaxOccurrences
	}
	return conf, nil
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
