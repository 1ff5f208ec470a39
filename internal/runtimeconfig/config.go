package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrStorageDriverUnknown = errors.New("wiki config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("wiki config: storage dsn is required for sql drivers")
var ErrStorageMaxOpenConnsInvalid = errors.New("wiki config: storage max open connections must be zero or positive")

// ErrCacheTTLInvalid guards against negative cache lifetimes.
var ErrCacheTTLInvalid = errors.New("wiki config: cache default ttl must be zero or positive")
var ErrCommandTimeoutInvalid = errors.New("wiki config: commands timeout must be zero or positive")

// ErrWikiPrefixInvalid indicates a link prefix that is not an absolute path.
var ErrWikiPrefixInvalid = errors.New("wiki config: markup wiki prefix must start with '/'")
var ErrLoggingProviderRequired = errors.New("wiki config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("wiki config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("wiki config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("wiki config: logging format is invalid")

// DefaultCommandTimeout bounds page commands unless the config says otherwise.
const DefaultCommandTimeout = 30 * time.Second

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config aggregates the storage, cache, markup and logging settings of a wiki
// instance.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Markup   MarkupConfig   `yaml:"markup"`
	Commands CommandsConfig `yaml:"commands"`
	Logging  LoggingConfig  `yaml:"logging"`
	Features Features       `yaml:"features"`
}

// StorageConfig selects the page store. The memory driver keeps everything in
// process and ignores DSN.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// CacheConfig controls caching of immutable change lookups.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// MarkupConfig tunes rendering.
type MarkupConfig struct {
	WikiPrefix  string `yaml:"wiki_prefix"`
	Typographer bool   `yaml:"typographer"`
}

// CommandsConfig bounds command execution. A zero timeout disables it.
type CommandsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig selects the logger provider used by the module.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// Features toggles optional subsystems.
type Features struct {
	Logger bool `yaml:"logger"`
}

// DefaultConfig returns an in-memory wiki with logging disabled.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Markup: MarkupConfig{
			WikiPrefix:  "/~",
			Typographer: true,
		},
		Commands: CommandsConfig{
			Timeout: DefaultCommandTimeout,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	driver := NormalizeDriver(cfg.Storage.Driver)
	if !isSupportedDriver(driver) {
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if driver != DriverMemory && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Storage.MaxOpenConns < 0 {
		return ErrStorageMaxOpenConnsInvalid
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	if prefix := cfg.Markup.WikiPrefix; prefix != "" && !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("%w: %s", ErrWikiPrefixInvalid, prefix)
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// NormalizeDriver maps driver aliases onto the canonical names. An empty
// driver means memory.
func NormalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "", DriverMemory:
		return DriverMemory
	case "sqlite", DriverSQLite:
		return DriverSQLite
	case "pg", "postgresql", DriverPostgres:
		return DriverPostgres
	default:
		return d
	}
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
		return true
	default:
		return false
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
