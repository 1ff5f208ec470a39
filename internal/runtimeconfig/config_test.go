package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-wiki/internal/runtimeconfig"
	"github.com/goliatone/go-wiki/internal/validation"
	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.Storage.Driver != runtimeconfig.DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Markup.WikiPrefix != "/~" || !cfg.Markup.Typographer {
		t.Fatalf("unexpected markup defaults: %+v", cfg.Markup)
	}
}

func TestConfigValidate_RequiresDSNForSQLDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite", "postgres", "pg"} {
		cfg := runtimeconfig.DefaultConfig()
		cfg.Storage.Driver = driver
		cfg.Storage.DSN = " "

		if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
			t.Fatalf("%s: expected ErrStorageDSNRequired, got %v", driver, err)
		}
	}
}

func TestConfigValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "mongo"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeValues(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.MaxOpenConns = -1
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageMaxOpenConnsInvalid) {
		t.Fatalf("expected ErrStorageMaxOpenConnsInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Cache.DefaultTTL = -time.Second
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCacheTTLInvalid) {
		t.Fatalf("expected ErrCacheTTLInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Commands.Timeout = -time.Second
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCommandTimeoutInvalid) {
		t.Fatalf("expected ErrCommandTimeoutInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsRelativeWikiPrefix(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markup.WikiPrefix = "wiki"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrWikiPrefixInvalid) {
		t.Fatalf("expected ErrWikiPrefixInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevelAndFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_SkipsLoggingChecksWhenFeatureDisabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected logging settings to be ignored, got %v", err)
	}
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.yaml")
	content := `
storage:
  driver: sqlite
  dsn: file:wiki.db
cache:
  enabled: true
  default_ttl: 5m
commands:
  timeout: 90s
logging:
  provider: gologger
  level: debug
  format: json
  focus:
    - wiki.revisions
features:
  logger: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	want := runtimeconfig.DefaultConfig()
	want.Storage = runtimeconfig.StorageConfig{Driver: runtimeconfig.DriverSQLite, DSN: "file:wiki.db"}
	want.Cache = runtimeconfig.CacheConfig{Enabled: true, DefaultTTL: 5 * time.Minute}
	want.Commands.Timeout = 90 * time.Second
	want.Logging = runtimeconfig.LoggingConfig{
		Provider: "gologger",
		Level:    "debug",
		Format:   "json",
		Focus:    []string{"wiki.revisions"},
	}
	want.Features.Logger = true

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EmptyDocumentReturnsDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Load([]byte("\n# nothing here\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(runtimeconfig.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown section": "search:\n  enabled: true\n",
		"bad driver":      "storage:\n  driver: mongo\n",
		"bad duration":    "cache:\n  default_ttl: soon\n",
		"bad timeout":     "commands:\n  timeout: 30\n",
		"wrong type":      "markup:\n  typographer: sometimes\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runtimeconfig.Load([]byte(doc))
			if !errors.Is(err, validation.ErrSchemaValidation) {
				t.Fatalf("expected schema validation error, got %v", err)
			}
			if len(validation.Issues(err)) == 0 {
				t.Fatalf("expected at least one issue")
			}
		})
	}
}

func TestLoad_AppliesSemanticValidation(t *testing.T) {
	_, err := runtimeconfig.Load([]byte("storage:\n  driver: postgres\n"))
	if !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := runtimeconfig.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
