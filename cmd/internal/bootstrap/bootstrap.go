package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wiki"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/internal/runtimeconfig"
	"github.com/goliatone/go-wiki/internal/storage"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// Options captures configuration for the wiki CLI bootstraps. Driver and DSN
// override the values read from ConfigPath.
type Options struct {
	ConfigPath     string
	Driver         string
	DSN            string
	Verbose        bool
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the wiki module and the database it was opened against.
type Module struct {
	Module *wiki.Module
	DB     *bun.DB
}

// Close releases the database handle, if any.
func (m *Module) Close() error {
	if m == nil || m.DB == nil {
		return nil
	}
	return m.DB.Close()
}

// BuildModule loads configuration, opens storage and ensures the schema
// exists before constructing the wiki module.
func BuildModule(ctx context.Context, opts Options) (*Module, error) {
	cfg := wiki.DefaultConfig()
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		loaded, err := wiki.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if driver := strings.TrimSpace(opts.Driver); driver != "" {
		cfg.Storage.Driver = runtimeconfig.NormalizeDriver(driver)
	}
	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if opts.Verbose {
		cfg.Features.Logger = true
		cfg.Logging.Level = "debug"
	}

	var diOpts []wiki.Option
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, wiki.WithLoggerProvider(opts.LoggerProvider))
	}

	var db *bun.DB
	if runtimeconfig.NormalizeDriver(cfg.Storage.Driver) != runtimeconfig.DriverMemory {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		opened, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := revisions.CreateSchema(ctx, opened); err != nil {
			_ = opened.Close()
			return nil, err
		}
		db = opened
		diOpts = append(diOpts, wiki.WithBunDB(db))
	}

	module, err := wiki.New(cfg, diOpts...)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("initialise wiki module: %w", err)
	}

	return &Module{Module: module, DB: db}, nil
}

// ParseUniverse converts the supplied string into a UUID. An empty value is
// the nil universe.
func ParseUniverse(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(trimmed)
}
