package di

import (
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wiki/internal/commands"
	pagescmd "github.com/goliatone/go-wiki/internal/commands/pages"
	"github.com/goliatone/go-wiki/internal/importer"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/logging/console"
	"github.com/goliatone/go-wiki/internal/logging/gologger"
	"github.com/goliatone/go-wiki/internal/render"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/internal/runtimeconfig"
	"github.com/goliatone/go-wiki/internal/wiki"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	store    revisions.Store
	renderer *render.Renderer
	engine   *revisions.Engine
	wikiSvc  wiki.Service
	importer *importer.Importer

	registry     pagescmd.CommandRegistry
	pageCommands *pagescmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithCache overrides the default cache provider.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithBunDB switches storage from memory to the given database. The schema
// must already exist.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithStore overrides the revision store entirely.
func WithStore(store revisions.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithLoggerProvider overrides the provider selected by the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithClock fixes the clock used to timestamp changes.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

// WithCommandRegistry registers the page command handlers with reg.
func WithCommandRegistry(reg pagescmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer validates cfg and builds the wiki services.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureStore()

	c.renderer = render.New(
		render.WithWikiPrefix(cfg.Markup.WikiPrefix),
		render.WithTypographer(cfg.Markup.Typographer),
		render.WithLogger(logging.RenderLogger(c.loggerProvider)),
	)

	engineOpts := []revisions.EngineOption{
		revisions.WithLogger(logging.RevisionsLogger(c.loggerProvider)),
	}
	if c.clock != nil {
		engineOpts = append(engineOpts, revisions.WithClock(c.clock))
	}
	c.engine = revisions.NewEngine(c.store, engineOpts...)

	c.wikiSvc = wiki.NewService(c.engine,
		wiki.WithRenderer(c.renderer),
		wiki.WithLogger(logging.ModuleLogger(c.loggerProvider, "wiki")),
	)
	c.importer = importer.NewImporter(c.wikiSvc, logging.ImporterLogger(c.loggerProvider))

	set, err := pagescmd.RegisterPageCommands(c.registry, c.wikiSvc, c.importer, c.loggerProvider,
		pagescmd.WithEditHandlerOptions(commands.WithTimeout[pagescmd.EditPageCommand](cfg.Commands.Timeout)),
		pagescmd.WithImportHandlerOptions(commands.WithTimeout[pagescmd.ImportPagesCommand](cfg.Commands.Timeout)),
	)
	if err != nil {
		return nil, err
	}
	c.pageCommands = set

	logging.ModuleLogger(c.loggerProvider, "wiki").Debug("wiki.container.ready",
		"storage", c.storageKind(),
		"cache_enabled", c.cacheService != nil,
	)

	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureStore() {
	if c.store != nil {
		return
	}
	if c.bunDB == nil {
		c.store = revisions.NewMemoryStore()
		return
	}

	var opts []revisions.BunStoreOption
	if c.cacheService != nil {
		opts = append(opts, revisions.WithChangeCache(c.cacheService, c.keySerializer))
	}
	c.store = revisions.NewBunStore(c.bunDB, opts...)
}

func (c *Container) storageKind() string {
	switch c.store.(type) {
	case *revisions.MemoryStore:
		return runtimeconfig.DriverMemory
	case *revisions.BunStore:
		if c.bunDB == nil {
			return "bun"
		}
		return c.bunDB.Dialect().Name().String()
	default:
		return "custom"
	}
}

// LoggerProvider returns the resolved provider, nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Store returns the revision store backing the engine.
func (c *Container) Store() revisions.Store {
	return c.store
}

// Renderer returns the markup renderer.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// Engine returns the revision engine.
func (c *Container) Engine() *revisions.Engine {
	return c.engine
}

// WikiService returns the page service.
func (c *Container) WikiService() wiki.Service {
	return c.wikiSvc
}

// Importer returns the markdown importer bound to the page service.
func (c *Container) Importer() *importer.Importer {
	return c.importer
}

// PageCommands returns the edit and import command handlers.
func (c *Container) PageCommands() *pagescmd.HandlerSet {
	return c.pageCommands
}
