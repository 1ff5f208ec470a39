// Package wiki is the entry point for embedding the wiki content engine.
package wiki

import (
	"github.com/goliatone/go-wiki/internal/di"
	"github.com/goliatone/go-wiki/internal/importer"
	"github.com/goliatone/go-wiki/internal/revisions"
	wikisvc "github.com/goliatone/go-wiki/internal/wiki"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// Service exports the page service contract.
type Service = wikisvc.Service

// RenderedPage exports the sanitized page view.
type RenderedPage = wikisvc.RenderedPage

// PageSource exports the editable page source and its edit token.
type PageSource = wikisvc.PageSource

// EditRequest exports the edit input accepted by Service.Edit.
type EditRequest = revisions.EditRequest

// EditResult exports the outcome of an applied edit.
type EditResult = revisions.EditResult

// Change exports a stored revision.
type Change = revisions.Change

// Importer exports the markdown directory importer.
type Importer = *importer.Importer

// Option customises the container built by New.
type Option = di.Option

var (
	ErrPageNotFound       = revisions.ErrPageNotFound
	ErrChangeNotFound     = revisions.ErrChangeNotFound
	ErrPageAlreadyChanged = revisions.ErrPageAlreadyChanged
	ErrRevisionOutOfRange = wikisvc.ErrRevisionOutOfRange
	ErrInvalidUTF8        = revisions.ErrInvalidUTF8
)

var (
	WithBunDB           = di.WithBunDB
	WithCache           = di.WithCache
	WithLoggerProvider  = di.WithLoggerProvider
	WithClock           = di.WithClock
	WithCommandRegistry = di.WithCommandRegistry
)

// Module represents the top level wiki runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a wiki module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Pages returns the configured page service.
func (m *Module) Pages() Service {
	return m.container.WikiService()
}

// Importer returns the markdown importer bound to Pages.
func (m *Module) Importer() Importer {
	return m.container.Importer()
}

// LoggerProvider returns the resolved logger provider, nil when logging is off.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.LoggerProvider()
}
