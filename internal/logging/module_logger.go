package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-wiki/pkg/interfaces"
)

const (
	rootModule      = "wiki"
	revisionsModule = "wiki.revisions"
	renderModule    = "wiki.render"
	importerModule  = "wiki.importer"
	commandsModule  = "wiki.commands"
)

const (
	fieldUniverse = "universe"
	fieldSlug     = "slug"
	fieldAuthor   = "author"
)

// ModuleLogger returns a logger scoped to module, or a no-op logger when no
// provider is configured. Every entry carries the module name.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// RevisionsLogger is the namespace used by the revision engine.
func RevisionsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, revisionsModule)
}

// RenderLogger is the namespace used by the renderer.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// ImporterLogger is the namespace used by the markdown importer.
func ImporterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, importerModule)
}

// CommandLogger scopes a logger to a single command, e.g. "wiki.commands.pages.edit".
func CommandLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+name)
}

// WithPageContext attaches the page coordinates of an operation. Empty values
// are skipped.
func WithPageContext(logger interfaces.Logger, universe, slug, author string) interfaces.Logger {
	fields := map[string]any{}
	if v := strings.TrimSpace(universe); v != "" {
		fields[fieldUniverse] = v
	}
	if v := strings.TrimSpace(slug); v != "" {
		fields[fieldSlug] = v
	}
	if v := strings.TrimSpace(author); v != "" {
		fields[fieldAuthor] = v
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
