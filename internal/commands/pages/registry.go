package pagescmd

import (
	"errors"

	"github.com/goliatone/go-wiki/internal/commands"
	"github.com/goliatone/go-wiki/internal/importer"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers built by RegisterPageCommands.
type HandlerSet struct {
	Edit   *EditPageHandler
	Import *ImportPagesHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	editHandlerOpts   []commands.HandlerOption[EditPageCommand]
	importHandlerOpts []commands.HandlerOption[ImportPagesCommand]
}

// WithEditHandlerOptions forwards options to the EditPageHandler constructor.
func WithEditHandlerOptions(opts ...commands.HandlerOption[EditPageCommand]) Option {
	return func(cfg *options) {
		cfg.editHandlerOpts = append(cfg.editHandlerOpts, opts...)
	}
}

// WithImportHandlerOptions forwards options to the ImportPagesHandler constructor.
func WithImportHandlerOptions(opts ...commands.HandlerOption[ImportPagesCommand]) Option {
	return func(cfg *options) {
		cfg.importHandlerOpts = append(cfg.importHandlerOpts, opts...)
	}
}

// RegisterPageCommands builds the page handlers and registers them with reg
// when one is given.
func RegisterPageCommands(reg CommandRegistry, editor Editor, imp *importer.Importer, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if editor == nil {
		return nil, errors.New("pages command registration: editor is nil")
	}
	if imp == nil {
		return nil, errors.New("pages command registration: importer is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "pages")
	set := &HandlerSet{
		Edit:   NewEditPageHandler(editor, logger, cfg.editHandlerOpts...),
		Import: NewImportPagesHandler(imp, logger, cfg.importHandlerOpts...),
	}

	if reg != nil {
		if err := reg.RegisterCommand(set.Edit); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(set.Import); err != nil {
			return nil, err
		}
	}
	return set, nil
}
