package pagescmd

import (
	"context"
	"os"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/commands"
	"github.com/goliatone/go-wiki/internal/importer"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/pkg/interfaces"
	"github.com/goliatone/go-wiki/slug"
)

const (
	editOperation   = "pages.edit"
	importOperation = "pages.import"
)

var (
	_ command.Commander[EditPageCommand]    = (*EditPageHandler)(nil)
	_ command.Commander[ImportPagesCommand] = (*ImportPagesHandler)(nil)
)

// Editor applies edits. The wiki service satisfies it.
type Editor interface {
	Edit(ctx context.Context, req revisions.EditRequest) (*revisions.EditResult, error)
}

// EditPageHandler runs page edits through the shared command handler.
type EditPageHandler struct {
	inner *commands.Handler[EditPageCommand]
}

// NewEditPageHandler creates a handler bound to editor.
func NewEditPageHandler(editor Editor, logger interfaces.Logger, opts ...commands.HandlerOption[EditPageCommand]) *EditPageHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg EditPageCommand) error {
		target, err := slug.New(msg.Slug)
		if err != nil {
			return err
		}
		res, err := editor.Edit(ctx, revisions.EditRequest{
			Universe: msg.Universe,
			Slug:     target,
			Author:   msg.Author,
			Content:  msg.Content,
			Token:    msg.Token,
		})
		if err != nil {
			return err
		}
		if msg.Result != nil && res != nil {
			*msg.Result = *res
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[EditPageCommand]{
		commands.WithLogger[EditPageCommand](baseLogger),
		commands.WithOperation[EditPageCommand](editOperation),
		commands.WithMessageFields(func(msg EditPageCommand) map[string]any {
			fields := map[string]any{
				"slug":   msg.Slug,
				"author": msg.Author,
			}
			if msg.Universe != uuid.Nil {
				fields["universe"] = msg.Universe.String()
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[EditPageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &EditPageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[EditPageCommand].
func (h *EditPageHandler) Execute(ctx context.Context, msg EditPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportPagesHandler runs directory imports through the shared command handler.
type ImportPagesHandler struct {
	inner *commands.Handler[ImportPagesCommand]
}

// NewImportPagesHandler creates a handler bound to imp.
func NewImportPagesHandler(imp *importer.Importer, logger interfaces.Logger, opts ...commands.HandlerOption[ImportPagesCommand]) *ImportPagesHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ImportPagesCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := imp.ImportDirectory(ctx, os.DirFS(msg.Directory), ".",
			importer.LoaderConfig{Pattern: msg.Pattern, Recursive: msg.Recursive},
			importer.Options{Universe: msg.Universe, Author: msg.Author, DryRun: msg.DryRun},
		)
		if result != nil {
			if msg.Result != nil {
				*msg.Result = *result
			}
			logging.WithFields(baseLogger, map[string]any{
				"created_count":   result.Count(importer.ActionCreated),
				"updated_count":   result.Count(importer.ActionUpdated),
				"unchanged_count": result.Count(importer.ActionUnchanged),
				"error_count":     len(result.Errors),
				"dry_run":         msg.DryRun,
			}).Info("pages.command.import.completed")
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[ImportPagesCommand]{
		commands.WithLogger[ImportPagesCommand](baseLogger),
		commands.WithOperation[ImportPagesCommand](importOperation),
		commands.WithMessageFields(func(msg ImportPagesCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.Universe != uuid.Nil {
				fields["universe"] = msg.Universe.String()
			}
			if msg.Recursive {
				fields["recursive"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportPagesCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportPagesHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportPagesCommand].
func (h *ImportPagesHandler) Execute(ctx context.Context, msg ImportPagesCommand) error {
	return h.inner.Execute(ctx, msg)
}
