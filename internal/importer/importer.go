// Package importer loads directories of Markdown files into a wiki through
// the revision engine, one edit per file.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/internal/wiki"
	"github.com/goliatone/go-wiki/pkg/interfaces"
	"github.com/goliatone/go-wiki/slug"
)

var ErrPagesRequired = errors.New("importer: page writer is required")

// DefaultAuthor signs imports whose files and options name nobody.
const DefaultAuthor = "importer"

// PageWriter is the slice of the wiki service an import needs.
type PageWriter interface {
	Source(ctx context.Context, universe uuid.UUID, s slug.Slug) (*wiki.PageSource, error)
	Edit(ctx context.Context, req revisions.EditRequest) (*revisions.EditResult, error)
}

// Action records what an import did with one file.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionPlanned   Action = "planned"
)

// Outcome is the result for one file.
type Outcome struct {
	FilePath string
	Slug     slug.Slug
	Title    string
	Action   Action
	Hash     string
}

// Result summarises an import. Files that failed are listed in Errors and
// have no outcome.
type Result struct {
	Outcomes []Outcome
	Errors   []error
}

// Count returns the number of outcomes with action.
func (r *Result) Count(action Action) int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Action == action {
			n++
		}
	}
	return n
}

// Options control one import run.
type Options struct {
	Universe uuid.UUID
	// Author signs files whose front matter has no author.
	Author string
	// DryRun resolves slugs and reports planned actions without writing.
	DryRun bool
}

// Importer submits documents as edits.
type Importer struct {
	pages  PageWriter
	logger interfaces.Logger
}

// NewImporter builds an importer that writes through pages.
func NewImporter(pages PageWriter, logger interfaces.Logger) *Importer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{pages: pages, logger: logger}
}

// ImportDirectory loads dir from filesystem and imports every document in it.
// Slugs default to the file path relative to dir without its extension.
func (i *Importer) ImportDirectory(ctx context.Context, filesystem fs.FS, dir string, cfg LoaderConfig, opts Options) (*Result, error) {
	docs, err := NewLoader(filesystem, cfg).LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}

	root := path.Clean(dir)
	for _, doc := range docs {
		if root != "." {
			doc.FilePath = strings.TrimPrefix(doc.FilePath, root+"/")
		}
	}
	return i.ImportDocuments(ctx, docs, opts)
}

// ImportDocuments imports docs in order. A failing document does not stop
// the run; the joined error of all failures is returned with the result.
func (i *Importer) ImportDocuments(ctx context.Context, docs []*Document, opts Options) (*Result, error) {
	if i == nil || i.pages == nil {
		return nil, ErrPagesRequired
	}

	result := &Result{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		outcome, err := i.importDocument(ctx, doc, opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("importer: %s: %w", doc.FilePath, err))
			i.logger.Warn("importer.document.failed", "path", doc.FilePath, "error", err)
			continue
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	i.logger.Info("importer.run.completed",
		"created", result.Count(ActionCreated),
		"updated", result.Count(ActionUpdated),
		"unchanged", result.Count(ActionUnchanged),
		"planned", result.Count(ActionPlanned),
		"failed", len(result.Errors),
		"dry_run", opts.DryRun,
	)
	return result, errors.Join(result.Errors...)
}

func (i *Importer) importDocument(ctx context.Context, doc *Document, opts Options) (Outcome, error) {
	target, err := DocumentSlug(doc)
	if err != nil {
		return Outcome{}, err
	}
	author := firstNonEmpty(doc.FrontMatter.Author, opts.Author, DefaultAuthor)

	outcome := Outcome{
		FilePath: doc.FilePath,
		Slug:     target,
		Title:    firstNonEmpty(doc.FrontMatter.Title, target.Title()),
	}

	source, err := i.pages.Source(ctx, opts.Universe, target)
	if err != nil {
		return Outcome{}, err
	}
	if opts.DryRun {
		outcome.Action = ActionPlanned
		outcome.Hash = source.Token
		return outcome, nil
	}

	res, err := i.pages.Edit(ctx, revisions.EditRequest{
		Universe: opts.Universe,
		Slug:     target,
		Author:   author,
		Content:  string(doc.Body),
		Token:    source.Token,
	})
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case !res.Changed:
		outcome.Action = ActionUnchanged
		outcome.Hash = source.Token
	case source.Exists:
		outcome.Action = ActionUpdated
		outcome.Hash = res.Hash
	default:
		outcome.Action = ActionCreated
		outcome.Hash = res.Hash
	}
	logging.WithPageContext(i.logger, opts.Universe.String(), target.String(), author).Debug("importer.document.imported",
		"path", doc.FilePath,
		"action", string(outcome.Action),
	)
	return outcome, nil
}

// DocumentSlug picks the page a document is imported into: the front matter
// slug when present, otherwise the file path without extension.
func DocumentSlug(doc *Document) (slug.Slug, error) {
	if doc == nil {
		return slug.Slug{}, errors.New("importer: document is nil")
	}
	if doc.FrontMatter.Slug != "" {
		return slug.Slugify(doc.FrontMatter.Slug)
	}
	name := strings.TrimSuffix(doc.FilePath, path.Ext(doc.FilePath))
	return slug.Slugify(name)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
