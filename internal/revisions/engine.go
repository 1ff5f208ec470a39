// Package revisions applies page edits: each accepted edit updates the page
// source, appends a diff to its change log and brings the link graph in line
// with the new content, all in one transaction.
package revisions

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/markup"
	"github.com/goliatone/go-wiki/pkg/interfaces"
	"github.com/goliatone/go-wiki/slug"
)

// EditRequest is a proposed new source for a page.
type EditRequest struct {
	Universe uuid.UUID
	Slug     slug.Slug
	Author   string
	Content  string
	// Token is the latest change hash the author saw. It must match the
	// page's current latest hash once the page has any history.
	Token string
}

// EditResult describes an applied edit. Changed is false when the submitted
// content equals the stored content; nothing is written in that case.
type EditResult struct {
	Changed bool
	PageID  uuid.UUID
	Hash    string
	Seq     int
	Added   slug.Set
	Removed slug.Set
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for change timestamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger interfaces.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine is safe for concurrent use; serialisation per page is delegated to
// the store's row lock.
type Engine struct {
	store  Store
	clock  func() time.Time
	logger interfaces.Logger
}

// NewEngine builds an engine over store.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		clock:  time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Store returns the store the engine writes to.
func (e *Engine) Store() Store {
	return e.store
}

// Apply runs one edit. A stale or missing token on a page with history fails
// with ErrPageAlreadyChanged before anything is written.
func (e *Engine) Apply(ctx context.Context, req EditRequest) (*EditResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrStoreRequired
	}
	if req.Slug.IsZero() {
		return nil, ErrSlugRequired
	}
	if !utf8.ValidString(req.Content) {
		return nil, invalidContentError()
	}

	logger := logging.WithPageContext(e.logger.WithContext(ctx), req.Universe.String(), req.Slug.String(), req.Author)

	var result *EditResult
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.GetPageForUpdate(ctx, req.Universe, req.Slug)
		if err != nil {
			return fmt.Errorf("revisions: load page: %w", err)
		}

		var before, latest string
		var seq int
		if current != nil {
			before, latest, seq = current.Content, current.LatestChangeHash, current.LatestSeq
		}

		if latest != "" && req.Token != latest {
			return conflictError()
		}

		if before == req.Content {
			result = &EditResult{Changed: false, Seq: seq}
			if current != nil {
				result.PageID = current.ID
			}
			return nil
		}

		patch, err := MakeDiff(before, req.Content)
		if err != nil {
			return diffError(err)
		}

		now := e.clock().UTC()
		pageID, err := tx.UpsertPageContent(ctx, req.Universe, req.Slug, req.Content, now)
		if err != nil {
			return fmt.Errorf("revisions: save content: %w", err)
		}

		added, removed, err := syncLinks(ctx, tx, req.Universe, req.Slug, req.Content)
		if err != nil {
			return err
		}

		change := &Change{
			ID:         uuid.New(),
			PageID:     pageID,
			Seq:        seq + 1,
			Author:     req.Author,
			Hash:       ChangeHash(req.Slug, req.Author, now, patch),
			Diff:       patch,
			InsertedAt: now,
		}
		if err := tx.InsertChange(ctx, change); err != nil {
			return fmt.Errorf("revisions: save change: %w", err)
		}

		result = &EditResult{
			Changed: true,
			PageID:  pageID,
			Hash:    change.Hash,
			Seq:     change.Seq,
			Added:   added,
			Removed: removed,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPageAlreadyChanged) {
			logger.Warn("revisions.apply.conflict")
		} else {
			logger.Error("revisions.apply.failed", "error", err)
		}
		return nil, err
	}

	if !result.Changed {
		logger.Debug("revisions.apply.unchanged")
		return result, nil
	}
	logger.Info("revisions.apply.committed",
		"seq", result.Seq,
		"hash", result.Hash,
		"links_added", result.Added.Len(),
		"links_removed", result.Removed.Len(),
	)
	return result, nil
}

// syncLinks makes the stored outgoing links of source equal to the links in
// content.
func syncLinks(ctx context.Context, tx Tx, universe uuid.UUID, source slug.Slug, content string) (slug.Set, slug.Set, error) {
	current, err := tx.LinksFrom(ctx, universe, source)
	if err != nil {
		return nil, nil, fmt.Errorf("revisions: load links: %w", err)
	}
	next := markup.ExtractLinks([]byte(content))

	added := next.Difference(current)
	removed := current.Difference(next)

	for _, dest := range added.Sorted() {
		if err := tx.EstablishLink(ctx, universe, source, dest); err != nil {
			return nil, nil, fmt.Errorf("revisions: add link %s: %w", dest, err)
		}
	}
	for _, dest := range removed.Sorted() {
		if err := tx.DeregisterLink(ctx, universe, source, dest); err != nil {
			return nil, nil, fmt.Errorf("revisions: remove link %s: %w", dest, err)
		}
	}
	return added, removed, nil
}
