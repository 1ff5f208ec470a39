package wiki

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/render"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/pkg/interfaces"
	"github.com/goliatone/go-wiki/slug"
)

// SidebarSlug names the page rendered next to every other page.
const SidebarSlug = "Special:Sidebar"

// IndexSlug is the landing page and the fallback for unusable paths.
const IndexSlug = "Index"

const (
	TextCodePageNotFound   = "PAGE_NOT_FOUND"
	TextCodeChangeNotFound = "CHANGE_NOT_FOUND"
	TextCodeRevisionRange  = "REVISION_OUT_OF_RANGE"
)

var ErrRevisionOutOfRange = errors.New("wiki: revision out of range")

// Service exposes the read and edit use-cases of a wiki.
type Service interface {
	Show(ctx context.Context, universe uuid.UUID, s slug.Slug) (*RenderedPage, error)
	Source(ctx context.Context, universe uuid.UUID, s slug.Slug) (*PageSource, error)
	Edit(ctx context.Context, req revisions.EditRequest) (*revisions.EditResult, error)
	History(ctx context.Context, universe uuid.UUID, s slug.Slug) ([]*revisions.Change, error)
	Change(ctx context.Context, universe uuid.UUID, hash string) (*revisions.Change, error)
	Revision(ctx context.Context, universe uuid.UUID, s slug.Slug, seq int) (string, error)
	Backlinks(ctx context.Context, universe uuid.UUID, s slug.Slug) ([]slug.Slug, error)
	Sidebar(ctx context.Context, universe uuid.UUID) (*RenderedPage, error)
}

// RenderedPage is sanitized page HTML ready to embed.
type RenderedPage struct {
	Slug             slug.Slug
	Title            string
	HTML             string
	LatestChangeHash string
}

// PageSource is what an editor starts from. Pages that were never saved
// report Exists false with empty content and token.
type PageSource struct {
	Slug    slug.Slug
	Title   string
	Content string
	Token   string
	Exists  bool
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithRenderer replaces the default renderer.
func WithRenderer(renderer *render.Renderer) ServiceOption {
	return func(s *service) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	engine   *revisions.Engine
	store    revisions.Store
	renderer *render.Renderer
	logger   interfaces.Logger
}

// NewService builds a wiki service on top of a revision engine.
func NewService(engine *revisions.Engine, opts ...ServiceOption) Service {
	s := &service{
		engine:   engine,
		store:    engine.Store(),
		renderer: render.New(),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) Show(ctx context.Context, universe uuid.UUID, page slug.Slug) (*RenderedPage, error) {
	stored, err := s.store.GetPage(ctx, universe, page)
	if err != nil {
		return nil, mapReadError(err)
	}

	existing, err := s.store.ExistingLinksFrom(ctx, universe, page)
	if err != nil {
		return nil, fmt.Errorf("wiki: existing links from %s: %w", page, err)
	}

	html := s.renderer.Render([]byte(stored.Content), existing)
	logging.WithPageContext(s.logger, universe.String(), page.String(), "").Debug("wiki.show.rendered",
		"links", existing.Len(),
		"bytes", len(html),
	)

	return &RenderedPage{
		Slug:             page,
		Title:            page.Title(),
		HTML:             html,
		LatestChangeHash: stored.LatestChangeHash,
	}, nil
}

func (s *service) Source(ctx context.Context, universe uuid.UUID, page slug.Slug) (*PageSource, error) {
	out := &PageSource{Slug: page, Title: page.Title()}

	stored, err := s.store.GetPage(ctx, universe, page)
	switch {
	case errors.Is(err, revisions.ErrPageNotFound):
		return out, nil
	case err != nil:
		return nil, mapReadError(err)
	}

	out.Content = stored.Content
	out.Token = stored.LatestChangeHash
	out.Exists = true
	return out, nil
}

func (s *service) Edit(ctx context.Context, req revisions.EditRequest) (*revisions.EditResult, error) {
	return s.engine.Apply(ctx, req)
}

func (s *service) History(ctx context.Context, universe uuid.UUID, page slug.Slug) ([]*revisions.Change, error) {
	changes, err := s.store.ListChanges(ctx, universe, page)
	if err != nil {
		return nil, mapReadError(err)
	}
	return changes, nil
}

// Change looks up a change by hash. Changes to pages of other universes are
// reported as not found.
func (s *service) Change(ctx context.Context, universe uuid.UUID, hash string) (*revisions.Change, error) {
	change, err := s.store.GetChange(ctx, universe, hash)
	if err != nil {
		return nil, mapReadError(err)
	}
	return change, nil
}

// Revision reconstructs the source of page as of change seq by replaying the
// diff log up to and including it.
func (s *service) Revision(ctx context.Context, universe uuid.UUID, page slug.Slug, seq int) (string, error) {
	changes, err := s.History(ctx, universe, page)
	if err != nil {
		return "", err
	}
	if seq < 1 || seq > len(changes) {
		return "", goerrors.Wrap(ErrRevisionOutOfRange, goerrors.CategoryNotFound,
			fmt.Sprintf("page %s has %d revisions", page, len(changes))).
			WithTextCode(TextCodeRevisionRange)
	}
	return revisions.ReplayChanges(changes[:seq])
}

func (s *service) Backlinks(ctx context.Context, universe uuid.UUID, page slug.Slug) ([]slug.Slug, error) {
	sources, err := s.store.Backlinks(ctx, universe, page)
	if err != nil {
		return nil, fmt.Errorf("wiki: backlinks to %s: %w", page, err)
	}
	return sources.Sorted(), nil
}

// Sidebar renders the sidebar page. It returns nil without error when the
// universe has none.
func (s *service) Sidebar(ctx context.Context, universe uuid.UUID) (*RenderedPage, error) {
	page, err := s.Show(ctx, universe, slug.MustNew(SidebarSlug))
	if errors.Is(err, revisions.ErrPageNotFound) {
		return nil, nil
	}
	return page, err
}

// CanonicalPath turns a requested path into a usable slug. Paths that are
// already valid come back unchanged; others are slugified, and anything that
// slugifies to nothing becomes the index page.
func CanonicalPath(raw string) slug.Slug {
	if s, err := slug.New(raw); err == nil {
		return s
	}
	if s, err := slug.Slugify(raw); err == nil {
		return s
	}
	return slug.MustNew(IndexSlug)
}

func mapReadError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	var pageErr *revisions.PageNotFoundError
	if errors.As(err, &pageErr) {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, fmt.Sprintf("page %s not found", pageErr.Slug)).
			WithTextCode(TextCodePageNotFound)
	}
	var changeErr *revisions.ChangeNotFoundError
	if errors.As(err, &changeErr) {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, fmt.Sprintf("change %s not found", changeErr.Hash)).
			WithTextCode(TextCodeChangeNotFound)
	}
	return err
}
