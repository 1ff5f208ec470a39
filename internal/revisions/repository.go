package revisions

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewPageRepository exposes pages through go-repository-bun. Slugs are only
// unique per universe, so lookups go through List criteria rather than the
// identifier.
func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Slug
		},
	})
}

// universeScope restricts change selects to pages of the universe stored in
// the scope data. Changes carry no universe column of their own.
const universeScope = "universe"

// NewChangeRepository exposes the change log, identified by hash.
func NewChangeRepository(db *bun.DB) repository.Repository[*Change] {
	repo := repository.MustNewRepository(db, repository.ModelHandlers[*Change]{
		NewRecord: func() *Change { return &Change{} },
		GetID: func(c *Change) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Change, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "hash"
		},
		GetIdentifierValue: func(c *Change) string {
			return c.Hash
		},
	})
	repo.RegisterScope(universeScope, repository.ScopeDefinition{
		Select: func(ctx context.Context) []repository.SelectCriteria {
			raw, ok := repository.ScopeData(ctx, universeScope)
			if !ok {
				return nil
			}
			universe, ok := raw.(uuid.UUID)
			if !ok {
				return nil
			}
			return []repository.SelectCriteria{func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.page_id IN (SELECT id FROM pages WHERE universe_id = ?)", universe)
			}}
		},
	})
	return repo
}

// withUniverseScope enables the universe select scope. The universe is part
// of the scope state, so cached lookups are keyed on it as well.
func withUniverseScope(ctx context.Context, universe uuid.UUID) context.Context {
	ctx = repository.WithScopeData(ctx, universeScope, universe)
	return repository.WithSelectScopes(ctx, universeScope)
}

// wrapWithCache is only applied to immutable rows: changes are never updated
// once written, so cached reads cannot go stale.
func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
