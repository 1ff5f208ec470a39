package revisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-wiki/internal/identity"
	"github.com/goliatone/go-wiki/slug"
)

// BunStore persists pages, changes and links through bun. On postgres the
// page row is locked with SELECT ... FOR UPDATE; sqlite serialises writers
// on its own.
type BunStore struct {
	db            *bun.DB
	lockRows      bool
	pages         repository.Repository[*Page]
	changes       repository.Repository[*Change]
	changesByHash repository.Repository[*Change]
}

var _ Store = (*BunStore)(nil)

// BunStoreOption configures a BunStore.
type BunStoreOption func(*bunStoreConfig)

type bunStoreConfig struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
}

// WithChangeCache caches change lookups by universe and hash.
func WithChangeCache(cacheService cache.CacheService, keySerializer cache.KeySerializer) BunStoreOption {
	return func(cfg *bunStoreConfig) {
		cfg.cacheService = cacheService
		cfg.keySerializer = keySerializer
	}
}

// NewBunStore wraps db. Tables are expected to exist, see CreateSchema.
func NewBunStore(db *bun.DB, opts ...BunStoreOption) *BunStore {
	var cfg bunStoreConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	changes := NewChangeRepository(db)
	return &BunStore{
		db:            db,
		lockRows:      db.Dialect().Name() == dialect.PG,
		pages:         NewPageRepository(db),
		changes:       changes,
		changesByHash: wrapWithCache(changes, cfg.cacheService, cfg.keySerializer),
	}
}

// CreateSchema creates the pages, changes and links tables when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{(*Page)(nil), (*Change)(nil), (*Link)(nil)}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("revisions: create table: %w", err)
		}
	}
	if _, err := db.NewCreateIndex().
		Model((*Change)(nil)).
		Index("changes_hash_idx").
		Column("hash").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("revisions: create changes index: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*Link)(nil)).
		Index("links_dest_idx").
		Column("universe_id", "dest_slug").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("revisions: create links index: %w", err)
	}
	return nil
}

func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunTx{tx: tx, lockRows: s.lockRows})
	})
}

func (s *BunStore) GetPage(ctx context.Context, universe uuid.UUID, page slug.Slug) (*Page, error) {
	records, _, err := s.pages.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.universe_id = ?", universe).
				Where("?TableAlias.slug = ?", page.String())
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, universe, page.String())
	}
	if len(records) == 0 {
		return nil, &PageNotFoundError{Universe: universe, Slug: page.String()}
	}

	record := records[0]
	latest, _, err := s.changes.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", record.ID).
				OrderExpr("?TableAlias.seq DESC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("revisions: latest change: %w", err)
	}
	if len(latest) > 0 {
		record.LatestChangeHash = latest[0].Hash
		record.LatestSeq = latest[0].Seq
	}
	return record, nil
}

func (s *BunStore) ExistingLinksFrom(ctx context.Context, universe uuid.UUID, source slug.Slug) (slug.Set, error) {
	var dests []string
	err := s.db.NewSelect().
		TableExpr("links AS l").
		ColumnExpr("l.dest_slug").
		Join("JOIN pages AS p ON p.universe_id = l.universe_id AND p.slug = l.dest_slug").
		Where("l.universe_id = ?", universe).
		Where("l.source_slug = ?", source.String()).
		Scan(ctx, &dests)
	if err != nil {
		return nil, fmt.Errorf("revisions: existing links: %w", err)
	}
	return toSet(dests), nil
}

func (s *BunStore) Backlinks(ctx context.Context, universe uuid.UUID, dest slug.Slug) (slug.Set, error) {
	var sources []string
	err := s.db.NewSelect().
		TableExpr("links AS l").
		ColumnExpr("l.source_slug").
		Where("l.universe_id = ?", universe).
		Where("l.dest_slug = ?", dest.String()).
		Scan(ctx, &sources)
	if err != nil {
		return nil, fmt.Errorf("revisions: backlinks: %w", err)
	}
	return toSet(sources), nil
}

func (s *BunStore) ListChanges(ctx context.Context, universe uuid.UUID, page slug.Slug) ([]*Change, error) {
	pageID := identity.PageUUID(universe, page)
	if _, err := s.pages.GetByID(ctx, pageID.String()); err != nil {
		return nil, mapRepositoryError(err, universe, page.String())
	}

	records, _, err := s.changes.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", pageID).
				OrderExpr("?TableAlias.seq ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("revisions: list changes: %w", err)
	}
	return records, nil
}

func (s *BunStore) GetChange(ctx context.Context, universe uuid.UUID, hash string) (*Change, error) {
	record, err := s.changesByHash.GetByIdentifier(withUniverseScope(ctx, universe), hash)
	if err != nil {
		if isNotFound(err) {
			return nil, &ChangeNotFoundError{Hash: hash}
		}
		return nil, fmt.Errorf("revisions: get change: %w", err)
	}
	return record, nil
}

type bunTx struct {
	tx       bun.Tx
	lockRows bool
}

var _ Tx = (*bunTx)(nil)

func (t *bunTx) GetPageForUpdate(ctx context.Context, universe uuid.UUID, s slug.Slug) (*Page, error) {
	page := new(Page)
	q := t.tx.NewSelect().
		Model(page).
		Where("?TableAlias.universe_id = ?", universe).
		Where("?TableAlias.slug = ?", s.String()).
		Limit(1)
	if t.lockRows {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	latest := new(Change)
	err := t.tx.NewSelect().
		Model(latest).
		Where("?TableAlias.page_id = ?", page.ID).
		OrderExpr("?TableAlias.seq DESC").
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		page.LatestChangeHash = latest.Hash
		page.LatestSeq = latest.Seq
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	return page, nil
}

func (t *bunTx) UpsertPageContent(ctx context.Context, universe uuid.UUID, s slug.Slug, content string, at time.Time) (uuid.UUID, error) {
	page := &Page{
		ID:         identity.PageUUID(universe, s),
		UniverseID: universe,
		Slug:       s.String(),
		Content:    content,
		InsertedAt: at,
		UpdatedAt:  at,
	}
	_, err := t.tx.NewInsert().
		Model(page).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return page.ID, nil
}

func (t *bunTx) LinksFrom(ctx context.Context, universe uuid.UUID, source slug.Slug) (slug.Set, error) {
	var dests []string
	err := t.tx.NewSelect().
		TableExpr("links AS l").
		ColumnExpr("l.dest_slug").
		Where("l.universe_id = ?", universe).
		Where("l.source_slug = ?", source.String()).
		Scan(ctx, &dests)
	if err != nil {
		return nil, err
	}
	return toSet(dests), nil
}

func (t *bunTx) EstablishLink(ctx context.Context, universe uuid.UUID, source, dest slug.Slug) error {
	link := &Link{UniverseID: universe, SourceSlug: source.String(), DestSlug: dest.String()}
	_, err := t.tx.NewInsert().Model(link).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

func (t *bunTx) DeregisterLink(ctx context.Context, universe uuid.UUID, source, dest slug.Slug) error {
	_, err := t.tx.NewDelete().
		Model((*Link)(nil)).
		Where("?TableAlias.universe_id = ?", universe).
		Where("?TableAlias.source_slug = ?", source.String()).
		Where("?TableAlias.dest_slug = ?", dest.String()).
		Exec(ctx)
	return err
}

func (t *bunTx) InsertChange(ctx context.Context, change *Change) error {
	_, err := t.tx.NewInsert().Model(change).Exec(ctx)
	return err
}

func toSet(values []string) slug.Set {
	out := slug.NewSet()
	for _, value := range values {
		if s, err := slug.New(value); err == nil {
			out.Add(s)
		}
	}
	return out
}

func isNotFound(err error) bool {
	return goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows)
}

func mapRepositoryError(err error, universe uuid.UUID, key string) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return &PageNotFoundError{Universe: universe, Slug: key}
	}
	return fmt.Errorf("revisions: page repository: %w", err)
}
