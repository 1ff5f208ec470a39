package revisions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/slug"
)

// Store is the persistence boundary of the engine. Reads outside RunInTx see
// committed state only.
type Store interface {
	// RunInTx runs fn in a transaction. A non-nil error from fn rolls back
	// every write made through tx.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// GetPage returns a *PageNotFoundError when nothing is stored at s.
	GetPage(ctx context.Context, universe uuid.UUID, s slug.Slug) (*Page, error)
	// ExistingLinksFrom returns the destinations of s that are saved pages.
	ExistingLinksFrom(ctx context.Context, universe uuid.UUID, s slug.Slug) (slug.Set, error)
	// Backlinks returns the pages linking to s.
	Backlinks(ctx context.Context, universe uuid.UUID, s slug.Slug) (slug.Set, error)
	// ListChanges returns the diff log of s ordered by seq.
	ListChanges(ctx context.Context, universe uuid.UUID, s slug.Slug) ([]*Change, error)
	// GetChange returns a *ChangeNotFoundError for unknown hashes and for
	// changes made to pages of another universe.
	GetChange(ctx context.Context, universe uuid.UUID, hash string) (*Change, error)
}

// Tx is the write side of a Store transaction.
type Tx interface {
	// GetPageForUpdate locks the page row until the transaction ends and
	// returns nil without error when the page does not exist yet.
	GetPageForUpdate(ctx context.Context, universe uuid.UUID, s slug.Slug) (*Page, error)
	// UpsertPageContent creates or overwrites the page and returns its id.
	UpsertPageContent(ctx context.Context, universe uuid.UUID, s slug.Slug, content string, at time.Time) (uuid.UUID, error)
	LinksFrom(ctx context.Context, universe uuid.UUID, s slug.Slug) (slug.Set, error)
	EstablishLink(ctx context.Context, universe uuid.UUID, source, dest slug.Slug) error
	DeregisterLink(ctx context.Context, universe uuid.UUID, source, dest slug.Slug) error
	InsertChange(ctx context.Context, change *Change) error
}
