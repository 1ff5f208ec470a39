package revisions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/identity"
	"github.com/goliatone/go-wiki/slug"
)

type pageKey struct {
	universe uuid.UUID
	slug     string
}

type linkKey struct {
	universe uuid.UUID
	source   string
	dest     string
}

// MemoryStore keeps everything in process. Writers to the same page are
// serialised by a per-page mutex held for the whole transaction; staged writes
// become visible only on commit.
type MemoryStore struct {
	mu      sync.RWMutex
	pages   map[pageKey]*Page
	changes map[uuid.UUID][]*Change
	links   map[linkKey]struct{}

	locksMu sync.Mutex
	locks   map[pageKey]*sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pages:   make(map[pageKey]*Page),
		changes: make(map[uuid.UUID][]*Change),
		links:   make(map[linkKey]struct{}),
		locks:   make(map[pageKey]*sync.Mutex),
	}
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{store: m, held: make(map[pageKey]*sync.Mutex)}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (m *MemoryStore) GetPage(_ context.Context, universe uuid.UUID, s slug.Slug) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page := m.pageLocked(pageKey{universe, s.String()})
	if page == nil {
		return nil, &PageNotFoundError{Universe: universe, Slug: s.String()}
	}
	return page, nil
}

func (m *MemoryStore) ExistingLinksFrom(_ context.Context, universe uuid.UUID, s slug.Slug) (slug.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slug.NewSet()
	for key := range m.links {
		if key.universe != universe || key.source != s.String() {
			continue
		}
		if _, ok := m.pages[pageKey{universe, key.dest}]; ok {
			out.Add(slug.MustNew(key.dest))
		}
	}
	return out, nil
}

func (m *MemoryStore) Backlinks(_ context.Context, universe uuid.UUID, s slug.Slug) (slug.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slug.NewSet()
	for key := range m.links {
		if key.universe == universe && key.dest == s.String() {
			out.Add(slug.MustNew(key.source))
		}
	}
	return out, nil
}

func (m *MemoryStore) ListChanges(_ context.Context, universe uuid.UUID, s slug.Slug) ([]*Change, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page, ok := m.pages[pageKey{universe, s.String()}]
	if !ok {
		return nil, &PageNotFoundError{Universe: universe, Slug: s.String()}
	}
	log := m.changes[page.ID]
	out := make([]*Change, len(log))
	for i, change := range log {
		cloned := *change
		out[i] = &cloned
	}
	return out, nil
}

func (m *MemoryStore) GetChange(_ context.Context, universe uuid.UUID, hash string) (*Change, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for key, page := range m.pages {
		if key.universe != universe {
			continue
		}
		for _, change := range m.changes[page.ID] {
			if change.Hash == hash {
				cloned := *change
				return &cloned, nil
			}
		}
	}
	return nil, &ChangeNotFoundError{Hash: hash}
}

// pageLocked returns a copy of the page with its latest change applied.
// Callers hold m.mu.
func (m *MemoryStore) pageLocked(key pageKey) *Page {
	stored, ok := m.pages[key]
	if !ok {
		return nil
	}
	page := *stored
	if log := m.changes[page.ID]; len(log) > 0 {
		last := log[len(log)-1]
		page.LatestChangeHash = last.Hash
		page.LatestSeq = last.Seq
	}
	return &page
}

func (m *MemoryStore) pageLock(key pageKey) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

type linkOp struct {
	key linkKey
	add bool
}

type memoryTx struct {
	store   *MemoryStore
	held    map[pageKey]*sync.Mutex
	pages   []*Page
	changes []*Change
	linkOps []linkOp
}

var _ Tx = (*memoryTx)(nil)

func (t *memoryTx) GetPageForUpdate(ctx context.Context, universe uuid.UUID, s slug.Slug) (*Page, error) {
	key := pageKey{universe, s.String()}
	if _, ok := t.held[key]; !ok {
		lock := t.store.pageLock(key)
		lock.Lock()
		t.held[key] = lock
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.pageLocked(key), nil
}

func (t *memoryTx) UpsertPageContent(_ context.Context, universe uuid.UUID, s slug.Slug, content string, at time.Time) (uuid.UUID, error) {
	id := identity.PageUUID(universe, s)
	t.pages = append(t.pages, &Page{
		ID:         id,
		UniverseID: universe,
		Slug:       s.String(),
		Content:    content,
		InsertedAt: at,
		UpdatedAt:  at,
	})
	return id, nil
}

func (t *memoryTx) LinksFrom(_ context.Context, universe uuid.UUID, s slug.Slug) (slug.Set, error) {
	out := slug.NewSet()

	t.store.mu.RLock()
	for key := range t.store.links {
		if key.universe == universe && key.source == s.String() {
			out.Add(slug.MustNew(key.dest))
		}
	}
	t.store.mu.RUnlock()

	for _, op := range t.linkOps {
		if op.key.universe != universe || op.key.source != s.String() {
			continue
		}
		if op.add {
			out.Add(slug.MustNew(op.key.dest))
		} else {
			delete(out, op.key.dest)
		}
	}
	return out, nil
}

func (t *memoryTx) EstablishLink(_ context.Context, universe uuid.UUID, source, dest slug.Slug) error {
	t.linkOps = append(t.linkOps, linkOp{key: linkKey{universe, source.String(), dest.String()}, add: true})
	return nil
}

func (t *memoryTx) DeregisterLink(_ context.Context, universe uuid.UUID, source, dest slug.Slug) error {
	t.linkOps = append(t.linkOps, linkOp{key: linkKey{universe, source.String(), dest.String()}})
	return nil
}

func (t *memoryTx) InsertChange(_ context.Context, change *Change) error {
	if change == nil {
		return fmt.Errorf("revisions: nil change")
	}
	cloned := *change
	t.changes = append(t.changes, &cloned)
	return nil
}

func (t *memoryTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, change := range t.changes {
		log := s.changes[change.PageID]
		if len(log) > 0 && log[len(log)-1].Seq >= change.Seq {
			return fmt.Errorf("revisions: duplicate change seq %d for page %s", change.Seq, change.PageID)
		}
	}

	for _, page := range t.pages {
		key := pageKey{page.UniverseID, page.Slug}
		if existing, ok := s.pages[key]; ok {
			existing.Content = page.Content
			existing.UpdatedAt = page.UpdatedAt
			continue
		}
		s.pages[key] = page
	}
	for _, change := range t.changes {
		s.changes[change.PageID] = append(s.changes[change.PageID], change)
	}
	for _, op := range t.linkOps {
		if op.add {
			s.links[op.key] = struct{}{}
		} else {
			delete(s.links, op.key)
		}
	}
	return nil
}

func (t *memoryTx) release() {
	for _, lock := range t.held {
		lock.Unlock()
	}
	t.held = nil
}
