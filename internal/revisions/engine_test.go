package revisions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wiki/pkg/testsupport"
	"github.com/goliatone/go-wiki/slug"
)

var testUniverse = uuid.MustParse("6f0c1d2e-8a7b-4c3d-9e1f-0a1b2c3d4e5f")

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return NewBunStore(openSQLite(t)) },
		"sqlite_cached": func(t *testing.T) Store {
			service, err := cache.NewCacheService(cache.DefaultConfig())
			if err != nil {
				t.Fatalf("cache service: %v", err)
			}
			return NewBunStore(openSQLite(t), WithChangeCache(service, cache.NewDefaultKeySerializer()))
		},
	}
}

func openSQLite(t *testing.T) *bun.DB {
	t.Helper()
	db, err := testsupport.NewSQLiteBunDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func edit(s, author, content, token string) EditRequest {
	return EditRequest{
		Universe: testUniverse,
		Slug:     slug.MustNew(s),
		Author:   author,
		Content:  content,
		Token:    token,
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store, engine *Engine)) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			fn(t, store, NewEngine(store, WithClock(fixedClock())))
		})
	}
}

func TestApplyCreatesPage(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		res, err := engine.Apply(ctx, edit("Index", "ana", "Hello [[World]]", ""))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if !res.Changed || res.Seq != 1 || len(res.Hash) != 64 {
			t.Fatalf("unexpected result %+v", res)
		}
		if diff := cmp.Diff([]string{"World"}, res.Added.Strings()); diff != "" {
			t.Fatalf("unexpected added links (-want +got):\n%s", diff)
		}

		page, err := store.GetPage(ctx, testUniverse, slug.MustNew("/Index/"))
		if err != nil {
			t.Fatalf("get page: %v", err)
		}
		if page.Content != "Hello [[World]]" || page.LatestChangeHash != res.Hash || page.LatestSeq != 1 {
			t.Fatalf("unexpected page %+v", page)
		}

		change, err := store.GetChange(ctx, testUniverse, res.Hash)
		if err != nil {
			t.Fatalf("get change: %v", err)
		}
		if change.Author != "ana" || change.PageID != page.ID {
			t.Fatalf("unexpected change %+v", change)
		}
	})
}

func TestApplyRejectsStaleToken(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		first, err := engine.Apply(ctx, edit("Index", "ana", "one", ""))
		if err != nil {
			t.Fatalf("first apply: %v", err)
		}
		second, err := engine.Apply(ctx, edit("Index", "bo", "two", first.Hash))
		if err != nil {
			t.Fatalf("second apply: %v", err)
		}

		for _, token := range []string{first.Hash, ""} {
			_, err = engine.Apply(ctx, edit("Index", "cy", "three", token))
			if !errors.Is(err, ErrPageAlreadyChanged) {
				t.Fatalf("token %q: expected ErrPageAlreadyChanged, got %v", token, err)
			}
			if !goerrors.IsCategory(err, goerrors.CategoryConflict) {
				t.Fatalf("token %q: expected conflict category, got %v", token, err)
			}
		}

		page, err := store.GetPage(ctx, testUniverse, slug.MustNew("Index"))
		if err != nil {
			t.Fatalf("get page: %v", err)
		}
		if page.Content != "two" || page.LatestChangeHash != second.Hash {
			t.Fatalf("expected rejected edits to leave the page untouched, got %+v", page)
		}
		changes, err := store.ListChanges(ctx, testUniverse, slug.MustNew("Index"))
		if err != nil {
			t.Fatalf("list changes: %v", err)
		}
		if len(changes) != 2 {
			t.Fatalf("expected 2 changes, got %d", len(changes))
		}
	})
}

func TestApplyIdenticalContentIsNoOp(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		first, err := engine.Apply(ctx, edit("Index", "ana", "same", ""))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		res, err := engine.Apply(ctx, edit("Index", "bo", "same", first.Hash))
		if err != nil {
			t.Fatalf("no-op apply: %v", err)
		}
		if res.Changed || res.Hash != "" {
			t.Fatalf("expected unchanged result, got %+v", res)
		}

		changes, err := store.ListChanges(ctx, testUniverse, slug.MustNew("Index"))
		if err != nil {
			t.Fatalf("list changes: %v", err)
		}
		if len(changes) != 1 {
			t.Fatalf("expected no new change, got %d", len(changes))
		}
	})
}

func TestApplyEmptyContentOnNewPageIsNoOp(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		res, err := engine.Apply(context.Background(), edit("Empty", "ana", "", ""))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if res.Changed {
			t.Fatalf("expected no change for empty source")
		}
		if _, err := store.GetPage(context.Background(), testUniverse, slug.MustNew("Empty")); !errors.Is(err, ErrPageNotFound) {
			t.Fatalf("expected page to stay missing, got %v", err)
		}
	})
}

func TestApplyConvergesLinkGraph(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		first, err := engine.Apply(ctx, edit("P", "ana", "[[B]] and [[C]]", ""))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		res, err := engine.Apply(ctx, edit("P", "ana", "[[A]] and [[B]] and [[B#Part]]", first.Hash))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if diff := cmp.Diff([]string{"A"}, res.Added.Strings()); diff != "" {
			t.Fatalf("added (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"C"}, res.Removed.Strings()); diff != "" {
			t.Fatalf("removed (-want +got):\n%s", diff)
		}

		for dest, want := range map[string][]string{"A": {"P"}, "B": {"P"}, "C": {}} {
			got, err := store.Backlinks(ctx, testUniverse, slug.MustNew(dest))
			if err != nil {
				t.Fatalf("backlinks %s: %v", dest, err)
			}
			if diff := cmp.Diff(want, got.Strings()); diff != "" {
				t.Fatalf("backlinks %s (-want +got):\n%s", dest, diff)
			}
		}
	})
}

func TestExistingLinksFromSkipsRedlinks(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		if _, err := engine.Apply(ctx, edit("P", "ana", "[[B]] [[C]]", "")); err != nil {
			t.Fatalf("apply P: %v", err)
		}
		if _, err := engine.Apply(ctx, edit("B", "ana", "exists", "")); err != nil {
			t.Fatalf("apply B: %v", err)
		}

		got, err := store.ExistingLinksFrom(ctx, testUniverse, slug.MustNew("P"))
		if err != nil {
			t.Fatalf("existing links: %v", err)
		}
		if diff := cmp.Diff([]string{"B"}, got.Strings()); diff != "" {
			t.Fatalf("existing links (-want +got):\n%s", diff)
		}
	})
}

func TestReplayReproducesContent(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()
		versions := []string{
			"# Title\n\nfirst draft",
			"# Title\n\nfirst draft, revised\n\n- item",
			"# Título ✓\n\n- item\n- другой",
			"",
			"back again",
		}

		token := ""
		for i, content := range versions {
			res, err := engine.Apply(ctx, edit("Doc", "ana", content, token))
			if err != nil {
				t.Fatalf("apply %d: %v", i, err)
			}
			token = res.Hash
		}

		changes, err := store.ListChanges(ctx, testUniverse, slug.MustNew("Doc"))
		if err != nil {
			t.Fatalf("list changes: %v", err)
		}
		if len(changes) != len(versions) {
			t.Fatalf("expected %d changes, got %d", len(versions), len(changes))
		}
		for i, change := range changes {
			if change.Seq != i+1 {
				t.Fatalf("expected seq %d, got %d", i+1, change.Seq)
			}
		}

		got, err := ReplayChanges(changes)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if got != versions[len(versions)-1] {
			t.Fatalf("replay mismatch: %q", got)
		}
	})
}

func TestReadsOfMissingPages(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, _ *Engine) {
		ctx := context.Background()
		var notFound *PageNotFoundError

		if _, err := store.GetPage(ctx, testUniverse, slug.MustNew("Nope")); !errors.As(err, &notFound) {
			t.Fatalf("expected PageNotFoundError, got %v", err)
		}
		if _, err := store.ListChanges(ctx, testUniverse, slug.MustNew("Nope")); !errors.Is(err, ErrPageNotFound) {
			t.Fatalf("expected ErrPageNotFound, got %v", err)
		}
		if _, err := store.GetChange(ctx, testUniverse, strings.Repeat("0", 64)); !errors.Is(err, ErrChangeNotFound) {
			t.Fatalf("expected ErrChangeNotFound, got %v", err)
		}
	})
}

func TestApplyRequiresSlug(t *testing.T) {
	engine := NewEngine(NewMemoryStore())
	if _, err := engine.Apply(context.Background(), EditRequest{Content: "x"}); !errors.Is(err, ErrSlugRequired) {
		t.Fatalf("expected ErrSlugRequired, got %v", err)
	}
}

func TestApplyRejectsInvalidUTF8(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		_, err := engine.Apply(ctx, edit("Latin", "ana", "caf\xe9 latin-1", ""))
		if !errors.Is(err, ErrInvalidUTF8) {
			t.Fatalf("expected ErrInvalidUTF8, got %v", err)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation category, got %v", err)
		}
		if _, err := store.GetPage(ctx, testUniverse, slug.MustNew("Latin")); !errors.Is(err, ErrPageNotFound) {
			t.Fatalf("expected no page to be written, got %v", err)
		}
	})
}

func TestApplyMultiHunkNonASCIIEdits(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()
		block := "ab c\né日 本語 ünïcödé line\n"
		versions := []string{
			strings.Repeat(block, 6),
			strings.Replace(strings.Repeat(block, 6), "ünïcödé line\nab c", "unicode line\nab ç", -1),
			"前言\n" + strings.Replace(strings.Repeat(block, 6), "é日", "e日本", -1) + "末尾 ☕\n",
			strings.Repeat("ab c\n", 3) + "— fin —",
		}

		token := ""
		for i, content := range versions {
			res, err := engine.Apply(ctx, edit("Multi", "ana", content, token))
			if err != nil {
				t.Fatalf("apply %d: %v", i, err)
			}
			if !res.Changed {
				t.Fatalf("apply %d: expected a change", i)
			}
			token = res.Hash
		}

		changes, err := store.ListChanges(ctx, testUniverse, slug.MustNew("Multi"))
		if err != nil {
			t.Fatalf("list changes: %v", err)
		}
		for n := 1; n <= len(changes); n++ {
			got, err := ReplayChanges(changes[:n])
			if err != nil {
				t.Fatalf("replay %d: %v", n, err)
			}
			if got != versions[n-1] {
				t.Fatalf("replay %d: expected %q, got %q", n, versions[n-1], got)
			}
		}
	})
}

func TestGetChangeIsScopedToUniverse(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()
		other := uuid.MustParse("2a3b4c5d-6e7f-4a8b-9c0d-1e2f3a4b5c6d")

		res, err := engine.Apply(ctx, edit("Index", "ana", "private", ""))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}

		if _, err := store.GetChange(ctx, testUniverse, res.Hash); err != nil {
			t.Fatalf("get change in own universe: %v", err)
		}
		_, err = store.GetChange(ctx, other, res.Hash)
		var notFound *ChangeNotFoundError
		if !errors.As(err, &notFound) || notFound.Hash != res.Hash {
			t.Fatalf("expected ChangeNotFoundError from another universe, got %v", err)
		}
		if _, err := store.GetChange(ctx, testUniverse, res.Hash); err != nil {
			t.Fatalf("get change after foreign lookup: %v", err)
		}
	})
}

func TestConcurrentEditsWithSameTokenAdmitOneWinner(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store, engine *Engine) {
		ctx := context.Background()

		base, err := engine.Apply(ctx, edit("Race", "ana", "base", ""))
		if err != nil {
			t.Fatalf("apply base: %v", err)
		}

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := engine.Apply(ctx, edit("Race", fmt.Sprintf("writer-%d", i), strings.Repeat("x", i+1), base.Hash))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, ErrPageAlreadyChanged):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		if wins != 1 || conflicts != writers-1 {
			t.Fatalf("expected one winner, got wins=%d conflicts=%d", wins, conflicts)
		}
		changes, err := store.ListChanges(ctx, testUniverse, slug.MustNew("Race"))
		if err != nil {
			t.Fatalf("list changes: %v", err)
		}
		if len(changes) != 2 {
			t.Fatalf("expected 2 changes, got %d", len(changes))
		}
	})
}

func TestRollbackOnStoreFailure(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(&failingStore{MemoryStore: store})

	_, err := engine.Apply(context.Background(), edit("P", "ana", "[[B]]", ""))
	if err == nil || !strings.Contains(err.Error(), "insert failed") {
		t.Fatalf("expected insert failure, got %v", err)
	}
	if _, err := store.GetPage(context.Background(), testUniverse, slug.MustNew("P")); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected page write to be rolled back, got %v", err)
	}
	links, _ := store.Backlinks(context.Background(), testUniverse, slug.MustNew("B"))
	if links.Len() != 0 {
		t.Fatalf("expected link writes to be rolled back, got %v", links.Strings())
	}
}

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return f.MemoryStore.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return fn(ctx, failingTx{Tx: tx})
	})
}

type failingTx struct {
	Tx
}

func (failingTx) InsertChange(context.Context, *Change) error {
	return errors.New("insert failed")
}
