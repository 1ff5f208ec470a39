package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki"
	"github.com/goliatone/go-wiki/cmd/internal/bootstrap"
	"github.com/goliatone/go-wiki/slug"
)

func seed(t *testing.T, dsn string, universe uuid.UUID, edits ...[2]string) {
	t.Helper()
	module, err := bootstrap.BuildModule(context.Background(), bootstrap.Options{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer module.Close()

	pages := module.Module.Pages()
	for _, edit := range edits {
		target := slug.MustNew(edit[0])
		src, err := pages.Source(context.Background(), universe, target)
		if err != nil {
			t.Fatalf("source %s: %v", edit[0], err)
		}
		if _, err := pages.Edit(context.Background(), wiki.EditRequest{
			Universe: universe,
			Slug:     target,
			Author:   "ana",
			Content:  edit[1],
			Token:    src.Token,
		}); err != nil {
			t.Fatalf("edit %s: %v", edit[0], err)
		}
	}
}

func render(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := runRender(context.Background(), args, &out); err != nil {
		t.Fatalf("runRender %v: %v", args, err)
	}
	return out.String()
}

func TestRunRenderModes(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "wiki.db")
	universe := uuid.New()
	seed(t, dsn, universe,
		[2]string{"Index", "first"},
		[2]string{"Index", "See [[Guide]]"},
		[2]string{"Guide", "Back to [[Index]]"},
	)
	base := []string{"-driver", "sqlite", "-dsn", dsn, "-universe", universe.String()}

	html := render(t, append(base, "-page", "Index")...)
	if !strings.Contains(html, `<a href="/~/Guide/"`) || strings.Contains(html, "noexist") {
		t.Fatalf("expected resolved link to Guide, got %s", html)
	}

	if got := render(t, append(base, "-source")...); got != "See [[Guide]]" {
		t.Fatalf("unexpected source %q", got)
	}
	if got := render(t, append(base, "-revision", "1")...); got != "first" {
		t.Fatalf("unexpected first revision %q", got)
	}

	history := strings.Split(strings.TrimSpace(render(t, append(base, "-history")...)), "\n")
	if len(history) != 2 || !strings.HasPrefix(history[0], "1\t") || !strings.HasPrefix(history[1], "2\t") {
		t.Fatalf("unexpected history %q", history)
	}

	if got := render(t, append(base, "-page", "Index", "-backlinks")...); got != "Guide\n" {
		t.Fatalf("unexpected backlinks %q", got)
	}
}

func TestRunRenderMissingPage(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "wiki.db")
	err := runRender(context.Background(), []string{"-driver", "sqlite", "-dsn", dsn, "-page", "Nowhere"}, &bytes.Buffer{})
	if !errors.Is(err, wiki.ErrPageNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRunRenderFileMarksMissingPages(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "wiki.db")
	universe := uuid.New()
	seed(t, dsn, universe, [2]string{"Guide", "guide"})

	path := filepath.Join(t.TempDir(), "draft.md")
	if err := os.WriteFile(path, []byte("[[Guide]] and [[Later]]"), 0o600); err != nil {
		t.Fatalf("write draft: %v", err)
	}

	html := render(t, "-driver", "sqlite", "-dsn", dsn, "-universe", universe.String(), "-file", path)
	if !strings.Contains(html, `<a href="/~/Guide/" rel=`) {
		t.Fatalf("expected existing Guide link, got %s", html)
	}
	if !strings.Contains(html, `<a href="/~/Later/" class="noexist"`) {
		t.Fatalf("expected redlink for Later, got %s", html)
	}
}
