package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/cmd/internal/bootstrap"
	"github.com/goliatone/go-wiki/internal/markup"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/internal/wiki"
	"github.com/goliatone/go-wiki/slug"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runRender(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("wiki render: %v", err)
	}
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("wiki-render", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	driver := fs.String("driver", "", "Storage driver override (memory, sqlite3, postgres)")
	dsn := fs.String("dsn", "", "Storage DSN override")
	universe := fs.String("universe", "", "Universe UUID the page belongs to")
	page := fs.String("page", wiki.IndexSlug, "Page path to render")
	file := fs.String("file", "", "Render a local markdown file instead of a stored page")
	source := fs.Bool("source", false, "Print the stored source instead of HTML")
	revision := fs.Int("revision", 0, "Print the source as of this change number")
	history := fs.Bool("history", false, "List the change log of the page")
	backlinks := fs.Bool("backlinks", false, "List pages linking to the page")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	universeID, err := bootstrap.ParseUniverse(*universe)
	if err != nil {
		return fmt.Errorf("parse universe: %w", err)
	}

	module, err := moduleBuilder(ctx, bootstrap.Options{
		ConfigPath: *configPath,
		Driver:     *driver,
		DSN:        *dsn,
		Verbose:    *verbose,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	pages := module.Module.Pages()
	target := wiki.CanonicalPath(*page)

	switch {
	case *file != "":
		content, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		resolved, err := existingPages(ctx, module.Module.Container().Store(), universeID, markup.ExtractLinks(content))
		if err != nil {
			return err
		}
		fmt.Fprint(out, module.Module.Container().Renderer().Render(content, resolved))
	case *history:
		changes, err := pages.History(ctx, universeID, target)
		if err != nil {
			return err
		}
		for _, change := range changes {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", change.Seq, change.Hash, change.Author, change.InsertedAt.UTC().Format(time.RFC3339))
		}
	case *backlinks:
		sources, err := pages.Backlinks(ctx, universeID, target)
		if err != nil {
			return err
		}
		for _, s := range sources {
			fmt.Fprintln(out, s.String())
		}
	case *revision > 0:
		content, err := pages.Revision(ctx, universeID, target, *revision)
		if err != nil {
			return err
		}
		fmt.Fprint(out, content)
	case *source:
		src, err := pages.Source(ctx, universeID, target)
		if err != nil {
			return err
		}
		fmt.Fprint(out, src.Content)
	default:
		rendered, err := pages.Show(ctx, universeID, target)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered.HTML)
	}
	return nil
}

// existingPages keeps the links whose destination page has been saved.
func existingPages(ctx context.Context, store revisions.Store, universe uuid.UUID, links slug.Set) (slug.Set, error) {
	resolved := slug.NewSet()
	for _, link := range links.Sorted() {
		_, err := store.GetPage(ctx, universe, link)
		switch {
		case err == nil:
			resolved.Add(link)
		case errors.Is(err, revisions.ErrPageNotFound):
		default:
			return nil, err
		}
	}
	return resolved, nil
}
