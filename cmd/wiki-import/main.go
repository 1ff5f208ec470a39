package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goliatone/go-wiki/cmd/internal/bootstrap"
	pagescmd "github.com/goliatone/go-wiki/internal/commands/pages"
	"github.com/goliatone/go-wiki/internal/importer"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runImport(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("wiki import: %v", err)
	}
}

func runImport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("wiki-import", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	driver := fs.String("driver", "", "Storage driver override (memory, sqlite3, postgres)")
	dsn := fs.String("dsn", "", "Storage DSN override")
	universe := fs.String("universe", "", "Universe UUID the pages belong to")
	directory := fs.String("dir", "content", "Directory of markdown files to import")
	pattern := fs.String("pattern", "*.md", "Glob pattern applied to file names")
	recursive := fs.Bool("recursive", true, "Descend into subdirectories")
	author := fs.String("author", importer.DefaultAuthor, "Author recorded on imported changes")
	dryRun := fs.Bool("dry-run", false, "Report what would change without saving")
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

	var result importer.Result
	cmd := pagescmd.ImportPagesCommand{
		Universe:  universeID,
		Directory: *directory,
		Author:    *author,
		Pattern:   *pattern,
		Recursive: *recursive,
		DryRun:    *dryRun,
		Result:    &result,
	}
	execErr := module.Module.Container().PageCommands().Import.Execute(ctx, cmd)

	for _, outcome := range result.Outcomes {
		fmt.Fprintf(out, "%-9s %s -> %s\n", outcome.Action, outcome.FilePath, outcome.Slug)
	}
	fmt.Fprintf(out, "created=%d updated=%d unchanged=%d planned=%d errors=%d\n",
		result.Count(importer.ActionCreated),
		result.Count(importer.ActionUpdated),
		result.Count(importer.ActionUnchanged),
		result.Count(importer.ActionPlanned),
		len(result.Errors),
	)

	if execErr != nil {
		return fmt.Errorf("execute import command: %w", execErr)
	}
	return nil
}
