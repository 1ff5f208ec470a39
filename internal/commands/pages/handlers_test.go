package pagescmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/commands"
	"github.com/goliatone/go-wiki/internal/commands/fixtures"
	"github.com/goliatone/go-wiki/internal/importer"
	"github.com/goliatone/go-wiki/internal/revisions"
	"github.com/goliatone/go-wiki/internal/wiki"
	"github.com/goliatone/go-wiki/pkg/testsupport"
	"github.com/goliatone/go-wiki/slug"
)

var universe = uuid.MustParse("9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b")

func newWiki() wiki.Service {
	return wiki.NewService(revisions.NewEngine(revisions.NewMemoryStore()))
}

func TestEditPageCommandValidate(t *testing.T) {
	cases := map[string]struct {
		msg   EditPageCommand
		valid bool
	}{
		"valid":          {msg: EditPageCommand{Slug: "Index", Author: "ana"}, valid: true},
		"missing slug":   {msg: EditPageCommand{Author: "ana"}},
		"spaced slug":    {msg: EditPageCommand{Slug: "Main Page", Author: "ana"}},
		"double score":   {msg: EditPageCommand{Slug: "a__b", Author: "ana"}},
		"missing author": {msg: EditPageCommand{Slug: "Index"}},
		"latin-1 body":   {msg: EditPageCommand{Slug: "Index", Author: "ana", Content: "caf\xe9 latin-1"}},
		"utf-8 body":     {msg: EditPageCommand{Slug: "Index", Author: "ana", Content: "café ☕"}, valid: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestImportPagesCommandValidate(t *testing.T) {
	if err := (ImportPagesCommand{Directory: "  "}).Validate(); err == nil {
		t.Fatal("expected blank directory to fail")
	}
	if err := (ImportPagesCommand{Directory: "docs"}).Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}
}

func TestEditPageHandlerAppliesEdit(t *testing.T) {
	svc := newWiki()
	handler := NewEditPageHandler(svc, commands.CommandLogger(nil, "pages"))
	ctx := context.Background()

	var result revisions.EditResult
	err := handler.Execute(ctx, EditPageCommand{
		Universe: universe,
		Slug:     "Index",
		Author:   "ana",
		Content:  "Hello [[World]]",
		Result:   &result,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Changed || result.Seq != 1 || result.Hash == "" {
		t.Fatalf("unexpected result %+v", result)
	}

	src, err := svc.Source(ctx, universe, slug.MustNew("Index"))
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Content != "Hello [[World]]" || src.Token != result.Hash {
		t.Fatalf("unexpected source %+v", src)
	}
}

func TestEditPageHandlerRejectsInvalidMessage(t *testing.T) {
	handler := NewEditPageHandler(newWiki(), nil)

	err := handler.Execute(context.Background(), EditPageCommand{Slug: "bad slug", Author: "ana"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestEditPageHandlerRejectsInvalidUTF8(t *testing.T) {
	svc := newWiki()
	handler := NewEditPageHandler(svc, nil)
	ctx := context.Background()

	err := handler.Execute(ctx, EditPageCommand{Universe: universe, Slug: "New", Author: "ana", Content: "caf\xe9 latin-1"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	src, err := svc.Source(ctx, universe, slug.MustNew("New"))
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Exists {
		t.Fatalf("expected no page to be created, got %+v", src)
	}
}

func TestEditPageHandlerLogFieldsOmitToken(t *testing.T) {
	var fields map[string]any
	handler := NewEditPageHandler(newWiki(), nil,
		commands.WithTelemetry(func(_ context.Context, _ EditPageCommand, info commands.TelemetryInfo) {
			fields = info.Fields
		}),
	)
	ctx := context.Background()

	first := EditPageCommand{Universe: universe, Slug: "Index", Author: "ana", Content: "one"}
	var result revisions.EditResult
	first.Result = &result
	if err := handler.Execute(ctx, first); err != nil {
		t.Fatalf("first edit: %v", err)
	}
	err := handler.Execute(ctx, EditPageCommand{Universe: universe, Slug: "Index", Author: "bo", Content: "two", Token: result.Hash})
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}

	if _, ok := fields["token"]; ok {
		t.Fatalf("expected token to stay out of log fields, got %v", fields)
	}
	want := map[string]any{
		"operation": "pages.edit",
		"slug":      "Index",
		"author":    "bo",
		"universe":  universe.String(),
	}
	got := map[string]any{}
	for key := range want {
		got[key] = fields[key]
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("log fields (-want +got):\n%s", diff)
	}
	for _, value := range fields {
		if value == result.Hash {
			t.Fatalf("expected change hash to stay out of log fields, got %v", fields)
		}
	}
}

func TestEditPageHandlerSurfacesConflict(t *testing.T) {
	svc := newWiki()
	handler := NewEditPageHandler(svc, nil)
	ctx := context.Background()

	first := EditPageCommand{Universe: universe, Slug: "Index", Author: "ana", Content: "one"}
	if err := handler.Execute(ctx, first); err != nil {
		t.Fatalf("first edit: %v", err)
	}

	err := handler.Execute(ctx, EditPageCommand{Universe: universe, Slug: "Index", Author: "bo", Content: "two"})
	if !errors.Is(err, revisions.ErrPageAlreadyChanged) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryConflict) {
		t.Fatalf("expected conflict category, got %v", err)
	}
}

func TestImportPagesHandlerImportsDirectory(t *testing.T) {
	svc := newWiki()
	root := t.TempDir()
	testsupport.WriteTree(t, root, map[string]string{
		"Index.md":      "See [[Guide]]",
		"docs/Guide.md": "guide",
	})
	handler := NewImportPagesHandler(importer.NewImporter(svc, nil), nil)

	var result importer.Result
	err := handler.Execute(context.Background(), ImportPagesCommand{
		Universe:  universe,
		Directory: root,
		Recursive: false,
		Result:    &result,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Count(importer.ActionCreated) != 1 {
		t.Fatalf("expected only top-level file imported, got %+v", result.Outcomes)
	}
	if _, err := svc.Show(context.Background(), universe, slug.MustNew("Index")); err != nil {
		t.Fatalf("show imported page: %v", err)
	}
}

func TestRegisterPageCommands(t *testing.T) {
	svc := newWiki()
	reg := fixtures.NewRecordingRegistry()
	applied := false

	set, err := RegisterPageCommands(reg, svc, importer.NewImporter(svc, nil), nil,
		WithEditHandlerOptions(func(*commands.Handler[EditPageCommand]) { applied = true }),
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !applied {
		t.Fatal("expected edit handler options applied")
	}
	if len(reg.Handlers) != 2 || reg.Handlers[0] != set.Edit || reg.Handlers[1] != set.Import {
		t.Fatalf("unexpected registrations %#v", reg.Handlers)
	}

	if _, err := RegisterPageCommands(reg, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing editor")
	}

	failing := fixtures.NewRecordingRegistry()
	failing.Fail(errors.New("closed"))
	if _, err := RegisterPageCommands(failing, svc, importer.NewImporter(svc, nil), nil); err == nil {
		t.Fatal("expected registry error to propagate")
	}
}
