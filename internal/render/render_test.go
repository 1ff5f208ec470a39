package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-wiki/internal/markup"
	"github.com/goliatone/go-wiki/slug"
)

func TestRenderDecoratesAndSanitizes(t *testing.T) {
	r := New()
	source := []byte("# Hi There\n\nSee [[Missing]], [[Index|home]] and [x](https://example.com).\n\n<script>alert(1)</script>\n")

	html := r.Render(source, slug.NewSet(slug.MustNew("Index")))

	wants := []string{
		`<h1 id="heading-hi-there">Hi There</h1>`,
		`<a href="/~/Missing/" class="noexist" rel="noopener noreferrer">Missing</a>`,
		`<a href="/~/Index/" rel="noopener noreferrer">home</a>`,
		`<a href="https://example.com" class="external-link" rel="noopener noreferrer">x</a>`,
	}
	for _, want := range wants {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script") {
		t.Errorf("expected script to be stripped:\n%s", html)
	}
}

func TestRenderWithoutResolvedSetSkipsRedlinks(t *testing.T) {
	html := New().Render([]byte("[[Missing]]\n"), nil)
	if strings.Contains(html, "noexist") {
		t.Fatalf("expected no redlink decoration without a resolved set:\n%s", html)
	}
}

func TestSanitizeKeepsOnlyHeadingIDs(t *testing.T) {
	got := New().Sanitize(`<p id="x" class="lead">a</p><h2 id="custom">b</h2><h2 id="heading-b">b</h2>`)
	want := `<p class="lead">a</p><h2>b</h2><h2 id="heading-b">b</h2>`
	if got != want {
		t.Fatalf("unexpected output\nwant: %s\ngot:  %s", want, got)
	}
}

func TestSanitizeRewritesAnchors(t *testing.T) {
	r := New(WithURLResolver(func(href string) string {
		return "/u/acme" + href
	}))

	got := r.Sanitize(`<a href="/~/Foo/" rel="nofollow">a</a> <a href="#top">b</a> <a href="https://example.com">c</a>`)
	want := `<a href="/u/acme/~/Foo/" rel="noopener noreferrer">a</a> <a href="#top" rel="noopener noreferrer">b</a> <a href="https://example.com" rel="noopener noreferrer">c</a>`
	if got != want {
		t.Fatalf("unexpected output\nwant: %s\ngot:  %s", want, got)
	}
}

func TestRenderCustomPrefix(t *testing.T) {
	html := New(WithWikiPrefix("/wiki")).Render([]byte("[[Index]]\n"), nil)
	if !strings.Contains(html, `href="/wiki/Index/"`) {
		t.Fatalf("expected custom prefix:\n%s", html)
	}
}

func TestRenderRunsExtraStagesLast(t *testing.T) {
	redact := func(inner markup.Stream) markup.Stream {
		return markup.StreamFunc(func() (markup.Event, bool) {
			ev, ok := inner.Next()
			if ok && ev.Kind == markup.KindText {
				ev.Text = strings.ReplaceAll(ev.Text, "hunter2", "[redacted]")
			}
			return ev, ok
		})
	}

	html := New(WithStages(redact, nil)).Render([]byte("# Secrets\n\npassword is hunter2, see [[Vault]]\n"), slug.NewSet())
	for _, want := range []string{
		`<h1 id="heading-secrets">Secrets</h1>`,
		`[redacted]`,
		`class="noexist"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in:\n%s", want, html)
		}
	}
	if strings.Contains(html, "hunter2") {
		t.Fatalf("expected stage to rewrite text:\n%s", html)
	}
}

func TestRenderIsIdempotentAndReentrant(t *testing.T) {
	r := New()
	source := []byte("## Tasks\n\n- [x] done\n- [ ] open\n\n| a | b |\n|---|:-:|\n| 1 | 2 |\n\nText[^1].\n\n[^1]: Note.\n")
	resolved := slug.NewSet()

	want := r.Render(source, resolved)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Render(source, resolved)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != want {
			t.Fatalf("render %d differs:\n%s\nvs\n%s", i, got, want)
		}
	}
}
