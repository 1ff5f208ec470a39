// Package render turns page source into sanitized HTML.
package render

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/markup"
	"github.com/goliatone/go-wiki/pkg/interfaces"
	"github.com/goliatone/go-wiki/slug"
)

const linkRel = "noopener noreferrer"

// URLResolver rewrites relative hrefs after sanitizing, e.g. to prefix a
// tenant root. Absolute and fragment-only hrefs are never passed to it.
type URLResolver func(href string) string

// Option configures a Renderer.
type Option func(*Renderer)

// WithURLResolver installs resolver for relative anchor hrefs.
func WithURLResolver(resolver URLResolver) Option {
	return func(r *Renderer) {
		r.resolver = resolver
	}
}

// WithWikiPrefix sets the prefix put in front of root-relative wiki links.
func WithWikiPrefix(prefix string) Option {
	return func(r *Renderer) {
		r.prefix = prefix
	}
}

// WithTypographer toggles smart punctuation.
func WithTypographer(enabled bool) Option {
	return func(r *Renderer) {
		r.typographer = enabled
	}
}

// WithStages appends event stages after link decoration.
func WithStages(stages ...markup.Stage) Option {
	return func(r *Renderer) {
		r.stages = append(r.stages, stages...)
	}
}

// WithLogger sets the logger used to report sanitizer failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer is immutable after New and safe for concurrent use.
type Renderer struct {
	policy      *bluemonday.Policy
	resolver    URLResolver
	prefix      string
	typographer bool
	stages      []markup.Stage
	logger      interfaces.Logger
}

// New builds a renderer with the wiki sanitizer policy.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		policy:      newPolicy(),
		prefix:      markup.DefaultWikiPrefix,
		typographer: true,
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render runs the full pipeline over source. resolved lists the pages that
// exist; links to anything else are marked noexist. A nil set skips that
// check.
func (r *Renderer) Render(source []byte, resolved slug.Set) string {
	opts := []markup.DecorateOption{markup.WithWikiPrefix(r.prefix)}
	if resolved != nil {
		opts = append(opts, markup.WithResolvedLinks(resolved))
	}

	pipeline := markup.WikiPipeline(opts...)
	for _, stage := range r.stages {
		pipeline.Then(stage)
	}
	stream := pipeline.Run(source, markup.WithTypographer(r.typographer))
	return r.Sanitize(markup.ToHTML(stream))
}

// Sanitize applies the allow-list and rewrites anchors.
func (r *Renderer) Sanitize(raw string) string {
	clean := r.policy.Sanitize(raw)

	var out bytes.Buffer
	out.Grow(len(clean) + 64)
	if err := rewriteAnchors(&out, clean, r.resolver); err != nil {
		r.logger.Error("render.sanitize.rewrite_failed", "error", err)
		return clean
	}
	return out.String()
}

var headingID = regexp.MustCompile("^" + regexp.QuoteMeta(markup.HeadingIDPrefix))

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr", "blockquote", "pre", "code",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"em", "strong", "del", "sup", "sub",
		"a", "img",
		"table", "thead", "tbody", "tr", "th", "td",
		"section", "input",
	)

	p.AllowAttrs("class").Globally()
	p.AllowAttrs("id").Matching(headingID).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")

	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("th", "td")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	return p
}

// rewriteAnchors copies src token by token, replacing each anchor start tag
// with one that carries rel="noopener noreferrer" and a resolved href.
func rewriteAnchors(w *bytes.Buffer, src string, resolver URLResolver) error {
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil
		}

		raw := z.Raw()
		if tt != html.StartTagToken {
			w.Write(raw)
			continue
		}
		raw = append([]byte(nil), raw...)

		tok := z.Token()
		if tok.DataAtom != atom.A {
			w.Write(raw)
			continue
		}
		w.WriteString(anchorTag(tok, resolver).String())
	}
}

func anchorTag(tok html.Token, resolver URLResolver) html.Token {
	attrs := make([]html.Attribute, 0, len(tok.Attr)+1)
	for _, attr := range tok.Attr {
		switch attr.Key {
		case "rel":
			continue
		case "href":
			if resolver != nil && !markup.IsURIAbsolute(attr.Val) && !strings.HasPrefix(attr.Val, "#") {
				attr.Val = resolver(attr.Val)
			}
		}
		attrs = append(attrs, attr)
	}
	tok.Attr = append(attrs, html.Attribute{Key: "rel", Val: linkRel})
	return tok
}
