package markup

import (
	"strings"

	"github.com/goliatone/go-wiki/slug"
	"github.com/yuin/goldmark/util"
)

// DefaultWikiPrefix is prepended to root-relative link destinations.
const DefaultWikiPrefix = "/~"

const (
	classNoExist  = "noexist"
	classExternal = "external-link"
)

// DecorateOption configures DecorateLinks.
type DecorateOption func(*decorateConfig)

type decorateConfig struct {
	resolved slug.Set
	prefix   string
}

// WithResolvedLinks enables redlink marking: relative links whose slug is not
// in set get the noexist class. A nil set disables the check.
func WithResolvedLinks(set slug.Set) DecorateOption {
	return func(cfg *decorateConfig) {
		cfg.resolved = set
	}
}

// WithWikiPrefix overrides DefaultWikiPrefix.
func WithWikiPrefix(prefix string) DecorateOption {
	return func(cfg *decorateConfig) {
		cfg.prefix = prefix
	}
}

// DecorateLinks replaces link start and end events with literal anchor markup
// carrying the wiki prefix and the noexist/external-link classes.
func DecorateLinks(inner Stream, opts ...DecorateOption) Stream {
	cfg := decorateConfig{prefix: DefaultWikiPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &decorateLinks{inner: inner, cfg: cfg}
}

type decorateLinks struct {
	inner Stream
	cfg   decorateConfig
}

func (d *decorateLinks) Next() (Event, bool) {
	ev, ok := d.inner.Next()
	if !ok || ev.Tag != TagLink {
		return ev, ok
	}
	switch ev.Kind {
	case KindStart:
		return InlineHTML(d.anchor(ev)), true
	case KindEnd:
		return InlineHTML("</a>"), true
	}
	return ev, true
}

func (d *decorateLinks) anchor(ev Event) string {
	absolute := IsURIAbsolute(ev.Dest)

	var b strings.Builder
	b.WriteString(`<a href="`)
	if !absolute && strings.HasPrefix(ev.Dest, "/") {
		b.WriteString(d.cfg.prefix)
	}
	b.Write(util.EscapeHTML(util.URLEscape([]byte(ev.Dest), true)))
	b.WriteByte('"')

	if ev.Title != "" {
		b.WriteString(` title="`)
		b.Write(util.EscapeHTML([]byte(ev.Title)))
		b.WriteByte('"')
	}

	var classes []string
	if d.missing(ev, absolute) {
		classes = append(classes, classNoExist)
	}
	if absolute {
		classes = append(classes, classExternal)
	}
	if len(classes) > 0 {
		b.WriteString(` class="`)
		b.WriteString(strings.Join(classes, " "))
		b.WriteByte('"')
	}

	b.WriteByte('>')
	return b.String()
}

func (d *decorateLinks) missing(ev Event, absolute bool) bool {
	if d.cfg.resolved == nil || absolute || ev.LinkType == LinkEmail {
		return false
	}
	if strings.HasPrefix(ev.Dest, "#") {
		return false
	}
	target, ok := LinkSlug(ev.Dest)
	return !ok || !d.cfg.resolved.Has(target)
}
