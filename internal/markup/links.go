package markup

import (
	"strings"

	"github.com/goliatone/go-wiki/slug"
)

// ExtractLinks returns the set of page slugs source links to. Absolute URIs,
// email links, fragment-only anchors and destinations that are not valid slugs
// are skipped.
func ExtractLinks(source []byte, opts ...ParseOption) slug.Set {
	links := slug.NewSet()
	stream := Parse(source, opts...)
	for {
		ev, ok := stream.Next()
		if !ok {
			return links
		}
		if ev.Kind != KindStart || ev.Tag != TagLink || ev.LinkType == LinkEmail {
			continue
		}
		if IsURIAbsolute(ev.Dest) {
			continue
		}
		if target, ok := LinkSlug(ev.Dest); ok {
			links.Add(target)
		}
	}
}

// LinkSlug resolves a relative link destination to the slug it names.
func LinkSlug(dest string) (slug.Slug, bool) {
	if idx := strings.IndexByte(dest, '#'); idx >= 0 {
		dest = dest[:idx]
	}
	dest = strings.TrimPrefix(dest, "/")
	dest = strings.TrimSuffix(dest, "/")
	target, err := slug.New(dest)
	if err != nil {
		return slug.Slug{}, false
	}
	return target, true
}
