package markup

import (
	"strings"
)

// ShortenWikitext rewrites the display text of wikilinks written without an
// explicit label, so [[Guides/Setup#Install]] reads as "Setup".
func ShortenWikitext(inner Stream) Stream {
	return &shortenWikitext{inner: inner}
}

type shortenWikitext struct {
	inner    Stream
	link     *Event
	children []Event
	out      queue
}

func (s *shortenWikitext) Next() (Event, bool) {
	if ev, ok := s.out.pop(); ok {
		return ev, true
	}

	for {
		ev, ok := s.inner.Next()
		if !ok {
			return s.flush()
		}

		switch {
		case s.link == nil && ev.Kind == KindStart && ev.Tag == TagLink && ev.LinkType == LinkWiki && !ev.Pothole:
			start := ev
			s.link = &start
		case s.link != nil && ev.Kind == KindEnd && ev.Tag == TagLink:
			start := *s.link
			if label := textOf(s.children); label != "" {
				s.out.push(Text(ShortenLabel(label)))
			} else {
				s.out.push(s.children...)
			}
			s.out.push(ev)
			s.link = nil
			s.children = nil
			return start, true
		case s.link != nil:
			s.children = append(s.children, ev)
		default:
			return ev, true
		}
	}
}

func (s *shortenWikitext) flush() (Event, bool) {
	if s.link == nil {
		return Event{}, false
	}
	start := *s.link
	s.out.push(s.children...)
	s.link = nil
	s.children = nil
	return start, true
}

// ShortenLabel reduces a wikilink target to the text shown for it: a bare
// fragment loses its '#', anything else keeps only its last path segment.
func ShortenLabel(label string) string {
	if strings.HasPrefix(label, "#") {
		return label[1:]
	}
	if idx := strings.IndexByte(label, '#'); idx >= 0 {
		label = label[:idx]
	}
	label = strings.TrimPrefix(label, "/")
	label = strings.TrimSuffix(label, "/")
	if idx := strings.LastIndexByte(label, '/'); idx >= 0 {
		label = label[idx+1:]
	}
	return label
}
