package markup

import (
	"strings"
)

// TagHeadings assigns an id to every heading that does not already carry one,
// derived from the heading's text. Link destinations with a fragment are
// rewritten so the fragment matches the generated ids.
func TagHeadings(inner Stream) Stream {
	return &tagHeadings{inner: inner}
}

type tagHeadings struct {
	inner    Stream
	heading  *Event
	children []Event
	out      queue
}

func (t *tagHeadings) Next() (Event, bool) {
	if ev, ok := t.out.pop(); ok {
		return ev, true
	}

	for {
		ev, ok := t.inner.Next()
		if !ok {
			return t.flush()
		}

		if ev.Kind == KindStart && ev.Tag == TagLink {
			ev.Dest = normalizeFragment(ev.Dest)
		}

		switch {
		case t.heading == nil && ev.Kind == KindStart && ev.Tag == TagHeading:
			start := ev
			t.heading = &start
		case t.heading != nil && ev.Kind == KindEnd && ev.Tag == TagHeading:
			start := *t.heading
			if start.ID == "" {
				start.ID = NormalizeHeadingID(textOf(t.children))
			}
			t.out.push(t.children...)
			t.out.push(ev)
			t.heading = nil
			t.children = nil
			return start, true
		case t.heading != nil:
			t.children = append(t.children, ev)
		default:
			return ev, true
		}
	}
}

// flush releases a heading left open by a truncated stream unchanged.
func (t *tagHeadings) flush() (Event, bool) {
	if t.heading == nil {
		return Event{}, false
	}
	start := *t.heading
	t.out.push(t.children...)
	t.heading = nil
	t.children = nil
	return start, true
}

func normalizeFragment(dest string) string {
	if IsURIAbsolute(dest) {
		return dest
	}
	idx := strings.IndexByte(dest, '#')
	if idx < 0 {
		return dest
	}
	return dest[:idx] + "#" + NormalizeHeadingID(dest[idx+1:])
}

func textOf(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Kind == KindText {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}
