package markup

// Kind identifies the shape of an Event.
type Kind uint8

const (
	KindStart Kind = iota + 1
	KindEnd
	KindText
	KindCode
	KindHTML
	KindInlineHTML
	KindSoftBreak
	KindHardBreak
	KindRule
	KindTaskMarker
	KindFootnoteReference
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindText:
		return "text"
	case KindCode:
		return "code"
	case KindHTML:
		return "html"
	case KindInlineHTML:
		return "inline_html"
	case KindSoftBreak:
		return "soft_break"
	case KindHardBreak:
		return "hard_break"
	case KindRule:
		return "rule"
	case KindTaskMarker:
		return "task_marker"
	case KindFootnoteReference:
		return "footnote_reference"
	default:
		return "unknown"
	}
}

// Tag names the container opened by a start event and closed by an end event.
type Tag uint8

const (
	TagParagraph Tag = iota + 1
	TagHeading
	TagBlockQuote
	TagCodeBlock
	TagList
	TagItem
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagLink
	TagImage
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
	TagFootnoteList
	TagFootnoteDefinition
)

// LinkType distinguishes how a link was written in the source.
type LinkType uint8

const (
	LinkInline LinkType = iota
	LinkAutolink
	LinkEmail
	LinkWiki
)

// Event is a single token of the markup stream. Only the fields relevant to
// Kind and Tag are populated.
type Event struct {
	Kind Kind
	Tag  Tag

	// Text carries the payload of text, code and html events.
	Text string

	// Heading
	Level int
	ID    string

	// Link and image
	Dest     string
	Title    string
	LinkType LinkType
	Pothole  bool

	// List
	Ordered bool
	Start   int

	// Code block
	Lang string

	// Table cell
	Align  string
	Header bool

	// Task marker
	Checked bool

	// Footnotes
	Index int
}

// Stream is a pull based source of events. Next reports false once the
// stream is exhausted and keeps doing so on later calls.
type Stream interface {
	Next() (Event, bool)
}

// StreamFunc adapts a function to the Stream interface.
type StreamFunc func() (Event, bool)

// Next satisfies Stream.
func (f StreamFunc) Next() (Event, bool) {
	return f()
}

// FromEvents returns a stream over a fixed slice.
func FromEvents(events ...Event) Stream {
	i := 0
	return StreamFunc(func() (Event, bool) {
		if i >= len(events) {
			return Event{}, false
		}
		ev := events[i]
		i++
		return ev, true
	})
}

// Collect drains a stream into a slice.
func Collect(s Stream) []Event {
	var out []Event
	for {
		ev, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

// Start builds a start event for tag.
func Start(tag Tag) Event {
	return Event{Kind: KindStart, Tag: tag}
}

// End builds an end event for tag.
func End(tag Tag) Event {
	return Event{Kind: KindEnd, Tag: tag}
}

// Text builds a text event.
func Text(value string) Event {
	return Event{Kind: KindText, Text: value}
}

// InlineHTML builds a raw inline html event.
func InlineHTML(value string) Event {
	return Event{Kind: KindInlineHTML, Text: value}
}

// queue is the FIFO stages use to hold events that were computed ahead of
// being pulled.
type queue struct {
	items []Event
}

func (q *queue) push(ev ...Event) {
	q.items = append(q.items, ev...)
}

func (q *queue) pop() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	ev := q.items[0]
	q.items[0] = Event{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return ev, true
}
