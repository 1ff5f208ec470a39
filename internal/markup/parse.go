package markup

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	wikilink "github.com/abhinav/goldmark-wikilink"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// HeadingIDPrefix namespaces generated heading ids so they never collide with
// anchors chosen by authors.
const HeadingIDPrefix = "heading-"

var absoluteURI = regexp.MustCompile(`(?i)^(?:[a-z][a-z0-9+.\-]*:)?//`)

// IsURIAbsolute reports whether uri carries a scheme-relative or absolute
// authority (RFC 3986).
func IsURIAbsolute(uri string) bool {
	return absoluteURI.MatchString(uri)
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	typographer bool
}

// WithTypographer toggles smart punctuation. It is enabled by default.
func WithTypographer(enabled bool) ParseOption {
	return func(cfg *parseConfig) {
		cfg.typographer = enabled
	}
}

// Parse tokenizes source and returns its event stream. Wikilink destinations
// are normalised into wiki paths on the way out.
func Parse(source []byte, opts ...ParseOption) Stream {
	cfg := parseConfig{typographer: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	doc := newGoldmarkEngine(cfg).Parser().Parse(text.NewReader(source))
	return &astStream{
		source:   source,
		root:     doc,
		node:     doc,
		entering: true,
	}
}

func newGoldmarkEngine(cfg parseConfig) goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
		extension.Footnote,
		&wikilink.Extender{},
	}
	if cfg.typographer {
		exts = append(exts, extension.Typographer)
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
}

// astStream walks the goldmark tree without recursion, translating each
// enter/exit step into zero or more events.
type astStream struct {
	source   []byte
	root     ast.Node
	node     ast.Node
	entering bool
	done     bool
	pending  queue
}

func (s *astStream) Next() (Event, bool) {
	for {
		if ev, ok := s.pending.pop(); ok {
			return ev, true
		}
		if s.done {
			return Event{}, false
		}
		s.step()
	}
}

func (s *astStream) step() {
	n, entering := s.node, s.entering
	skipChildren := s.emit(n, entering)

	if entering {
		if !skipChildren && n.FirstChild() != nil {
			s.node = n.FirstChild()
			return
		}
		s.entering = false
		return
	}

	if n == s.root {
		s.done = true
		return
	}
	if next := n.NextSibling(); next != nil {
		s.node = next
		s.entering = true
		return
	}
	s.node = n.Parent()
}

// emit pushes the events for one step and reports whether the node consumed
// its own children.
func (s *astStream) emit(node ast.Node, entering bool) bool {
	switch n := node.(type) {
	case *ast.Document:
	case *ast.Paragraph:
		s.container(entering, Event{Tag: TagParagraph})
	case *ast.TextBlock:
		if !entering && n.NextSibling() != nil && n.FirstChild() != nil {
			s.pending.push(Event{Kind: KindSoftBreak})
		}
	case *ast.Heading:
		ev := Event{Tag: TagHeading, Level: n.Level}
		if entering {
			ev.ID = attributeString(n, "id")
		}
		s.container(entering, ev)
	case *ast.ThematicBreak:
		if entering {
			s.pending.push(Event{Kind: KindRule})
		}
	case *ast.FencedCodeBlock:
		if entering {
			lang := ""
			if n.Info != nil {
				lang = string(n.Language(s.source))
			}
			s.codeBlock(n, lang)
		} else {
			s.pending.push(End(TagCodeBlock))
		}
		return true
	case *ast.CodeBlock:
		if entering {
			s.codeBlock(n, "")
		} else {
			s.pending.push(End(TagCodeBlock))
		}
		return true
	case *ast.HTMLBlock:
		if entering {
			var buf bytes.Buffer
			s.writeLines(&buf, n.Lines())
			if n.HasClosure() {
				buf.Write(n.ClosureLine.Value(s.source))
			}
			s.pending.push(Event{Kind: KindHTML, Text: buf.String()})
		}
		return true
	case *ast.Blockquote:
		s.container(entering, Event{Tag: TagBlockQuote})
	case *ast.List:
		s.container(entering, Event{Tag: TagList, Ordered: n.IsOrdered(), Start: n.Start})
	case *ast.ListItem:
		s.container(entering, Event{Tag: TagItem})
	case *ast.Text:
		if entering {
			s.pending.push(Text(string(n.Segment.Value(s.source))))
			switch {
			case n.HardLineBreak():
				s.pending.push(Event{Kind: KindHardBreak})
			case n.SoftLineBreak():
				s.pending.push(Event{Kind: KindSoftBreak})
			}
		}
	case *ast.String:
		if entering {
			if n.IsCode() {
				s.pending.push(InlineHTML(string(n.Value)))
			} else {
				s.pending.push(Text(string(n.Value)))
			}
		}
	case *ast.CodeSpan:
		if entering {
			s.pending.push(Event{Kind: KindCode, Text: s.codeSpan(n)})
		}
		return true
	case *ast.Emphasis:
		tag := TagEmphasis
		if n.Level >= 2 {
			tag = TagStrong
		}
		s.container(entering, Event{Tag: tag})
	case *ast.Link:
		s.container(entering, Event{
			Tag:      TagLink,
			Dest:     string(n.Destination),
			Title:    string(n.Title),
			LinkType: LinkInline,
		})
	case *ast.AutoLink:
		if entering {
			dest := string(n.URL(s.source))
			linkType := LinkAutolink
			if n.AutoLinkType == ast.AutoLinkEmail {
				linkType = LinkEmail
				if !strings.HasPrefix(strings.ToLower(dest), "mailto:") {
					dest = "mailto:" + dest
				}
			}
			s.pending.push(
				Event{Kind: KindStart, Tag: TagLink, Dest: dest, LinkType: linkType},
				Text(string(n.Label(s.source))),
				Event{Kind: KindEnd, Tag: TagLink, LinkType: linkType},
			)
		}
		return true
	case *ast.Image:
		s.container(entering, Event{
			Tag:   TagImage,
			Dest:  string(n.Destination),
			Title: string(n.Title),
		})
	case *ast.RawHTML:
		if entering {
			var buf bytes.Buffer
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				buf.Write(seg.Value(s.source))
			}
			s.pending.push(InlineHTML(buf.String()))
		}
		return true
	case *extast.Strikethrough:
		s.container(entering, Event{Tag: TagStrikethrough})
	case *extast.Table:
		s.container(entering, Event{Tag: TagTable})
	case *extast.TableHeader:
		s.container(entering, Event{Tag: TagTableHead})
	case *extast.TableRow:
		s.container(entering, Event{Tag: TagTableRow})
	case *extast.TableCell:
		ev := Event{Tag: TagTableCell}
		if _, ok := n.Parent().(*extast.TableHeader); ok {
			ev.Header = true
		}
		if n.Alignment != extast.AlignNone {
			ev.Align = n.Alignment.String()
		}
		s.container(entering, ev)
	case *extast.TaskCheckBox:
		if entering {
			s.pending.push(Event{Kind: KindTaskMarker, Checked: n.IsChecked})
		}
	case *extast.FootnoteLink:
		if entering {
			s.pending.push(Event{Kind: KindFootnoteReference, Index: n.Index})
		}
	case *extast.FootnoteBacklink:
		return true
	case *extast.FootnoteList:
		s.container(entering, Event{Tag: TagFootnoteList})
	case *extast.Footnote:
		s.container(entering, Event{Tag: TagFootnoteDefinition, Index: n.Index})
	case *wikilink.Node:
		target := string(n.Target)
		if len(n.Fragment) > 0 {
			target += "#" + string(n.Fragment)
		}
		ev := Event{
			Tag:      TagLink,
			Dest:     NormalizeWikilink(target),
			LinkType: LinkWiki,
		}
		if entering {
			ev.Pothole = plainText(node, s.source) != target
		}
		s.container(entering, ev)
	}
	return false
}

func (s *astStream) container(entering bool, ev Event) {
	if entering {
		ev.Kind = KindStart
	} else {
		ev.Kind = KindEnd
	}
	s.pending.push(ev)
}

func (s *astStream) codeBlock(n ast.Node, lang string) {
	var buf bytes.Buffer
	s.writeLines(&buf, n.Lines())
	s.pending.push(
		Event{Kind: KindStart, Tag: TagCodeBlock, Lang: lang},
		Text(buf.String()),
	)
}

func (s *astStream) writeLines(buf *bytes.Buffer, lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(s.source))
	}
}

func (s *astStream) codeSpan(n ast.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch child := c.(type) {
		case *ast.Text:
			value := child.Segment.Value(s.source)
			if bytes.HasSuffix(value, []byte("\n")) {
				buf.Write(value[:len(value)-1])
				buf.WriteByte(' ')
				continue
			}
			buf.Write(value)
		case *ast.String:
			buf.Write(child.Value)
		}
	}
	return buf.String()
}

func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch child := c.(type) {
		case *ast.Text:
			buf.Write(child.Segment.Value(source))
		case *ast.String:
			buf.Write(child.Value)
		}
	}
	return buf.String()
}

func attributeString(n ast.Node, name string) string {
	value, ok := n.AttributeString(name)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

// NormalizeWikilink turns a wikilink target into a wiki path: whitespace runs
// become underscores and the path gains leading and trailing separators.
// Absolute URIs and fragment-only references are returned untouched.
func NormalizeWikilink(link string) string {
	if link == "" || IsURIAbsolute(link) || strings.HasPrefix(link, "#") {
		return link
	}

	path, fragment, hasFragment := strings.Cut(link, "#")
	path = strings.Join(strings.Fields(path), "_")

	var b strings.Builder
	b.Grow(len(link) + 2)
	if !strings.HasPrefix(path, "/") {
		b.WriteByte('/')
	}
	b.WriteString(path)
	if !strings.HasSuffix(path, "/") {
		b.WriteByte('/')
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}

// NormalizeHeadingID derives an anchor id from heading text: lower-cased,
// each run of non-alphanumeric characters collapsed into one '-', edges
// trimmed, and namespaced with HeadingIDPrefix. Text without any alphanumeric
// character yields the bare prefix.
func NormalizeHeadingID(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(HeadingIDPrefix))
	b.WriteString(HeadingIDPrefix)

	pendingDash := false
	wrote := false
	for _, ch := range value {
		if !unicode.IsLetter(ch) && !unicode.IsNumber(ch) {
			pendingDash = true
			continue
		}
		if wrote && pendingDash {
			b.WriteByte('-')
		}
		pendingDash = false
		wrote = true
		b.WriteRune(unicode.ToLower(ch))
	}
	return b.String()
}
