package markup

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/util"
)

// ToHTML renders the stream into a string.
func ToHTML(s Stream) string {
	var b strings.Builder
	_ = WriteHTML(&b, s)
	return b.String()
}

// WriteHTML renders the stream into w. The output is not sanitized.
func WriteHTML(w io.Writer, s Stream) error {
	hw := &htmlWriter{w: w}
	for {
		ev, ok := s.Next()
		if !ok {
			return hw.err
		}
		hw.event(ev)
		if hw.err != nil {
			return hw.err
		}
	}
}

type htmlWriter struct {
	w   io.Writer
	err error

	tableBody  bool
	imageDepth int
	alt        strings.Builder
	image      Event
}

func (h *htmlWriter) write(values ...string) {
	for _, v := range values {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, v)
	}
}

func escape(v string) string {
	return string(util.EscapeHTML([]byte(v)))
}

func escapeURL(v string) string {
	return string(util.EscapeHTML(util.URLEscape([]byte(v), true)))
}

func (h *htmlWriter) event(ev Event) {
	if h.imageDepth > 0 {
		h.imageEvent(ev)
		return
	}

	switch ev.Kind {
	case KindStart:
		h.start(ev)
	case KindEnd:
		h.end(ev)
	case KindText:
		h.write(escape(ev.Text))
	case KindCode:
		h.write("<code>", escape(ev.Text), "</code>")
	case KindHTML, KindInlineHTML:
		h.write(ev.Text)
	case KindSoftBreak:
		h.write("\n")
	case KindHardBreak:
		h.write("<br />\n")
	case KindRule:
		h.write("<hr />\n")
	case KindTaskMarker:
		if ev.Checked {
			h.write(`<input checked="" disabled="" type="checkbox" /> `)
		} else {
			h.write(`<input disabled="" type="checkbox" /> `)
		}
	case KindFootnoteReference:
		n := strconv.Itoa(ev.Index)
		h.write(`<sup class="footnote-ref"><a href="#fn-`, n, `">`, n, `</a></sup>`)
	}
}

func (h *htmlWriter) start(ev Event) {
	switch ev.Tag {
	case TagParagraph:
		h.write("<p>")
	case TagHeading:
		h.write("<h", strconv.Itoa(ev.Level))
		if ev.ID != "" {
			h.write(` id="`, escape(ev.ID), `"`)
		}
		h.write(">")
	case TagBlockQuote:
		h.write("<blockquote>\n")
	case TagCodeBlock:
		if ev.Lang != "" {
			h.write(`<pre><code class="language-`, escape(ev.Lang), `">`)
		} else {
			h.write("<pre><code>")
		}
	case TagList:
		switch {
		case !ev.Ordered:
			h.write("<ul>\n")
		case ev.Start > 1:
			h.write(fmt.Sprintf("<ol start=\"%d\">\n", ev.Start))
		default:
			h.write("<ol>\n")
		}
	case TagItem:
		h.write("<li>")
	case TagEmphasis:
		h.write("<em>")
	case TagStrong:
		h.write("<strong>")
	case TagStrikethrough:
		h.write("<del>")
	case TagLink:
		h.write(`<a href="`, escapeURL(ev.Dest), `"`)
		if ev.Title != "" {
			h.write(` title="`, escape(ev.Title), `"`)
		}
		h.write(">")
	case TagImage:
		h.imageDepth = 1
		h.image = ev
		h.alt.Reset()
	case TagTable:
		h.tableBody = false
		h.write("<table>\n")
	case TagTableHead:
		h.write("<thead>\n<tr>\n")
	case TagTableRow:
		if !h.tableBody {
			h.tableBody = true
			h.write("<tbody>\n")
		}
		h.write("<tr>\n")
	case TagTableCell:
		h.write("<", cellTag(ev))
		if ev.Align != "" {
			h.write(` align="`, escape(ev.Align), `"`)
		}
		h.write(">")
	case TagFootnoteList:
		h.write("<section class=\"footnotes\">\n<hr />\n<ol>\n")
	case TagFootnoteDefinition:
		h.write(`<li id="fn-`, strconv.Itoa(ev.Index), `">`)
	}
}

func (h *htmlWriter) end(ev Event) {
	switch ev.Tag {
	case TagParagraph:
		h.write("</p>\n")
	case TagHeading:
		h.write("</h", strconv.Itoa(ev.Level), ">\n")
	case TagBlockQuote:
		h.write("</blockquote>\n")
	case TagCodeBlock:
		h.write("</code></pre>\n")
	case TagList:
		if ev.Ordered {
			h.write("</ol>\n")
		} else {
			h.write("</ul>\n")
		}
	case TagItem:
		h.write("</li>\n")
	case TagEmphasis:
		h.write("</em>")
	case TagStrong:
		h.write("</strong>")
	case TagStrikethrough:
		h.write("</del>")
	case TagLink:
		h.write("</a>")
	case TagTable:
		if h.tableBody {
			h.write("</tbody>\n")
		}
		h.tableBody = false
		h.write("</table>\n")
	case TagTableHead:
		h.write("</tr>\n</thead>\n")
	case TagTableRow:
		h.write("</tr>\n")
	case TagTableCell:
		h.write("</", cellTag(ev), ">\n")
	case TagFootnoteList:
		h.write("</ol>\n</section>\n")
	case TagFootnoteDefinition:
		h.write("</li>\n")
	}
}

// imageEvent collects the alt text of an image until its matching end.
func (h *htmlWriter) imageEvent(ev Event) {
	switch ev.Kind {
	case KindStart:
		if ev.Tag == TagImage {
			h.imageDepth++
		}
	case KindEnd:
		if ev.Tag != TagImage {
			return
		}
		h.imageDepth--
		if h.imageDepth > 0 {
			return
		}
		h.write(`<img src="`, escapeURL(h.image.Dest), `" alt="`, escape(h.alt.String()), `"`)
		if h.image.Title != "" {
			h.write(` title="`, escape(h.image.Title), `"`)
		}
		h.write(" />")
	case KindText, KindCode:
		h.alt.WriteString(ev.Text)
	}
}

func cellTag(ev Event) string {
	if ev.Header {
		return "th"
	}
	return "td"
}
