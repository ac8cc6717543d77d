package render

import (
	"html"
	"strings"

	"tocgen/pkg/models"
)

func init() {
	Register(models.FormatHTML, HTMLWriter{})
}

// HTMLWriter nests <ul> elements to match entry depths: a depth increase
// of k opens k lists, a decrease closes them, and every open list is
// closed at the end. List tags indent by indentWidth spaces per nesting
// level, items one level deeper. Text and anchors are entity-escaped;
// entries without an anchor render without a link.
type HTMLWriter struct{}

func (HTMLWriter) Render(entries []models.TocEntry, indentWidth int) string {
	if len(entries) == 0 {
		return ""
	}
	if indentWidth < 0 {
		indentWidth = 0
	}
	indent := strings.Repeat(" ", indentWidth)

	var b strings.Builder
	level := -1 // depth of the innermost open <ul>
	openTo := func(depth int) {
		for level < depth {
			level++
			b.WriteString(strings.Repeat(indent, level))
			b.WriteString("<ul>\n")
		}
	}
	closeTo := func(depth int) {
		for level > depth {
			b.WriteString(strings.Repeat(indent, level))
			b.WriteString("</ul>\n")
			level--
		}
	}

	for _, e := range entries {
		depth := e.Depth
		if depth < 0 {
			depth = 0
		}
		openTo(depth)
		closeTo(depth)

		b.WriteString(strings.Repeat(indent, depth+1))
		b.WriteString("<li>")
		if e.Anchor != "" {
			b.WriteString(`<a href="#`)
			b.WriteString(html.EscapeString(e.Anchor))
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(e.Text))
			b.WriteString("</a>")
		} else {
			b.WriteString(html.EscapeString(e.Text))
		}
		b.WriteString("</li>\n")
	}
	closeTo(-1)
	return b.String()
}

func (HTMLWriter) RenderTitle(title string) string {
	return "<h2>" + html.EscapeString(title) + "</h2>\n"
}
