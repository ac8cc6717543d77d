package render

import (
	"strings"

	"tocgen/pkg/models"
)

func init() {
	Register(models.FormatMarkdown, MarkdownWriter{})
}

// MarkdownWriter emits one bulleted line per entry, indented by
// indentWidth spaces per depth level. Entries without an anchor render as
// plain text instead of a link.
type MarkdownWriter struct{}

func (MarkdownWriter) Render(entries []models.TocEntry, indentWidth int) string {
	if len(entries) == 0 {
		return ""
	}
	if indentWidth < 0 {
		indentWidth = 0
	}

	var b strings.Builder
	for _, e := range entries {
		depth := e.Depth
		if depth < 0 {
			depth = 0
		}
		b.WriteString(strings.Repeat(" ", indentWidth*depth))
		b.WriteString("* ")
		if e.Anchor != "" {
			b.WriteString("[")
			b.WriteString(e.Text)
			b.WriteString("](#")
			b.WriteString(e.Anchor)
			b.WriteString(")")
		} else {
			b.WriteString(e.Text)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (MarkdownWriter) RenderTitle(title string) string {
	return "## " + title + "\n\n"
}
