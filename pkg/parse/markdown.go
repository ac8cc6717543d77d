package parse

import (
	"regexp"
	"strings"

	"tocgen/pkg/models"
)

const fenceMarker = "```"

var (
	reHTMLComment  = regexp.MustCompile(`(?s)<!--.*?-->`)       // non-greedy, may span lines
	reATXHeading   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)    // 1-6 '#', whitespace, text
	reCustomAnchor = regexp.MustCompile(`^(.*?)\s*\{#([^}]+)\}$`) // trailing {#anchor} marker
)

func init() {
	Register(models.FormatMarkdown, MarkdownParser{})
}

// MarkdownParser recognizes ATX heading lines (`## Title`). Setext
// underline headings are not recognized, and heading-looking lines inside
// fenced code blocks or HTML comments are skipped.
type MarkdownParser struct{}

func (MarkdownParser) Parse(document string, opts Options) []models.HeadingRecord {
	// Strip comments before splitting so a comment spanning lines hides
	// any heading inside it.
	document = reHTMLComment.ReplaceAllString(document, "")

	var records []models.HeadingRecord
	inFence := false
	for _, line := range strings.Split(document, "\n") {
		if strings.HasPrefix(line, fenceMarker) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		m := reATXHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}

		rec := models.HeadingRecord{Level: len(m[1]), Text: text}
		if opts.CustomAnchors {
			if am := reCustomAnchor.FindStringSubmatch(text); am != nil {
				rec.Text = am[1]
				rec.ExplicitAnchor = am[2]
			}
		}
		records = append(records, rec)
	}
	return records
}
