package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tocgen/pkg/models"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

func init() {
	Register(models.FormatHTML, HTMLParser{})
}

// HTMLParser recognizes h1-h6 elements. The element's text content is
// taken with inner tags stripped, and its id attribute (the anchor an
// HTML renderer links against) becomes the explicit anchor. The
// CustomAnchors option has no meaning for HTML and is ignored.
type HTMLParser struct{}

func (HTMLParser) Parse(document string, _ Options) []models.HeadingRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		// html.Parse is error-tolerant over in-memory input; reaching
		// this means no document at all, so no headings.
		return nil
	}

	var records []models.HeadingRecord
	doc.Find(headingSelector).Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)
		text := strings.TrimSpace(strings.ReplaceAll(sel.Text(), "\n", ""))
		anchor, _ := sel.Attr("id")
		records = append(records, models.HeadingRecord{
			Level:          int(name[1] - '0'),
			Text:           text,
			ExplicitAnchor: anchor,
		})
	})
	return records
}
