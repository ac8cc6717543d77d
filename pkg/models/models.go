package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"tocgen/pkg/utils"
)

// HeadingRecord is one recognized heading, in document order.
type HeadingRecord struct {
	Level          int    // 1-6; '#' count for Markdown, the numeral of h<N> for HTML
	Text           string // heading text, whitespace-trimmed
	ExplicitAnchor string // anchor supplied by the document itself; "" = derive one
}

// TocEntry is one row of a rendered table of contents.
type TocEntry struct {
	Depth  int    // nesting level relative to the shallowest heading present
	Text   string // display text, reproduced from the heading
	Anchor string // URL fragment without the leading '#'; "" renders unlinked
}

// Format identifies a supported document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// String implements fmt.Stringer for logging
func (f Format) String() string {
	return string(f)
}

// AllFormats returns the supported formats in display order.
func AllFormats() []Format {
	return []Format{FormatMarkdown, FormatHTML}
}

// Extension returns the canonical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	}
	return ""
}

// Extensions returns every file extension recognized as this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMarkdown:
		return []string{".md", ".rmd"}
	case FormatHTML:
		return []string{".html", ".htm", ".xhtml"}
	}
	return nil
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	case string(FormatHTML):
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", utils.ErrUnsupportedFormat, s)
}

// DetectFormat infers a document format from the file's extension.
// Matching is case-insensitive.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range AllFormats() {
		for _, known := range f.Extensions() {
			if ext == known {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no format for extension %q", utils.ErrUnsupportedFormat, ext)
}
