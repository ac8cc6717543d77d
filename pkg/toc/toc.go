package toc

import (
	"tocgen/pkg/models"
	"tocgen/pkg/parse"
	"tocgen/pkg/render"
)

// Options selects the formats and rendering knobs for one generation.
type Options struct {
	InputFormat   models.Format
	OutputFormat  models.Format
	IndentWidth   int
	CustomAnchors bool
	Title         string // "" suppresses the section title
}

// DefaultOptions returns the settings the CLI and server layers start
// from before config and flags are applied.
func DefaultOptions() Options {
	return Options{
		InputFormat:  models.FormatMarkdown,
		OutputFormat: models.FormatMarkdown,
		IndentWidth:  4,
		Title:        "Table of Contents",
	}
}

// Generate runs the full pipeline for one in-memory document: parse
// headings, build entries, render. The only error surface is an
// unsupported format, rejected before any parsing happens. A document
// without headings yields "", title included.
func Generate(document string, opts Options) (string, error) {
	parser, err := parse.ForFormat(opts.InputFormat)
	if err != nil {
		return "", err
	}
	writer, err := render.ForFormat(opts.OutputFormat)
	if err != nil {
		return "", err
	}

	records := parser.Parse(document, parse.Options{CustomAnchors: opts.CustomAnchors})
	entries := Build(records)
	if len(entries) == 0 {
		return "", nil
	}

	out := writer.Render(entries, opts.IndentWidth)
	if opts.Title != "" {
		out = writer.RenderTitle(opts.Title) + out
	}
	return out, nil
}

// OutlineItem pairs a built entry with the heading level it came from.
type OutlineItem struct {
	Level  int    `json:"level"`
	Depth  int    `json:"depth"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// Outline parses and builds without rendering, for callers that want the
// heading structure itself rather than a formatted list.
func Outline(document string, opts Options) ([]OutlineItem, error) {
	parser, err := parse.ForFormat(opts.InputFormat)
	if err != nil {
		return nil, err
	}

	records := parser.Parse(document, parse.Options{CustomAnchors: opts.CustomAnchors})
	entries := Build(records)
	items := make([]OutlineItem, 0, len(entries))
	for i, e := range entries {
		items = append(items, OutlineItem{
			Level:  records[i].Level,
			Depth:  e.Depth,
			Text:   e.Text,
			Anchor: e.Anchor,
		})
	}
	return items, nil
}
