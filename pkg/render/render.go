package render

import (
	"fmt"

	"tocgen/pkg/models"
	"tocgen/pkg/utils"
)

// Writer renders a built entry sequence into one output format.
type Writer interface {
	// Render produces the nested list for the entries. Empty input
	// renders as the empty string, never an error. A negative indent
	// width is treated as zero.
	Render(entries []models.TocEntry, indentWidth int) string
	// RenderTitle produces the section title placed above a non-empty
	// list, trailing separation included.
	RenderTitle(title string) string
}

var writers = make(map[models.Format]Writer)

// Register makes a writer available under the given format key.
// Registering an already-registered format replaces the earlier writer.
// Call from init; the registry must not change once lookups begin.
func Register(format models.Format, w Writer) {
	writers[format] = w
}

// ForFormat returns the writer registered for the format.
func ForFormat(format models.Format) (Writer, error) {
	w, ok := writers[format]
	if !ok {
		return nil, fmt.Errorf("%w: no writer registered for %q", utils.ErrUnsupportedFormat, format)
	}
	return w, nil
}
