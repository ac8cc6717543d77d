package parse

import (
	"fmt"

	"tocgen/pkg/models"
	"tocgen/pkg/utils"
)

// Options controls format-specific parsing behavior.
type Options struct {
	CustomAnchors bool // Markdown only: honor trailing {#anchor} markers
}

// Parser extracts heading records from one in-memory document.
// Implementations are total: unrecognized or malformed content yields
// fewer records, never an error, and a document without headings yields
// an empty sequence.
type Parser interface {
	Parse(document string, opts Options) []models.HeadingRecord
}

var parsers = make(map[models.Format]Parser)

// Register makes a parser available under the given format key.
// Registering an already-registered format replaces the earlier parser.
// Call from init; the registry must not change once lookups begin.
func Register(format models.Format, p Parser) {
	parsers[format] = p
}

// ForFormat returns the parser registered for the format.
func ForFormat(format models.Format) (Parser, error) {
	p, ok := parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: no parser registered for %q", utils.ErrUnsupportedFormat, format)
	}
	return p, nil
}
