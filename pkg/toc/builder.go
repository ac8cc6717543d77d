package toc

import (
	"tocgen/pkg/models"
	"tocgen/pkg/slug"
)

// Build turns parsed heading records into renderable entries. Depth is
// the level offset from the shallowest heading present, so a document
// whose headings start at h2 still produces a top-level list. Anchors
// are assigned through one shared accumulator so they stay unique for
// the whole pass. Level jumps bigger than one are passed through as-is;
// writers deal with them.
func Build(records []models.HeadingRecord) []models.TocEntry {
	if len(records) == 0 {
		return nil
	}

	minLevel := records[0].Level
	for _, r := range records[1:] {
		if r.Level < minLevel {
			minLevel = r.Level
		}
	}

	used := slug.NewUniquer()
	entries := make([]models.TocEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, models.TocEntry{
			Depth:  r.Level - minLevel,
			Text:   r.Text,
			Anchor: slug.Slugify(r.Text, r.ExplicitAnchor, used),
		})
	}
	return entries
}
