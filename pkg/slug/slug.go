package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Derive converts heading text into its base anchor slug, following the
// anchor convention of GitHub-style Markdown renderers: lower-cased,
// Unicode letters/digits plus '-' and '_' kept, whitespace runs collapsed
// to a single '-', everything else dropped.
// Deriving an already-normalized slug returns it unchanged.
func Derive(text string) string {
	text = norm.NFC.String(strings.ToLower(strings.TrimSpace(text)))

	var b strings.Builder
	b.Grow(len(text))
	pendingSep := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSep = b.Len() > 0 // never a leading separator
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			if pendingSep {
				b.WriteByte('-')
				pendingSep = false
			}
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// Uniquer tracks slugs handed out during one generation pass so duplicates
// get deterministic numeric suffixes. Not safe for concurrent use; scope
// one Uniquer to one document build.
type Uniquer struct {
	counts map[string]int
}

// NewUniquer returns an empty accumulator for one generation pass.
func NewUniquer() *Uniquer {
	return &Uniquer{counts: make(map[string]int)}
}

// Take registers the slug and returns the unique variant to use: the slug
// itself on first sight, "<slug>-N" (N counting prior duplicates) after
// that. The suffix is bumped past any candidate already handed out, so a
// document containing a literal "issues-1" heading alongside duplicate
// "Issues" headings still yields distinct anchors.
func (u *Uniquer) Take(s string) string {
	n, seen := u.counts[s]
	if !seen {
		u.counts[s] = 1
		return s
	}
	for {
		candidate := fmt.Sprintf("%s-%d", s, n)
		if _, taken := u.counts[candidate]; !taken {
			u.counts[s] = n + 1
			u.counts[candidate] = 1
			return candidate
		}
		n++
	}
}

// Slugify resolves the anchor for one heading: an explicit anchor is used
// verbatim, otherwise one is derived from the text. Either way the result
// passes through used so it stays unique within the pass.
func Slugify(text, explicit string, used *Uniquer) string {
	if explicit != "" {
		return used.Take(explicit)
	}
	return used.Take(Derive(text))
}
