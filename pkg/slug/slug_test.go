package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Introduction", "introduction"},
		{"Command Line", "command-line"},
		{"Getting Started!", "getting-started"},
		{"What's New?", "whats-new"},
		{"Motivation & Goals", "motivation-goals"},
		{"foo_bar baz", "foo_bar-baz"},
		{"already-normalized", "already-normalized"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"Multiple   spaces", "multiple-spaces"},
		{"C++ API", "c-api"},
		{"100% Coverage", "100-coverage"},
		{"Ünïcôde Héadings", "ünïcôde-héadings"},
		{"日本語の見出し", "日本語の見出し"},
		{"---", ""},
		{"!!!", ""},
		{"", ""},
		{"- dash first", "dash-first"},
		{"trailing dash -", "trailing-dash"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Derive(tt.in), "Derive(%q)", tt.in)
	}
}

func TestDerive_Idempotent(t *testing.T) {
	for _, in := range []string{"Usage Examples", "What's New?", "issues-1", "a_b-c"} {
		once := Derive(in)
		assert.Equal(t, once, Derive(once), "Derive not idempotent for %q", in)
	}
}

func TestUniquer_FirstUseUnsuffixed(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "issues", u.Take("issues"))
}

func TestUniquer_DuplicatesSuffixed(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "issues", u.Take("issues"))
	assert.Equal(t, "issues-1", u.Take("issues"))
	assert.Equal(t, "issues-2", u.Take("issues"))
}

func TestUniquer_SuffixInterference(t *testing.T) {
	// A literal "issues-1" heading must not collide with the suffixed
	// variant of a duplicated "issues" heading.
	u := NewUniquer()
	assert.Equal(t, "issues-1", u.Take("issues-1"))
	assert.Equal(t, "issues", u.Take("issues"))
	assert.Equal(t, "issues-2", u.Take("issues"))
}

func TestUniquer_EmptySlug(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "", u.Take(""))
	assert.Equal(t, "-1", u.Take(""))
}

func TestSlugify_DerivesWithoutExplicit(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "command-line", Slugify("Command Line", "", u))
}

func TestSlugify_ExplicitVerbatim(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "intro", Slugify("Introduction", "intro", u))
	// Explicit anchors skip derivation entirely, including case folding.
	assert.Equal(t, "MixedCase", Slugify("whatever", "MixedCase", u))
}

func TestSlugify_ExplicitStillUniqued(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "intro", Slugify("Introduction", "intro", u))
	assert.Equal(t, "intro-1", Slugify("Second Intro", "intro", u))
}

func TestSlugify_ExplicitAndDerivedShareNamespace(t *testing.T) {
	u := NewUniquer()
	assert.Equal(t, "usage", Slugify("Usage", "", u))
	assert.Equal(t, "usage-1", Slugify("ignored", "usage", u))
}

func TestSlugify_AllDistinctAcrossPass(t *testing.T) {
	u := NewUniquer()
	headings := []string{"Issues", "Issues", "Issues 1", "Setup", "Setup", "setup"}
	seen := make(map[string]bool)
	for _, h := range headings {
		s := Slugify(h, "", u)
		assert.False(t, seen[s], "duplicate anchor %q", s)
		seen[s] = true
	}
}
