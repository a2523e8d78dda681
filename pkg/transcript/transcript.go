package transcript

import (
	"regexp"
	"strings"
)

// fillerRE matches standalone disfluencies plus any trailing punctuation
// or spacing, so removing one does not leave a double space behind.
var fillerRE = regexp.MustCompile(`(?i)\b(?:um+|uh+|hmm+|erm+|eh+)\b[,.\s]*`)

var (
	spaceRE      = regexp.MustCompile(`\s+`)
	spacePunctRE = regexp.MustCompile(`\s+([,.;:!?])`)
)

// Segment is a single recognition result, consumed in arrival order.
type Segment struct {
	Text       string
	Final      bool
	Confidence float32
}

// Cleaner normalizes recognized text.
type Cleaner struct {
	RemoveFillers bool
}

// Clean trims, optionally strips filler words, collapses whitespace and
// fixes spacing before punctuation.
func (c Cleaner) Clean(t string) string {
	t = strings.TrimSpace(t)
	if c.RemoveFillers {
		t = fillerRE.ReplaceAllString(t, "")
	}
	t = spaceRE.ReplaceAllString(t, " ")
	t = spacePunctRE.ReplaceAllString(t, "$1")
	return strings.TrimSpace(t)
}

// Builder accumulates final segments into a single paragraph.
type Builder struct {
	cleaner   Cleaner
	finals    []string
	lastFinal string
}

// NewBuilder creates a Builder using the given cleaner for both the
// per-segment and the final cleanup pass.
func NewBuilder(cleaner Cleaner) *Builder {
	return &Builder{cleaner: cleaner}
}

// Add stores a final segment. Non-final segments are ignored, as is a
// final identical to the previous one (the API occasionally resends it).
func (b *Builder) Add(seg Segment) {
	if !seg.Final {
		return
	}
	txt := b.cleaner.Clean(seg.Text)
	if txt == "" || txt == b.lastFinal {
		return
	}
	b.finals = append(b.finals, txt)
	b.lastFinal = txt
}

// Empty reports whether no final text has been accumulated.
func (b *Builder) Empty() bool {
	return len(b.finals) == 0
}

// Paragraph joins the accumulated finals with single spaces and runs one
// more cleanup pass over the joined text.
func (b *Builder) Paragraph() string {
	return b.cleaner.Clean(strings.Join(b.finals, " "))
}
