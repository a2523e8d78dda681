package render

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Line renders recognition output on a terminal: a single in-place
// updating preview line while listening, then the finished paragraph.
type Line struct {
	w         io.Writer
	enabled   bool
	lastWidth int
}

// New creates a renderer writing to w. When enabled is false the preview
// is suppressed and only the final paragraph is printed.
func New(w io.Writer, enabled bool) *Line {
	return &Line{w: w, enabled: enabled}
}

// Preview overwrites the current terminal line with the latest hypothesis.
func (l *Line) Preview(text string) {
	if !l.enabled {
		return
	}
	line := fmt.Sprintf("preview: %s...", text)
	fmt.Fprintf(l.w, "\r%s", line)
	// Blank out leftovers from a longer previous hypothesis.
	width := utf8.RuneCountInString(line)
	for i := width; i < l.lastWidth; i++ {
		fmt.Fprint(l.w, " ")
	}
	l.lastWidth = width
}

// ClearPreview erases the preview line, leaving the cursor at column zero.
func (l *Line) ClearPreview() {
	if l.lastWidth == 0 {
		return
	}
	fmt.Fprint(l.w, "\r")
	for i := 0; i < l.lastWidth; i++ {
		fmt.Fprint(l.w, " ")
	}
	fmt.Fprint(l.w, "\r")
	l.lastWidth = 0
}

// Paragraph clears any preview and prints the assembled transcript, or a
// notice when nothing was captured.
func (l *Line) Paragraph(text string) {
	l.ClearPreview()
	if text == "" {
		fmt.Fprintln(l.w, "\n(No final transcript captured.)")
		return
	}
	fmt.Fprintln(l.w, "\nTranscript:")
	fmt.Fprintln(l.w, text)
}
