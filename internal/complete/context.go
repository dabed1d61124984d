package complete

import (
	"strings"
	"unicode"
)

// Snapshot is a read-only view of the document at the moment of an edit.
// Col is a rune index into Lines[Row].
type Snapshot struct {
	Lines []string
	Row   int
	Col   int
}

// Document is the buffer the controller completes into.
type Document interface {
	Snapshot() Snapshot
	ApplyText(text string)
}

// ContextOptions bounds the text sent to the provider.
type ContextOptions struct {
	MaxLines int
	MaxChars int
}

// DefaultContextOptions returns the stock limits.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{MaxLines: 50, MaxChars: 800}
}

// blockKeywords open a declaration or block; a line starting with one is a
// good place for the context to begin.
var blockKeywords = []string{
	"func", "function", "def", "class", "fn", "impl", "struct", "interface",
	"enum", "type", "module", "package", "export", "public", "private",
	"protected", "async",
}

// ExtractContext returns the text before the cursor, bounded by opts.
// Nothing after the cursor is ever included.
func ExtractContext(snap Snapshot, opts ContextOptions) string {
	if len(snap.Lines) == 0 {
		return ""
	}
	if opts.MaxLines <= 0 || opts.MaxChars <= 0 {
		opts = DefaultContextOptions()
	}

	row := clamp(snap.Row, 0, len(snap.Lines)-1)
	first := max(0, row-opts.MaxLines+1)

	lines := make([]string, 0, row-first+1)
	lines = append(lines, snap.Lines[first:row]...)
	cur := []rune(snap.Lines[row])
	lines = append(lines, string(cur[:clamp(snap.Col, 0, len(cur))]))

	text := []rune(strings.Join(lines, "\n"))
	if len(text) <= opts.MaxChars {
		return string(text)
	}
	text = text[len(text)-opts.MaxChars:]
	return string(text[reanchor(text):])
}

// reanchor finds a natural starting point in the first half of a truncated
// context. It returns 0 when there is none.
func reanchor(text []rune) int {
	half := len(text) / 2

	// Offsets just past each newline in the first half.
	var starts []int
	for i := 0; i < half; i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	if len(starts) == 0 {
		return 0
	}

	for _, start := range starts {
		if blankBefore(text, start) {
			return start
		}
	}
	for _, start := range starts {
		if startsWithKeyword(text[start:]) {
			return start
		}
	}
	for _, start := range starts {
		if start < len(text) && !unicode.IsSpace(text[start]) {
			return start
		}
	}
	return starts[0]
}

// blankBefore reports whether the line ending at start-1 is blank.
func blankBefore(text []rune, start int) bool {
	i := start - 2
	for i >= 0 && text[i] != '\n' {
		if !unicode.IsSpace(text[i]) {
			return false
		}
		i--
	}
	// A blank first line of the cut is only a separator if it was a whole line.
	return i >= 0
}

func startsWithKeyword(line []rune) bool {
	for _, kw := range blockKeywords {
		n := len(kw)
		if len(line) < n || string(line[:n]) != kw {
			continue
		}
		if len(line) == n || !isIdentRune(line[n]) {
			return true
		}
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
