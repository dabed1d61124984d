// Package overlay draws an inline suggestion as ghost text next to the
// real document text without ever modifying it.
//
// Rendering a line is two steps. Compose splits the stored line at the
// cursor and slots the suggestion in between. Highlight then tokenizes only
// the real text and weaves the ghost in as separately styled segments, so
// syntax colours of the document are unaffected by what the model said.
package overlay

// DisplayLine is a document line prepared for display.
type DisplayLine struct {
	Prefix string // document text before the cursor
	Ghost  string // suggestion, possibly multi-line
	Suffix string // document text after the cursor
}

// Compose builds the display form of line with suggestion inserted at col,
// a rune index clamped to the line. The stored line is never touched.
func Compose(line string, col int, suggestion string) DisplayLine {
	runes := []rune(line)
	col = max(0, min(col, len(runes)))
	return DisplayLine{
		Prefix: string(runes[:col]),
		Ghost:  suggestion,
		Suffix: string(runes[col:]),
	}
}

// Document returns the real text of the line.
func (d DisplayLine) Document() string {
	return d.Prefix + d.Suffix
}

// HasGhost reports whether a suggestion is shown.
func (d DisplayLine) HasGhost() bool {
	return d.Ghost != ""
}
