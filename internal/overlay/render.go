package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Render turns segments into display rows, one per SegmentNewline plus one.
func Render(segs []Segment) []string {
	var rows []string
	var b strings.Builder
	for _, seg := range segs {
		if seg.Kind == SegmentNewline {
			rows = append(rows, b.String())
			b.Reset()
			continue
		}
		b.WriteString(seg.Style.Render(seg.Text))
	}
	return append(rows, b.String())
}

// MarkCursor restyles the rune at col of the first row with the cursor
// style. Past the end of the row a blank cursor cell is added.
func MarkCursor(segs []Segment, col int, cursor lipgloss.Style) []Segment {
	out := make([]Segment, 0, len(segs)+2)
	pos := 0
	marked := false
	for i, seg := range segs {
		if marked {
			out = append(out, seg)
			continue
		}
		if seg.Kind == SegmentNewline {
			out = append(out, Segment{Kind: SegmentText, Text: " ", Style: cursor})
			out = append(out, segs[i:]...)
			return out
		}
		runes := []rune(seg.Text)
		if col >= pos+len(runes) {
			out = append(out, seg)
			pos += len(runes)
			continue
		}
		at := col - pos
		if at > 0 {
			out = append(out, Segment{Kind: seg.Kind, Text: string(runes[:at]), Style: seg.Style})
		}
		out = append(out, Segment{Kind: seg.Kind, Text: string(runes[at]), Style: seg.Style.Inherit(cursor).Reverse(true)})
		if at+1 < len(runes) {
			out = append(out, Segment{Kind: seg.Kind, Text: string(runes[at+1:]), Style: seg.Style})
		}
		marked = true
	}
	if !marked {
		out = append(out, Segment{Kind: SegmentText, Text: " ", Style: cursor})
	}
	return out
}

// DisplayColumn returns the screen column of rune index col in line, with
// tabs expanded to the renderer's four columns.
func DisplayColumn(line string, col int) int {
	width := 0
	for i, r := range []rune(line) {
		if i >= col {
			break
		}
		if r == '\t' {
			width += 4
			continue
		}
		width += runewidth.RuneWidth(r)
	}
	return width
}
