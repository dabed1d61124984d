package editor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/samsaffron/ghostwrite/internal/overlay"
)

// View renders the visible text rows followed by the status line.
func (m *Model) View() string {
	rows := m.textRows()
	return strings.Join(rows, "\n") + "\n" + m.statusLine()
}

// textRows renders the window onto the buffer. A multi-line suggestion
// takes extra display rows and pushes later lines down; the buffer itself
// is untouched.
func (m *Model) textRows() []string {
	height := m.textHeight()
	cur := m.buf.Cursor()
	preview, hasPreview := m.ctrl.Preview()

	rows := make([]string, 0, height)
	for r := m.top; r < m.buf.LineCount() && len(rows) < height; r++ {
		line := m.buf.Line(r)
		d := overlay.Compose(line, cur.Col, "")
		if hasPreview && preview.AnchorRow == r {
			d = overlay.Compose(line, preview.AnchorCol, preview.Text)
		}
		segs := m.hl.Highlight(d)
		if r == cur.Row {
			segs = overlay.MarkCursor(segs, cur.Col, m.styles.Cursor)
		}
		for _, row := range overlay.Render(segs) {
			rows = append(rows, ansi.Cut(row, m.left, m.left+m.width))
		}
	}
	if len(rows) > height {
		rows = rows[:height]
	}
	for len(rows) < height {
		rows = append(rows, m.styles.LineNumber.Render("~"))
	}
	return rows
}

func (m *Model) statusLine() string {
	name := "[no name]"
	if m.path != "" {
		name = filepath.Base(m.path)
	}
	if m.buf.Modified() {
		name += " [+]"
	}

	cur := m.buf.Cursor()
	right := fmt.Sprintf("%s %s  %s  %d:%d ", m.provider, m.ctrl.Model(), m.ctrl.State(), cur.Row+1, cur.Col+1)

	left := " " + name
	style := m.styles.Status
	switch {
	case m.status != "":
		left += "  " + m.status
		if m.statusErr {
			style = m.styles.Error
		}
	default:
		left += "  " + ansi.Strip(m.help.ShortHelpView(m.keyMap.ShortHelp()))
	}

	gap := m.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		left = ansi.Truncate(left, max(0, m.width-ansi.StringWidth(right)-1), "…")
		gap = max(1, m.width-ansi.StringWidth(left)-ansi.StringWidth(right))
	}
	line := ansi.Truncate(left+strings.Repeat(" ", gap)+right, m.width, "")
	return style.Render(line)
}
