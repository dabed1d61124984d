// Package buffer holds the text being edited: rune lines and a cursor.
package buffer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/samsaffron/ghostwrite/internal/complete"
)

// Pos is a rune position in the buffer.
type Pos struct {
	Row int
	Col int
}

// Direction is a cursor movement.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	LineStart
	LineEnd
)

// Buffer is the document state. The zero value is not usable; call New.
type Buffer struct {
	lines   [][]rune
	cursor  Pos
	version uint64
	saved   uint64
}

// New creates a buffer holding text with the cursor at the start.
func New(text string) *Buffer {
	return &Buffer{lines: splitLines(text)}
}

// Load reads path into a new buffer. A missing file gives an empty buffer.
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return New(strings.ReplaceAll(string(data), "\r\n", "\n")), nil
}

// Save writes the buffer to path and marks it unmodified.
func (b *Buffer) Save(path string) error {
	if err := os.WriteFile(path, []byte(b.Text()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	b.saved = b.version
	return nil
}

// Modified reports whether the text changed since the last Save.
func (b *Buffer) Modified() bool { return b.version != b.saved }

// Version increases on every text change. Cursor moves do not count.
func (b *Buffer) Version() uint64 { return b.version }

func (b *Buffer) Cursor() Pos { return b.cursor }

// SetCursor moves the cursor, clamped to the text.
func (b *Buffer) SetCursor(p Pos) {
	b.cursor = b.clampPos(p)
}

func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns row as a string, or "" when out of range.
func (b *Buffer) Line(row int) string {
	if row < 0 || row >= len(b.lines) {
		return ""
	}
	return string(b.lines[row])
}

// Lines returns a copy of every line.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = string(l)
	}
	return out
}

func (b *Buffer) Text() string {
	var sb strings.Builder
	for i, line := range b.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(line))
	}
	return sb.String()
}

// Snapshot captures the lines and cursor for the completion controller.
func (b *Buffer) Snapshot() complete.Snapshot {
	return complete.Snapshot{Lines: b.Lines(), Row: b.cursor.Row, Col: b.cursor.Col}
}

// ApplyText inserts an accepted suggestion at the cursor.
func (b *Buffer) ApplyText(text string) {
	b.Insert(text)
}

// Insert types s at the cursor. Newlines in s split the line and the cursor
// ends after the last inserted rune.
func (b *Buffer) Insert(s string) {
	if s == "" {
		return
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	parts := strings.Split(s, "\n")

	row, col := b.cursor.Row, b.cursor.Col
	line := b.lines[row]
	head := append([]rune(nil), line[:col]...)
	tail := append([]rune(nil), line[col:]...)

	if len(parts) == 1 {
		ins := []rune(parts[0])
		b.lines[row] = append(append(head, ins...), tail...)
		b.cursor.Col = col + len(ins)
		b.version++
		return
	}

	added := make([][]rune, len(parts))
	added[0] = append(head, []rune(parts[0])...)
	for i := 1; i < len(parts)-1; i++ {
		added[i] = []rune(parts[i])
	}
	last := []rune(parts[len(parts)-1])
	added[len(parts)-1] = append(append([]rune(nil), last...), tail...)

	lines := make([][]rune, 0, len(b.lines)+len(parts)-1)
	lines = append(lines, b.lines[:row]...)
	lines = append(lines, added...)
	lines = append(lines, b.lines[row+1:]...)
	b.lines = lines
	b.cursor = Pos{Row: row + len(parts) - 1, Col: len(last)}
	b.version++
}

// Newline splits the line at the cursor.
func (b *Buffer) Newline() {
	b.Insert("\n")
}

// Backspace deletes the rune before the cursor, joining lines at column 0.
// It reports whether anything was deleted.
func (b *Buffer) Backspace() bool {
	row, col := b.cursor.Row, b.cursor.Col
	switch {
	case col > 0:
		line := b.lines[row]
		b.lines[row] = append(line[:col-1:col-1], line[col:]...)
		b.cursor.Col--
	case row > 0:
		prev := b.lines[row-1]
		b.cursor = Pos{Row: row - 1, Col: len(prev)}
		b.lines[row-1] = append(prev[:len(prev):len(prev)], b.lines[row]...)
		b.lines = append(b.lines[:row], b.lines[row+1:]...)
	default:
		return false
	}
	b.version++
	return true
}

// Move moves the cursor. It reports whether the position changed.
func (b *Buffer) Move(d Direction) bool {
	before := b.cursor
	p := b.cursor
	switch d {
	case Left:
		if p.Col > 0 {
			p.Col--
		} else if p.Row > 0 {
			p.Row--
			p.Col = len(b.lines[p.Row])
		}
	case Right:
		if p.Col < len(b.lines[p.Row]) {
			p.Col++
		} else if p.Row < len(b.lines)-1 {
			p.Row++
			p.Col = 0
		}
	case Up:
		p.Row--
	case Down:
		p.Row++
	case LineStart:
		p.Col = 0
	case LineEnd:
		p.Col = len(b.lines[p.Row])
	}
	b.cursor = b.clampPos(p)
	return b.cursor != before
}

func (b *Buffer) clampPos(p Pos) Pos {
	p.Row = min(max(p.Row, 0), len(b.lines)-1)
	p.Col = min(max(p.Col, 0), len(b.lines[p.Row]))
	return p
}

func splitLines(text string) [][]rune {
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return lines
}
