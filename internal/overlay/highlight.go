package overlay

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// SegmentKind tells real text, ghost text and line breaks apart.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentGhost
	SegmentNewline
)

// Segment is a run of text sharing one style.
type Segment struct {
	Kind  SegmentKind
	Text  string
	Style lipgloss.Style
}

// Highlighter handles syntax highlighting for one file type
type Highlighter struct {
	lexer  chroma.Lexer
	style  *chroma.Style
	styles *Styles
	tokens map[chroma.TokenType]lipgloss.Style
}

// NewHighlighter creates a highlighter for the given file path. Unknown
// file types get the plain-text lexer.
func NewHighlighter(filePath string, styles *Styles) *Highlighter {
	lexer := lexers.Match(filePath)
	if lexer == nil {
		lexer = lexers.Get("plaintext")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get(styles.Theme().ChromaName)
	if style == nil {
		style = chromastyles.Fallback
	}

	return &Highlighter{
		lexer:  lexer,
		style:  style,
		styles: styles,
		tokens: make(map[chroma.TokenType]lipgloss.Style),
	}
}

// Language returns the lexer name.
func (h *Highlighter) Language() string {
	return h.lexer.Config().Name
}

// Highlight tokenizes the document part of d as a single line and inserts
// the ghost at the cursor. A token that spans the cursor is split in two
// with its style kept on both halves. Without a ghost the result does not
// depend on where the cursor is.
func (h *Highlighter) Highlight(d DisplayLine) []Segment {
	segs := h.tokenize(d.Document())
	if !d.HasGhost() {
		return segs
	}

	cut := len(d.Prefix)
	ghost := h.ghost(d.Ghost)
	out := make([]Segment, 0, len(segs)+len(ghost)+1)
	offset := 0
	inserted := false
	for _, seg := range segs {
		end := offset + len(seg.Text)
		if !inserted && cut < end {
			if cut > offset {
				out = append(out, Segment{Kind: SegmentText, Text: seg.Text[:cut-offset], Style: seg.Style})
				seg.Text = seg.Text[cut-offset:]
			}
			out = append(out, ghost...)
			inserted = true
		}
		out = append(out, seg)
		offset = end
	}
	if !inserted {
		out = append(out, ghost...)
	}
	return out
}

func (h *Highlighter) tokenize(text string) []Segment {
	if text == "" {
		return nil
	}
	iterator, err := h.lexer.Tokenise(nil, text)
	if err != nil {
		return []Segment{{Kind: SegmentText, Text: text, Style: h.styles.Text}}
	}

	var segs []Segment
	for token := iterator(); token != chroma.EOF; token = iterator() {
		// Lexers append a trailing newline; the line itself has none.
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}
		segs = append(segs, Segment{Kind: SegmentText, Text: value, Style: h.tokenStyle(token.Type)})
	}
	return segs
}

func (h *Highlighter) tokenStyle(tt chroma.TokenType) lipgloss.Style {
	if s, ok := h.tokens[tt]; ok {
		return s
	}
	entry := h.style.Get(tt)
	s := h.styles.Text
	if entry.Colour.IsSet() {
		s = s.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		s = s.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		s = s.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		s = s.Underline(true)
	}
	h.tokens[tt] = s
	return s
}

func (h *Highlighter) ghost(text string) []Segment {
	var segs []Segment
	for i, part := range strings.Split(text, "\n") {
		if i > 0 {
			segs = append(segs, Segment{Kind: SegmentNewline})
		}
		if part != "" {
			segs = append(segs, Segment{Kind: SegmentGhost, Text: part, Style: h.styles.Ghost})
		}
	}
	return segs
}
