package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// **bold** only when it stands alone as a word; "2**x**2" is code.
	boldMarker = regexp.MustCompile(`(^|[\s(\[])\*\*([^\s*](?:[^*\n]*[^\s*])?)\*\*($|[\s)\].,:;!?])`)
	// ### headings; "#" and "##" are left for comments and directives.
	headingMarker = regexp.MustCompile(`(?m)^([ \t]*)#{3,6}[ \t]+`)
)

func stripEmphasis(s string) string {
	if strings.Contains(s, "**") {
		s = boldMarker.ReplaceAllString(s, "$1$2$3")
	}
	if strings.Contains(s, "###") {
		s = headingMarker.ReplaceAllString(s, "$1")
	}
	return s
}

// stripEscapes removes ANSI/VT escape sequences a model may have echoed
// from a terminal transcript.
func stripEscapes(s string) string {
	if !strings.ContainsRune(s, '\x1b') && !strings.ContainsRune(s, '\u009b') {
		return s
	}
	return ansi.Strip(s)
}

var glyphReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"′", "'", "´", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"″", `"`, "«", `"`, "»", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-",
	"—", "-", "―", "-", "−", "-",
	"…", "...",
	"\u00a0", " ", "\u2007", " ", "\u202f", " ", "\u2009", " ",
	"\u200a", " ", "\u2002", " ", "\u2003", " ",
	"\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "",
	"•", "*", "·", ".",
	"←", "<-", "→", "->", "⇒", "=>",
	"≤", "<=", "≥", ">=", "≠", "!=",
	"×", "x",
)

// normalizeGlyphs maps typographic punctuation and box drawing to ASCII.
func normalizeGlyphs(s string) string {
	if isASCII(s) {
		return s
	}
	s = glyphReplacer.Replace(s)
	return strings.Map(boxDrawing, s)
}

// boxDrawing flattens U+2500..U+257F: horizontal strokes become '-',
// vertical strokes '|', corners and junctions '+'.
func boxDrawing(r rune) rune {
	if r < 0x2500 || r > 0x257f {
		return r
	}
	switch r {
	case '─', '━', '═', '┄', '┅', '┈', '┉', '╌', '╍', '╴', '╶', '╸', '╺', '╼', '╾':
		return '-'
	case '│', '┃', '║', '┆', '┇', '┊', '┋', '╎', '╏', '╵', '╷', '╹', '╻', '╽', '╿':
		return '|'
	case '╱':
		return '/'
	case '╲':
		return '\\'
	case '╳':
		return 'X'
	}
	return '+'
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// restrictASCII folds accented letters to their base letter, then drops
// everything outside printable ASCII, tab, newline and carriage return.
func restrictASCII(s string) string {
	if isASCII(s) && !strings.ContainsFunc(s, isDisallowed) {
		return s
	}
	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}
	return strings.Map(func(r rune) rune {
		if isDisallowed(r) {
			return -1
		}
		return r
	}, s)
}

func isDisallowed(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || r > 0x7e
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
