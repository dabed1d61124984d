package sanitize

import (
	"regexp"
	"strings"
)

var (
	// include <x>, include "x.h", pragma once, define NAME: the '#' was
	// eaten with a tag. A quoted include needs a header path; PHP's
	// include "config.php" is left alone.
	lostHash = regexp.MustCompile(`(?m)^([ \t]*)(include[ \t]*(?:<|"[^"\n]*\.(?:h|hh|hpp|hxx)")|import[ \t]*<|pragma[ \t]+once\b|define[ \t]+[A-Z_][A-Z0-9_]*\b)`)
	// #include iostream: the brackets went with a stripped tag.
	bareInclude = regexp.MustCompile(`(?m)^([ \t]*#[ \t]*include[ \t]+)([a-z_][\w./]*)[ \t]*$`)
	// cout "x": the << went with a stripped tag.
	lostInsert = regexp.MustCompile(`\b((?:std::)?(?:cout|cerr|clog))[ \t]+("|[A-Za-z_(])`)
	// "x" std::endl
	lostEndl = regexp.MustCompile(`("|\))[ \t]+((?:std::)?endl)\b`)
)

// repair restores C/C++ punctuation that an earlier tag strip is known to
// remove along with the markup. It only runs in a round where markup was
// stripped.
func repair(s string) string {
	if strings.Contains(s, "include") || strings.Contains(s, "pragma") || strings.Contains(s, "define") || strings.Contains(s, "import") {
		s = lostHash.ReplaceAllString(s, "$1#$2")
		s = bareInclude.ReplaceAllString(s, "$1<$2>")
	}
	if strings.Contains(s, "cout") || strings.Contains(s, "cerr") || strings.Contains(s, "clog") || strings.Contains(s, "endl") {
		s = repairInserts(s)
	}
	return s
}

// repairInserts puts back lost << operators in the code part of each line.
// Comments are prose about cout, not calls to it.
func repairInserts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		code, comment := splitComment(line)
		code = lostInsert.ReplaceAllString(code, "$1 << $2")
		code = lostEndl.ReplaceAllString(code, "$1 << $2")
		lines[i] = code + comment
	}
	return strings.Join(lines, "\n")
}

// splitComment cuts line at the first "//" or "#" outside a quoted string.
func splitComment(line string) (code, comment string) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#', c == '/' && strings.HasPrefix(line[i:], "//"):
			return line[:i], line[i:]
		}
	}
	return line, ""
}
