package sanitize

import (
	"regexp"
	"strings"
)

var (
	leadingProse = regexp.MustCompile(`(?i)^(?:here(?:'s| is| are)\b|sure\b|certainly\b|of course\b|ok(?:ay)?(?:[.!]|,[ \t]+[a-z])|below is\b|the following\b|i(?:'ve| have) (?:completed|added|written)\b|to complete\b|completion:|continuing\b)`)
	trailingProse = regexp.MustCompile(`(?i)^(?:this (?:code|completion|will|should|function|snippet|adds|completes)\b|note:|explanation:|the above\b|let me know\b|i hope\b|hope this\b|feel free\b|this way\b)`)
)

// codeChars mark a line as code even when it opens like a sentence.
const codeChars = ";{}=<>()[]\"`"

func isProse(line string, pattern *regexp.Regexp) bool {
	line = strings.TrimSpace(line)
	if line == "" || !pattern.MatchString(line) {
		return false
	}
	// A trailing comma continues a list or literal.
	if strings.HasSuffix(line, ",") {
		return false
	}
	// "Here is the code:" is prose, "sure(x);" is not.
	return !strings.ContainsAny(strings.TrimSuffix(line, ":"), codeChars)
}

// stripProse removes explanation lines around the code, collapses runs of
// blank lines, and trims the result.
func stripProse(s string) string {
	lines := strings.Split(s, "\n")

	start := 0
	for start < len(lines) {
		if isBlank(lines[start]) || isProse(lines[start], leadingProse) {
			start++
			continue
		}
		break
	}
	end := len(lines)
	for end > start {
		if isBlank(lines[end-1]) || isProse(lines[end-1], trailingProse) {
			end--
			continue
		}
		break
	}

	kept := make([]string, 0, end-start)
	prevBlank := false
	for _, line := range lines[start:end] {
		blank := isBlank(line)
		if blank && prevBlank {
			continue
		}
		if blank {
			line = ""
		}
		kept = append(kept, line)
		prevBlank = blank
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
