package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Placeholders are built from private-use runes so no later pattern can
// match inside them. Input private-use runes are dropped up front for the
// same reason; the ASCII pass would drop them anyway.
const (
	placeholderOpen  = '\uF8F0'
	placeholderClose = '\uF8F1'
	placeholderBase  = 0xE000
	maxPlaceholders  = 0xF8F0 - placeholderBase
)

// protectRule recognises one kind of code that uses angle brackets
// legitimately. A match is kept only if accept (when set) agrees. With
// retry, the search resumes one byte past a rejected match instead of after
// it.
type protectRule struct {
	name    string
	pattern *regexp.Regexp
	accept  func(s string, loc []int) bool
	retry   bool
}

// Rules run in order; text protected by an earlier rule is invisible to the
// later ones.
var protectRules = []protectRule{
	{
		name:    "directive",
		pattern: regexp.MustCompile(`#[ \t]*(?:include|include_next|import)[ \t]*<[^<>\n]+>`),
	},
	{
		name:    "string",
		pattern: regexp.MustCompile(`"(?:[^"\\\n]|\\.)*<(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*<(?:[^'\\\n]|\\.)*'`),
		accept:  literalNotAttribute,
		retry:   true,
	},
	{
		name:    "control-flow",
		pattern: regexp.MustCompile(`\b(?:if|else[ \t]+if|elif|elsif|while|for|switch|until|assert)[ \t]*\((?:[^()\n]|\([^()\n]*\))*[<>](?:[^()\n]|\([^()\n]*\))*\)`),
	},
	{
		name:    "comparison",
		pattern: regexp.MustCompile(`\b[A-Za-z_][\w.]*(?:\[[^\[\]\n]*\]|\(\))?[ \t]*(?:<=|>=|<|>)[ \t]*-?[A-Za-z_0-9][\w.]*`),
		accept:  comparisonNotMarkup,
	},
	{
		name:    "stream",
		pattern: regexp.MustCompile(`\b[A-Za-z_][\w:.]*(?:[ \t]*(?:<<|>>)[ \t]*(?:"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'|[\w:.]+(?:\([^()\n]*\))?))+`),
	},
}

var comparisonParts = regexp.MustCompile(`^([A-Za-z_][\w.]*)(?:\[[^\[\]\n]*\]|\(\))?[ \t]*(<=|>=|<|>)[ \t]*-?([A-Za-z_0-9][\w.]*)$`)

var attrStart = regexp.MustCompile(`^[ \t]+[A-Za-z][\w:-]*=`)

// comparisonNotMarkup rejects matches that are really pieces of a tag:
// "span>text" after "<" or "</", and "x<b>" where b is a markup tag.
func comparisonNotMarkup(s string, loc []int) bool {
	start, end := loc[0], loc[1]
	if start > 0 && s[start-1] == '<' {
		return false
	}
	if start > 1 && s[start-2:start] == "</" {
		return false
	}
	m := comparisonParts.FindStringSubmatch(s[start:end])
	if m == nil {
		return true
	}
	op, right := m[2], m[3]
	if op != "<" || !markupTags[right] {
		return true
	}
	rest := s[end:]
	if strings.HasPrefix(rest, ">") || strings.HasPrefix(rest, "/") || attrStart.MatchString(rest) {
		return false
	}
	return true
}

// literalNotAttribute keeps quoted strings that hold markup, as in
// html := "<b>", and rejects the text between two attribute values, as in
// class="x">y</span> <span class=". An opening quote must follow
// whitespace, an operator or a bracket; one that follows a word or an
// attribute name's "=" belongs to markup. The closing quote must not run
// into a word or a ">".
func literalNotAttribute(s string, loc []int) bool {
	start, end := loc[0], loc[1]
	if start > 0 {
		switch prev := s[start-1]; {
		case prev == '=':
			if start > 1 && (isWordByte(s[start-2]) || s[start-2] == '-') {
				return false
			}
		case prev == ' ' || prev == '\t' || prev == '\n':
		case strings.IndexByte("([{,:;+>!?|&", prev) >= 0:
		default:
			return false
		}
	}
	if end < len(s) {
		if next := s[end]; next == '>' || (isWordByte(next) && next != ')' && next != ']') {
			return false
		}
	}
	return true
}

// protector swaps code spans for opaque placeholders and back.
type protector struct {
	saved []string
}

func (p *protector) protect(s string) string {
	s = stripPrivateUse(s)
	for _, rule := range protectRules {
		s = p.apply(rule, s)
	}
	return s
}

func (p *protector) apply(rule protectRule, s string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos < len(s) {
		loc := rule.pattern.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		loc[0] += pos
		loc[1] += pos
		if rule.accept != nil && !rule.accept(s, loc) {
			if rule.retry {
				pos = loc[0] + 1
			} else {
				pos = loc[1]
			}
			continue
		}
		if len(p.saved) >= maxPlaceholders {
			break
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(p.hold(s[loc[0]:loc[1]]))
		last, pos = loc[1], loc[1]
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (p *protector) hold(span string) string {
	ph := placeholder(len(p.saved))
	p.saved = append(p.saved, span)
	return ph
}

// restore puts protected spans back, newest first so a span saved around
// an earlier placeholder brings it back before it is replaced. A
// placeholder destroyed by a strip pass loses its span.
func (p *protector) restore(s string) string {
	for i := len(p.saved) - 1; i >= 0; i-- {
		s = strings.Replace(s, placeholder(i), p.saved[i], 1)
	}
	return stripPrivateUse(s)
}

func placeholder(i int) string {
	return string([]rune{placeholderOpen, rune(placeholderBase + i), placeholderClose})
}

func stripPrivateUse(s string) string {
	if !strings.ContainsFunc(s, isPrivateUse) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isPrivateUse(r) {
			return -1
		}
		return r
	}, s)
}

func isPrivateUse(r rune) bool {
	return unicode.In(r, unicode.Co)
}
