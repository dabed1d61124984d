package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// markupTags is the vocabulary of tags models and highlighters leak into
// their output. Anything else in angle brackets is treated as code.
var markupTags = map[string]bool{
	"a": true, "b": true, "blockquote": true, "br": true, "code": true,
	"del": true, "div": true, "em": true, "font": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "i": true, "kbd": true, "li": true, "mark": true,
	"ol": true, "p": true, "pre": true, "s": true, "samp": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"table": true, "tbody": true, "td": true, "th": true, "thead": true,
	"tr": true, "tt": true, "u": true, "ul": true,
}

const tagNames = `(?:a|b|blockquote|br|code|del|div|em|font|h[1-6]|hr|i|kbd|li|mark|ol|p|pre|s|samp|small|span|strong|sub|sup|table|tbody|td|th|thead|tr|tt|u|ul)`

// Attribute text may not run through a placeholder.
const attrText = `[^<>\n\x{E000}-\x{F8FF}]*`

var (
	// <span class="x">, </span>, <br/>
	fullTag = regexp.MustCompile(`</?` + tagNames + `(?:[ \t]+` + attrText + `)?/?>`)
	// <span class="x" with the closing bracket lost
	openNoClose = regexp.MustCompile(`<` + tagNames + `(?:[ \t]+[A-Za-z][\w:-]*="[^"\n]*")+[ \t]*`)
	// span class="x"> with the opening bracket lost
	openNoStart = regexp.MustCompile(`\b` + tagNames + `(?:[ \t]+[A-Za-z][\w:-]*="[^"\n]*")+[ \t]*/?>`)
	// </span with the closing bracket lost
	closeNoEnd = regexp.MustCompile(`</` + tagNames + `\b`)
	// /span> with the opening bracket lost
	closeNoStart = regexp.MustCompile(`/` + tagNames + `>`)

	// class="hljs-keyword"> and similar highlighter attributes
	highlightAttr = regexp.MustCompile(`[ \t]*\b(?:class|className)="(?:hljs|token|language-|lang-|chroma|pl-|tok-|cm-)[^"\n]*"[ \t]*>?`)
	colourAttr    = regexp.MustCompile(`[ \t]*\bstyle="[^"\n]*(?:color|background|font-)[^"\n]*"[ \t]*>?`)
	// hljs-keyword"> once the attribute name is gone
	highlightClass = regexp.MustCompile(`"?\b(?:hljs|token)(?:[ -][\w-]+)*">`)

	entity = regexp.MustCompile(`&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`)
)

// stripMarkup removes leaked HTML while leaving code that uses angle
// brackets intact.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>\"/") {
		return s
	}
	var p protector
	s = p.protect(s)
	s = fullTag.ReplaceAllString(s, "")
	s = openNoClose.ReplaceAllString(s, "")
	s = openNoStart.ReplaceAllString(s, "")
	s = closeNoEnd.ReplaceAllString(s, "")
	s = removeCloseFragments(s)
	s = highlightAttr.ReplaceAllString(s, "")
	s = colourAttr.ReplaceAllString(s, "")
	s = highlightClass.ReplaceAllString(s, "")
	return p.restore(s)
}

// removeCloseFragments drops "/span>" style fragments unless they follow a
// word character, as in "a/b>c".
func removeCloseFragments(s string) string {
	locs := closeNoStart.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] > 0 && isWordByte(s[loc[0]-1]) {
			continue
		}
		b.WriteString(s[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || c == ')' || c == ']' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// decodeEntities decodes semicolon-terminated HTML entities. Bare
// ampersands are code ("a && b", "&x") and stay as they are.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entity.ReplaceAllStringFunc(s, decodeEntity)
}

// decodeEntity leaves unknown names alone. UnescapeString would turn
// "&amplitude;" into "&litude;" by matching the "amp" prefix.
func decodeEntity(m string) string {
	d := html.UnescapeString(m)
	if len(d) > 1 && strings.HasSuffix(d, ";") {
		return m
	}
	return d
}
