package sanitize

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	fenceLine   = regexp.MustCompile("(?m)^[ \t]*```+[^`\n]*(?:\n|$)")
	fenceMarker = regexp.MustCompile("```+")
)

// extractFence returns the body of the first fenced code block when the text
// has one, and strips any fence markers that are left over.
func extractFence(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	if code, ok := firstFencedBlock(s); ok {
		s = code
	}
	s = fenceLine.ReplaceAllString(s, "")
	return fenceMarker.ReplaceAllString(s, "")
}

func firstFencedBlock(s string) (string, bool) {
	src := []byte(s)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var body strings.Builder
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		found = true
		return ast.WalkStop, nil
	})
	return body.String(), found
}
