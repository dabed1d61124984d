package sanitize

import (
	"slices"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "highlighter spans",
			raw:  `<span class="hljs-function">function</span> <span class="hljs-title">greet</span>(name) { }`,
			want: "function greet(name) { }",
		},
		{
			name: "keyword span",
			raw:  `<span class="hljs-keyword">function</span> foo()`,
			want: "function foo()",
		},
		{
			name: "include directive",
			raw:  "#include <iostream>",
			want: "#include <iostream>",
		},
		{
			name: "control flow comparison",
			raw:  "if (a < b && c > d) {",
			want: "if (a < b && c > d) {",
		},
		{
			name: "generic type",
			raw:  "List<T> items",
			want: "List<T> items",
		},
		{
			name: "template argument",
			raw:  "std::vector<int> v;",
			want: "std::vector<int> v;",
		},
		{
			name: "comparison with tag-named operand",
			raw:  "a < b > c",
			want: "a < b > c",
		},
		{
			name: "stream chain keeps markup in string",
			raw:  `std::cout << "<b>hi</b>" << std::endl;`,
			want: `std::cout << "<b>hi</b>" << std::endl;`,
		},
		{
			name: "code element around stream",
			raw:  "<code>std::cout << value << std::endl;</code>",
			want: "std::cout << value << std::endl;",
		},
		{
			name: "fenced block with prose",
			raw:  "Here is the completion:\n```go\nfmt.Println(\"hi\")\n```\nThis prints hi.",
			want: `fmt.Println("hi")`,
		},
		{
			name: "unterminated fence",
			raw:  "```python\nreturn x",
			want: "return x",
		},
		{
			name: "entities",
			raw:  "if (a &lt; b &amp;&amp; c &gt; d) {",
			want: "if (a < b && c > d) {",
		},
		{
			name: "numeric entities",
			raw:  "x &#61; &#x27;y&#x27;",
			want: "x = 'y'",
		},
		{
			name: "unknown entity untouched",
			raw:  "a &amplitude; b",
			want: "a &amplitude; b",
		},
		{
			name: "bare ampersands",
			raw:  "ok := a && b & mask",
			want: "ok := a && b & mask",
		},
		{
			name: "ansi colour",
			raw:  "\x1b[31mreturn x\x1b[0m",
			want: "return x",
		},
		{
			name: "smart quotes",
			raw:  "fmt.Println(“hi”)",
			want: `fmt.Println("hi")`,
		},
		{
			name: "box drawing",
			raw:  "// ┌──┐\n// └──┘",
			want: "// +--+\n// +--+",
		},
		{
			name: "diacritics folded",
			raw:  `name := "café"`,
			want: `name := "cafe"`,
		},
		{
			name: "emoji dropped",
			raw:  "x := 1 // done ✅",
			want: "x := 1 // done",
		},
		{
			name: "bold word",
			raw:  "**return** x",
			want: "return x",
		},
		{
			name: "power operator kept",
			raw:  "y = 2**x**2",
			want: "y = 2**x**2",
		},
		{
			name: "heading marker",
			raw:  "### Solution\nx := 1",
			want: "Solution\nx := 1",
		},
		{
			name: "prose around code",
			raw:  "Sure! Here's the code:\nreturn a + b\nThis adds the numbers.",
			want: "return a + b",
		},
		{
			name: "prose only",
			raw:  "Sure, here you go.",
			want: "",
		},
		{
			name: "code that opens like prose",
			raw:  "sure(x);",
			want: "sure(x);",
		},
		{
			name: "blank lines collapsed",
			raw:  "a\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "lost hash",
			raw:  "<b>include <stdio.h></b>",
			want: "#include <stdio.h>",
		},
		{
			name: "lost include brackets",
			raw:  `<span class="hljs-meta">#include iostream</span>`,
			want: "#include <iostream>",
		},
		{
			name: "lost insertion operators",
			raw:  `<span class="hljs-built_in">cout</span> "hi" endl;`,
			want: `cout << "hi" << endl;`,
		},
		{
			name: "no repair without stripped markup",
			raw:  "include <stdio.h>",
			want: "include <stdio.h>",
		},
		{
			name: "php include",
			raw:  `include "config.php";`,
			want: `include "config.php";`,
		},
		{
			name: "php include after stripped markup",
			raw:  `<span class="hljs-keyword">include</span> "config.php";`,
			want: `include "config.php";`,
		},
		{
			name: "cout in a comment",
			raw:  "<b>flush()</b>; // send the value to cout and flush",
			want: "flush(); // send the value to cout and flush",
		},
		{
			name: "decoded markup in a string literal",
			raw:  `html := "&lt;b&gt;bold&lt;/b&gt;"`,
			want: `html := "<b>bold</b>"`,
		},
		{
			name: "markup in a highlighted string literal",
			raw:  `<span class="hljs-keyword">return</span> <span class="hljs-string">"<b>hi</b>"</span>`,
			want: `return "<b>hi</b>"`,
		},
		{
			name: "markup in a char literal",
			raw:  "if c == '<' || c == '>' {",
			want: "if c == '<' || c == '>' {",
		},
		{
			// The decoded quotes end the literal early, so the tag is
			// indistinguishable from leaked markup.
			name: "decoded markup with inner quotes",
			raw:  `s = "&lt;span class=&quot;x&quot;&gt;"`,
			want: `s = ""`,
		},
		{
			// Known loss: JSX elements share the markup vocabulary.
			name: "jsx elements are stripped",
			raw:  `return <div className="app">{x}</div>;`,
			want: "return {x};",
		},
		{
			name: "object literal opening with ok",
			raw:  "ok: true,\n  data: d,\n}",
			want: "ok: true,\n  data: d,\n}",
		},
		{
			name: "okay lead-in",
			raw:  "Okay, here's the completion:\nx := 1",
			want: "x := 1",
		},
		{
			name: "go import untouched",
			raw:  `import "fmt"`,
			want: `import "fmt"`,
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
		{
			name: "whitespace only",
			raw:  "  \n\t\n ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.raw); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	corpus := []string{
		`<span class="hljs-keyword">return</span> <span class="hljs-literal">nil</span>`,
		"Here is the completion:\n```go\nfmt.Println(“hello”)\n```",
		"if (a &lt; b &amp;&amp; c &gt; d) {\n    swap(a, b);\n}",
		"\x1b[32mfor i := 0; i < n; i++ {\x1b[0m\n\ttotal += i\n}",
		"<code>std::cout << value << std::endl;</code>",
		"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;",
		"span class=\"hljs-string\">\"x\"</span",
		"hljs-keyword\">const</span> y = 2;",
		"a<b>c</b>d",
		"<<<>>> << >> <> </>",
		"x = y ≤ z → w",
		"```\n```",
		"**\n**",
		"### ### ###",
		"Note: this is it",
		"\uF8F0\uE000\uF8F1 < b",
		"template <typename T>\nstruct Box { T v; };",
		"while (i <= n && <b>done</b>) i++;",
		`html := "&lt;b&gt;bold&lt;/b&gt;"`,
		`s = "&lt;span class=&quot;x&quot;&gt;"`,
		`<span class="hljs-keyword">return</span> "<b>"`,
		`x := "a" + <b>"<i>"</b>`,
	}

	for _, raw := range corpus {
		once := Sanitize(raw)
		if twice := Sanitize(once); twice != once {
			t.Errorf("not idempotent for %q:\n once  = %q\n twice = %q", raw, once, twice)
		}
	}
}

func TestReport(t *testing.T) {
	r := Report(`<span class="hljs-keyword">return</span> &lt;nil&gt;`)
	if r.Text != "return <nil>" {
		t.Fatalf("Text = %q", r.Text)
	}
	for _, name := range []string{"markup", "entities"} {
		if !slices.Contains(r.Changed, name) {
			t.Errorf("Changed = %v, missing %q", r.Changed, name)
		}
	}
	if slices.Contains(r.Changed, "fence") {
		t.Errorf("Changed = %v, fence pass should not report a change", r.Changed)
	}
	if r.Unstable {
		t.Error("Unstable = true")
	}
	if r.Empty() {
		t.Error("Empty() = true")
	}
}

func TestReportRepairNeedsStrippedMarkup(t *testing.T) {
	for _, raw := range []string{`include "config.php";`, "x := 1 // send the value to cout and flush"} {
		r := Report(raw)
		if r.Text != raw || slices.Contains(r.Changed, "repair") {
			t.Errorf("Report(%q) = %q, changed %v", raw, r.Text, r.Changed)
		}
	}

	r := Report(`<span class="hljs-meta">#include iostream</span>`)
	if !slices.Contains(r.Changed, "repair") {
		t.Errorf("Changed = %v, want repair after a strip", r.Changed)
	}
}

func TestReportDecodedLiteralSettles(t *testing.T) {
	r := Report(`html := "&lt;b&gt;bold&lt;/b&gt;"`)
	if r.Text != `html := "<b>bold</b>"` || r.Rounds != 2 {
		t.Errorf("Text = %q after %d rounds", r.Text, r.Rounds)
	}
}

func TestReportCleanInputOneRound(t *testing.T) {
	r := Report("return a + b")
	if r.Rounds != 1 || len(r.Changed) != 0 {
		t.Errorf("Rounds = %d, Changed = %v", r.Rounds, r.Changed)
	}
}

func TestSplitComment(t *testing.T) {
	tests := []struct {
		line, code, comment string
	}{
		{"cout x; // to cout", "cout x; ", "// to cout"},
		{"cout \"#\" endl; # done", "cout \"#\" endl; ", "# done"},
		{`cout "a//b" endl;`, `cout "a//b" endl;`, ""},
		{`cout '\'' x`, `cout '\'' x`, ""},
	}
	for _, tt := range tests {
		code, comment := splitComment(tt.line)
		if code != tt.code || comment != tt.comment {
			t.Errorf("splitComment(%q) = %q, %q", tt.line, code, comment)
		}
	}
}

func TestPassNames(t *testing.T) {
	names := PassNames()
	if names[0] != "fence" || names[len(names)-1] != "prose" {
		t.Errorf("PassNames() = %v", names)
	}
}
