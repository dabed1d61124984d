// Package sanitize turns raw model output into plain text that is safe to
// show as an inline suggestion.
//
// The pipeline is an ordered list of passes. Later passes rely on what
// earlier ones established (entities are decoded only after tags are gone,
// protected code is restored before decoding), so the order is part of the
// contract. A round applies every pass once; rounds repeat until the text
// stops changing, which makes Sanitize idempotent.
package sanitize

// maxRounds bounds the fixed-point loop. Real responses settle in two
// rounds: one to clean, one to confirm.
const maxRounds = 4

type pass struct {
	name string
	fn   func(string) string
	// after names a pass that must have changed the text earlier in the
	// same round for this one to run.
	after string
}

var passes = []pass{
	{"fence", extractFence, ""},
	{"markup", stripMarkup, ""}, // protect, strip, restore
	{"entities", decodeEntities, ""},
	{"emphasis", stripEmphasis, ""},
	{"escapes", stripEscapes, ""},
	{"normalize", normalizeGlyphs, ""},
	{"ascii", restrictASCII, ""},
	{"repair", repair, "markup"}, // only undoes damage done by a strip
	{"prose", stripProse, ""},
}

// Result describes one sanitize run.
type Result struct {
	Text     string
	Changed  []string // passes that modified the text, in pipeline order
	Rounds   int
	Unstable bool // no fixed point was reached; Text is empty
}

// Empty reports whether there is nothing to suggest.
func (r Result) Empty() bool {
	return r.Text == ""
}

// Sanitize cleans raw provider output. An empty result means no suggestion.
func Sanitize(raw string) string {
	return Report(raw).Text
}

// Report runs the pipeline and records which passes did any work.
func Report(raw string) Result {
	changed := make([]bool, len(passes))
	s := raw
	for round := 1; round <= maxRounds; round++ {
		next := s
		inRound := make(map[string]bool, len(passes))
		for i, p := range passes {
			if p.after != "" && !inRound[p.after] {
				continue
			}
			out := p.fn(next)
			if out != next {
				changed[i] = true
				inRound[p.name] = true
			}
			next = out
		}
		if next == s {
			return Result{Text: s, Changed: changedNames(changed), Rounds: round}
		}
		s = next
	}
	return Result{Changed: changedNames(changed), Rounds: maxRounds, Unstable: true}
}

func changedNames(changed []bool) []string {
	var names []string
	for i, c := range changed {
		if c {
			names = append(names, passes[i].name)
		}
	}
	return names
}

// PassNames lists the pipeline passes in order.
func PassNames() []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.name
	}
	return names
}
