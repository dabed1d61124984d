package complete

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/ghostwrite/internal/llm"
)

const testDebounce = 300 * time.Millisecond

func TestControllerDebounceScenario(t *testing.T) {
	p := &mockProvider{response: "x = 1;"}
	h := newHarness(t, p, "", testDebounce)

	h.edit("co")
	h.clock.Advance(50 * time.Millisecond)
	h.edit("ns")
	h.clock.Advance(50 * time.Millisecond)
	h.edit("t ")

	h.clock.Advance(testDebounce - time.Millisecond)
	if n := h.drain(); n != 0 {
		t.Fatalf("%d messages before the debounce elapsed", n)
	}
	if p.callCount() != 0 {
		t.Fatal("provider called before the debounce elapsed")
	}

	h.clock.Advance(time.Millisecond)
	h.drain()
	if h.ctrl.State() != Pending {
		t.Fatalf("State() = %v, want pending", h.ctrl.State())
	}
	h.await(t)

	if p.callCount() != 1 {
		t.Fatalf("provider called %d times, want 1", p.callCount())
	}
	if got := p.lastCall(); !strings.HasSuffix(got, "const ") {
		t.Errorf("context = %q, want it to end with %q", got, "const ")
	}
	preview, ok := h.ctrl.Preview()
	if !ok || preview.Text != "x = 1;" {
		t.Fatalf("Preview() = %+v, %v", preview, ok)
	}
	if preview.AnchorRow != 0 || preview.AnchorCol != 6 {
		t.Errorf("anchor = %d:%d, want 0:6", preview.AnchorRow, preview.AnchorCol)
	}
	if h.ctrl.State() != Previewing {
		t.Errorf("State() = %v, want previewing", h.ctrl.State())
	}
}

func TestControllerCursorMoveCancelsPreview(t *testing.T) {
	p := &mockProvider{response: "fmt.Println(x)"}
	h := newHarness(t, p, "func main() {\n\t", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)
	if _, ok := h.ctrl.Preview(); !ok {
		t.Fatal("expected a preview")
	}
	before := h.doc.Text()

	// Left arrow.
	h.doc.col--
	h.ctrl.OnCancel()

	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v, want idle", h.ctrl.State())
	}
	if _, ok := h.ctrl.Preview(); ok {
		t.Error("Preview() should report none after a cursor move")
	}
	if h.doc.Text() != before {
		t.Errorf("document changed: %q", h.doc.Text())
	}
}

func TestControllerSanitizesResponse(t *testing.T) {
	p := &mockProvider{response: `<span class="hljs-function">function</span> <span class="hljs-title">greet</span>(name) { }`}
	h := newHarness(t, p, "", testDebounce)
	trace := &traceRecorder{}
	h.ctrl.trace = trace

	h.edit("export ")
	h.suggest(t, testDebounce)

	preview, ok := h.ctrl.Preview()
	if !ok || preview.Text != "function greet(name) { }" {
		t.Fatalf("Preview() = %+v, %v", preview, ok)
	}
	if len(trace.passes) != 1 || !slices.Contains(trace.passes[0], "markup") {
		t.Errorf("trace = %v", trace.passes)
	}
}

func TestControllerDiscardsStaleResult(t *testing.T) {
	release := make(chan struct{})
	p := &mockProvider{response: "late", release: release}
	h := newHarness(t, p, "x", testDebounce)

	h.edit(" =")
	h.clock.Advance(testDebounce)
	h.drain()
	if h.ctrl.State() != Pending {
		t.Fatalf("State() = %v, want pending", h.ctrl.State())
	}

	h.ctrl.OnCancel()
	close(release)
	h.await(t)

	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v, want idle", h.ctrl.State())
	}
	if _, ok := h.ctrl.Preview(); ok {
		t.Error("stale result must not produce a preview")
	}
	if h.ctrl.cache.Len() != 0 {
		t.Error("stale result must not be cached")
	}
}

func TestControllerDropsTriggerWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	p := &mockProvider{response: "y", release: release}
	h := newHarness(t, p, "", testDebounce)

	h.edit("a")
	h.clock.Advance(testDebounce)
	h.drain()

	// The first call ignores cancellation and is still running.
	h.edit("b")
	h.clock.Advance(testDebounce)
	h.drain()
	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v, want idle after a dropped trigger", h.ctrl.State())
	}

	close(release)
	h.await(t)
	if p.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", p.callCount())
	}
	if _, ok := h.ctrl.Preview(); ok {
		t.Error("result of the first call is stale")
	}
}

func TestControllerCacheHit(t *testing.T) {
	p := &mockProvider{response: "return nil"}
	h := newHarness(t, p, "func f() error {\n\t", testDebounce)

	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)
	h.ctrl.OnCancel()

	h.ctrl.OnEdit()
	h.clock.Advance(testDebounce)
	h.drain()

	if p.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", p.callCount())
	}
	if preview, ok := h.ctrl.Preview(); !ok || preview.Text != "return nil" {
		t.Errorf("Preview() = %+v, %v", preview, ok)
	}
	want := []Outcome{OutcomeShown, OutcomeDismissed, OutcomeShown}
	if got := h.events.outcomes(); !slices.Equal(got, want) {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
	if !h.events.events[2].Cached {
		t.Error("second preview should be marked cached")
	}
}

func TestControllerAccept(t *testing.T) {
	p := &mockProvider{response: "x = 1;"}
	h := newHarness(t, p, "const ", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)

	if !h.ctrl.Accept() {
		t.Fatal("Accept() = false")
	}
	if got := h.doc.Text(); got != "const x = 1;" {
		t.Errorf("document = %q", got)
	}
	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v", h.ctrl.State())
	}
	if h.ctrl.Accept() {
		t.Error("second Accept() should have nothing to apply")
	}
	want := []Outcome{OutcomeShown, OutcomeAccepted}
	if got := h.events.outcomes(); !slices.Equal(got, want) {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
}

func TestControllerAcceptMultiline(t *testing.T) {
	p := &mockProvider{response: "if err != nil {\n\treturn err\n}"}
	h := newHarness(t, p, "\t", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)

	h.ctrl.Accept()
	if got := h.doc.Text(); got != "\tif err != nil {\n\treturn err\n}" {
		t.Errorf("document = %q", got)
	}
	if h.doc.row != 2 || h.doc.col != 1 {
		t.Errorf("cursor = %d:%d, want 2:1", h.doc.row, h.doc.col)
	}
}

func TestControllerAcceptWord(t *testing.T) {
	p := &mockProvider{response: "foo(bar)"}
	h := newHarness(t, p, "const ", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)

	if !h.ctrl.AcceptWord() {
		t.Fatal("AcceptWord() = false")
	}
	if got := h.doc.Text(); got != "const foo" {
		t.Errorf("document = %q", got)
	}
	preview, ok := h.ctrl.Preview()
	if !ok || preview.Text != "(bar)" || preview.AnchorCol != 9 {
		t.Fatalf("Preview() = %+v, %v", preview, ok)
	}

	h.ctrl.Accept()
	if got := h.doc.Text(); got != "const foo(bar)" {
		t.Errorf("document = %q", got)
	}
	want := []Outcome{OutcomeShown, OutcomeAccepted}
	if got := h.events.outcomes(); !slices.Equal(got, want) {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
}

func TestControllerDismiss(t *testing.T) {
	p := &mockProvider{response: "x"}
	h := newHarness(t, p, "y = ", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)

	if !h.ctrl.Dismiss() {
		t.Error("Dismiss() = false with a preview showing")
	}
	if h.ctrl.Dismiss() {
		t.Error("Dismiss() = true with nothing showing")
	}
	if h.doc.Text() != "y = " {
		t.Errorf("document = %q", h.doc.Text())
	}
}

func TestControllerFailure(t *testing.T) {
	p := &mockProvider{err: &llm.Error{Kind: llm.KindAuthentication, Provider: "mock"}}
	h := newHarness(t, p, "a", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)

	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v", h.ctrl.State())
	}
	if len(h.notes.errs) != 1 {
		t.Errorf("notified %d times, want 1", len(h.notes.errs))
	}
	if got := h.events.outcomes(); !slices.Equal(got, []Outcome{OutcomeFailed}) {
		t.Errorf("outcomes = %v", got)
	}
	if h.events.events[0].ErrorKind != "authentication" {
		t.Errorf("ErrorKind = %q", h.events.events[0].ErrorKind)
	}
}

func TestControllerEmptySuggestion(t *testing.T) {
	p := &mockProvider{response: "Sure, here you go."}
	h := newHarness(t, p, "a", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)

	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v", h.ctrl.State())
	}
	if _, ok := h.ctrl.Preview(); ok {
		t.Error("empty sanitize output should not preview")
	}
	if h.ctrl.cache.Len() != 0 {
		t.Error("empty suggestions are not cached")
	}
}

func TestControllerSetModelClearsCache(t *testing.T) {
	p := &mockProvider{response: "z"}
	h := newHarness(t, p, "q", testDebounce)
	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)
	if h.ctrl.cache.Len() != 1 {
		t.Fatalf("cache Len() = %d", h.ctrl.cache.Len())
	}

	h.ctrl.SetModel("other")
	if h.ctrl.cache.Len() != 0 {
		t.Error("SetModel should clear the cache")
	}
	if h.ctrl.State() != Idle {
		t.Errorf("State() = %v", h.ctrl.State())
	}

	h.ctrl.OnEdit()
	h.suggest(t, testDebounce)
	if p.callCount() != 2 {
		t.Fatalf("provider called %d times, want 2", p.callCount())
	}
	if p.models[1] != "other" {
		t.Errorf("model = %q, want other", p.models[1])
	}
}

func TestControllerIgnoresOtherMessages(t *testing.T) {
	h := newHarness(t, &mockProvider{}, "", testDebounce)
	if h.ctrl.Update("tick") {
		t.Error("Update should ignore unrelated messages")
	}
}

func TestNextWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo(bar)", "foo"},
		{"(bar)", "("},
		{"  := 1", "  :="},
		{"\n\treturn", "\n"},
		{"x", "x"},
		{"   ", "   "},
		{"", ""},
	}
	for _, tt := range tests {
		if got := nextWord(tt.in); got != tt.want {
			t.Errorf("nextWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type traceRecorder struct {
	passes [][]string
}

func (r *traceRecorder) LogSanitize(passes []string, output string) {
	r.passes = append(r.passes, passes)
}
