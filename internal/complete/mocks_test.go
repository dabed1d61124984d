package complete

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsaffron/ghostwrite/internal/llm"
)

// mockClock implements Clock for testing
type mockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *mockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{fireTime: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward and runs every timer that became due.
func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var toFire []*mockTimer
	for _, t := range c.timers {
		if !t.fireTime.After(c.now) {
			toFire = append(toFire, t)
		}
	}
	c.mu.Unlock()

	for _, t := range toFire {
		t.fire()
	}
}

type mockTimer struct {
	mu       sync.Mutex
	fireTime time.Time
	f        func()
	stopped  bool
}

func (t *mockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (t *mockTimer) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	f := t.f
	t.mu.Unlock()
	if f != nil {
		f()
	}
}

// mockProvider records requests and returns a fixed response. With a
// release channel it blocks until released; with honourCtx it also returns
// when the request context ends.
type mockProvider struct {
	mu        sync.Mutex
	calls     []string
	models    []string
	response  string
	err       error
	release   chan struct{}
	honourCtx bool
}

func (p *mockProvider) Name() string { return "mock" }

func (p *mockProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, contextText)
	p.models = append(p.models, modelID)
	resp, err, release, honour := p.response, p.err, p.release, p.honourCtx
	p.mu.Unlock()

	if release != nil {
		if honour {
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		} else {
			<-release
		}
	} else if honour {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return resp, err
}

func (p *mockProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *mockProvider) lastCall() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return ""
	}
	return p.calls[len(p.calls)-1]
}

// memDocument is a single-cursor line buffer.
type memDocument struct {
	lines []string
	row   int
	col   int
}

func newMemDocument(text string) *memDocument {
	d := &memDocument{lines: strings.Split(text, "\n")}
	d.row = len(d.lines) - 1
	d.col = len([]rune(d.lines[d.row]))
	return d
}

func (d *memDocument) Snapshot() Snapshot {
	return Snapshot{Lines: append([]string(nil), d.lines...), Row: d.row, Col: d.col}
}

func (d *memDocument) ApplyText(text string) {
	line := []rune(d.lines[d.row])
	before, after := string(line[:d.col]), string(line[d.col:])
	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		d.lines[d.row] = before + text + after
		d.col += len([]rune(text))
		return
	}
	newLines := make([]string, 0, len(parts))
	newLines = append(newLines, before+parts[0])
	newLines = append(newLines, parts[1:len(parts)-1]...)
	last := parts[len(parts)-1]
	newLines = append(newLines, last+after)

	lines := append([]string(nil), d.lines[:d.row]...)
	lines = append(lines, newLines...)
	lines = append(lines, d.lines[d.row+1:]...)
	d.lines = lines
	d.row += len(parts) - 1
	d.col = len([]rune(last))
}

func (d *memDocument) typeText(text string) {
	d.ApplyText(text)
}

func (d *memDocument) Text() string {
	return strings.Join(d.lines, "\n")
}

type notifyRecorder struct {
	errs []*llm.Error
}

func (n *notifyRecorder) Notify(err *llm.Error) {
	n.errs = append(n.errs, err)
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) Record(e Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) outcomes() []Outcome {
	out := make([]Outcome, len(r.events))
	for i, e := range r.events {
		out[i] = e.Outcome
	}
	return out
}

// harness wires a controller to mocks and plays the event loop.
type harness struct {
	clock    *mockClock
	provider *mockProvider
	doc      *memDocument
	notes    *notifyRecorder
	events   *eventRecorder
	msgs     chan tea.Msg
	ctrl     *Controller
}

func newHarness(t *testing.T, provider *mockProvider, text string, debounce time.Duration) *harness {
	t.Helper()
	h := &harness{
		clock:    newMockClock(),
		provider: provider,
		doc:      newMemDocument(text),
		notes:    &notifyRecorder{},
		events:   &eventRecorder{},
		msgs:     make(chan tea.Msg, 64),
	}
	h.ctrl = NewController(Options{
		Document: h.doc,
		Provider: provider,
		Model:    "test-model",
		Clock:    h.clock,
		Post:     func(msg tea.Msg) { h.msgs <- msg },
		Notifier: h.notes,
		Recorder: h.events,
		Debounce: debounce,
		Timeout:  5 * time.Second,
	})
	return h
}

// drain delivers every queued message without waiting.
func (h *harness) drain() int {
	n := 0
	for {
		select {
		case msg := <-h.msgs:
			h.ctrl.Update(msg)
			n++
		default:
			return n
		}
	}
}

// await blocks until the next message arrives and delivers it.
func (h *harness) await(t *testing.T) tea.Msg {
	t.Helper()
	select {
	case msg := <-h.msgs:
		h.ctrl.Update(msg)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

// edit types text and notifies the controller.
func (h *harness) edit(text string) {
	h.doc.typeText(text)
	h.ctrl.OnEdit()
}

// suggest drives one full request and waits for its result.
func (h *harness) suggest(t *testing.T, debounce time.Duration) {
	t.Helper()
	h.clock.Advance(debounce)
	if h.drain() == 0 {
		t.Fatal("debounce did not fire")
	}
	if h.ctrl.State() == Pending {
		h.await(t)
	}
}
