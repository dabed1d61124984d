package complete

import (
	"log/slog"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsaffron/ghostwrite/internal/config"
	"github.com/samsaffron/ghostwrite/internal/llm"
	"github.com/samsaffron/ghostwrite/internal/sanitize"
)

// State is the controller's lifecycle state. Accepting or dismissing a
// preview returns the controller to Idle immediately.
type State int

const (
	Idle State = iota
	Pending
	Previewing
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Previewing:
		return "previewing"
	default:
		return "idle"
	}
}

// PreviewState is the suggestion currently shown at the anchor.
type PreviewState struct {
	Text       string
	AnchorRow  int
	AnchorCol  int
	Generation uint64
}

// Outcome is what happened to a suggestion.
type Outcome string

const (
	OutcomeShown     Outcome = "shown"
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDismissed Outcome = "dismissed"
	OutcomeFailed    Outcome = "failed"
)

// Event describes one suggestion outcome.
type Event struct {
	Outcome   Outcome
	Provider  string
	Model     string
	Latency   time.Duration
	Cached    bool
	Chars     int
	ErrorKind string
}

// Recorder receives suggestion outcomes.
type Recorder interface {
	Record(Event)
}

// SanitizeLogger receives the sanitize report for each response.
type SanitizeLogger interface {
	LogSanitize(passes []string, output string)
}

// Options configures a Controller.
type Options struct {
	Document Document
	Provider llm.CompletionProvider
	Model    string

	Clock    Clock
	Post     Poster
	Notifier Notifier
	Recorder Recorder
	Trace    SanitizeLogger
	Logger   *slog.Logger

	Debounce      time.Duration
	Timeout       time.Duration
	Context       ContextOptions
	CacheCapacity int
}

// ApplyConfig copies the completion settings from cfg.
func (o *Options) ApplyConfig(cfg config.CompletionConfig) {
	o.Model = cfg.Model
	o.Debounce = cfg.Debounce()
	o.Timeout = cfg.Timeout()
	o.Context = ContextOptions{MaxLines: cfg.MaxContextLines, MaxChars: cfg.MaxContextChars}
	o.CacheCapacity = cfg.CacheCapacity
}

// Controller drives a suggestion through request, preview and accept or
// dismiss. It is not safe for concurrent use: the host calls it from its
// event loop and feeds it the messages posted by the scheduler.
type Controller struct {
	doc      Document
	sched    *Scheduler
	cache    *Cache
	ctxOpts  ContextOptions
	model    string
	recorder Recorder
	trace    SanitizeLogger
	logger   *slog.Logger

	state     State
	preview   *PreviewState
	anchorRow int
	anchorCol int
	cached    bool
}

// NewController creates a controller and its scheduler.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Context.MaxLines <= 0 || opts.Context.MaxChars <= 0 {
		opts.Context = DefaultContextOptions()
	}
	sched := NewScheduler(SchedulerConfig{
		Provider: opts.Provider,
		Clock:    opts.Clock,
		Post:     opts.Post,
		Notifier: opts.Notifier,
		Logger:   opts.Logger,
		Debounce: opts.Debounce,
		Timeout:  opts.Timeout,
	})
	return &Controller{
		doc:      opts.Document,
		sched:    sched,
		cache:    NewCache(opts.CacheCapacity),
		ctxOpts:  opts.Context,
		model:    opts.Model,
		recorder: opts.Recorder,
		trace:    opts.Trace,
		logger:   opts.Logger,
	}
}

// OnEdit reacts to a document change: whatever was in progress is
// cancelled and the debounce restarts.
func (c *Controller) OnEdit() {
	c.reset(OutcomeDismissed)
	c.sched.OnEdit()
}

// OnCancel reacts to escape, cursor movement or leaving insert mode.
func (c *Controller) OnCancel() {
	c.reset(OutcomeDismissed)
}

// Dismiss discards the visible suggestion. It reports whether there was one.
func (c *Controller) Dismiss() bool {
	_, ok := c.Preview()
	c.reset(OutcomeDismissed)
	return ok
}

// Accept inserts the whole suggestion at the cursor. It reports whether a
// suggestion was applied.
func (c *Controller) Accept() bool {
	p, ok := c.Preview()
	if !ok {
		return false
	}
	c.doc.ApplyText(p.Text)
	c.record(OutcomeAccepted, len(p.Text), "")
	c.reset("")
	return true
}

// AcceptWord inserts the next word of the suggestion and keeps the rest on
// screen, anchored at the new cursor position.
func (c *Controller) AcceptWord() bool {
	p, ok := c.Preview()
	if !ok {
		return false
	}
	word := nextWord(p.Text)
	rest := p.Text[len(word):]
	c.doc.ApplyText(word)
	if rest == "" {
		c.record(OutcomeAccepted, len(p.Text), "")
		c.reset("")
		return true
	}

	c.sched.Cancel()
	snap := c.doc.Snapshot()
	c.preview = &PreviewState{
		Text:       rest,
		AnchorRow:  snap.Row,
		AnchorCol:  snap.Col,
		Generation: c.sched.Generation(),
	}
	c.state = Previewing
	return true
}

// SetModel switches the model used for later requests. Cached suggestions
// came from the old model and are dropped.
func (c *Controller) SetModel(model string) {
	c.model = model
	c.cache.Clear()
	c.reset(OutcomeDismissed)
}

// SetProvider switches provider, with the same effect on the cache as
// SetModel.
func (c *Controller) SetProvider(p llm.CompletionProvider, model string) {
	c.sched.SetProvider(p)
	c.SetModel(model)
}

// Preview returns the suggestion to display. A preview from an older
// generation is dropped rather than returned.
func (c *Controller) Preview() (PreviewState, bool) {
	if c.preview == nil {
		return PreviewState{}, false
	}
	if c.preview.Generation != c.sched.Generation() {
		c.preview = nil
		if c.state == Previewing {
			c.state = Idle
		}
		return PreviewState{}, false
	}
	return *c.preview, true
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Model returns the active model identifier.
func (c *Controller) Model() string {
	return c.model
}

// Update handles scheduler messages. It reports whether msg was one.
func (c *Controller) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case DebounceMsg:
		c.onDebounce(msg)
		return true
	case ResultMsg:
		c.onResult(msg)
		return true
	}
	return false
}

func (c *Controller) onDebounce(msg DebounceMsg) {
	if !c.sched.Due(msg) || c.doc == nil {
		return
	}
	snap := c.doc.Snapshot()
	text := ExtractContext(snap, c.ctxOpts)
	if text == "" {
		return
	}
	key := KeyFor(text)
	c.anchorRow, c.anchorCol = snap.Row, snap.Col

	if rec, ok := c.cache.Get(key); ok {
		c.cached = true
		c.show(rec.Text, 0)
		return
	}
	if c.sched.Fire(text, key, c.model) {
		c.state = Pending
		c.cached = false
		return
	}
	c.logger.Debug("completion trigger dropped", "reason", "in flight")
}

func (c *Controller) onResult(msg ResultMsg) {
	stale, err := c.sched.Resolve(msg)
	if stale {
		c.logger.Debug("stale completion discarded", "generation", msg.Generation, "current", c.sched.Generation())
		return
	}
	if err != nil {
		c.state = Idle
		c.recordLatency(OutcomeFailed, 0, llm.Classify(err).String(), msg.Elapsed)
		return
	}

	report := sanitize.Report(msg.Raw)
	if c.trace != nil {
		c.trace.LogSanitize(report.Changed, report.Text)
	}
	if report.Empty() {
		c.state = Idle
		return
	}
	c.cache.Put(msg.Key, report.Text)
	c.cached = false
	c.show(report.Text, msg.Elapsed)
}

func (c *Controller) show(text string, latency time.Duration) {
	c.preview = &PreviewState{
		Text:       text,
		AnchorRow:  c.anchorRow,
		AnchorCol:  c.anchorCol,
		Generation: c.sched.Generation(),
	}
	c.state = Previewing
	c.recordLatency(OutcomeShown, len(text), "", latency)
}

// reset cancels in-flight work and drops any preview, recording outcome for
// a preview that was still visible.
func (c *Controller) reset(outcome Outcome) {
	if outcome != "" {
		if p, ok := c.Preview(); ok {
			c.record(outcome, len(p.Text), "")
		}
	}
	c.sched.Cancel()
	c.preview = nil
	c.state = Idle
}

func (c *Controller) record(outcome Outcome, chars int, kind string) {
	c.recordLatency(outcome, chars, kind, 0)
}

func (c *Controller) recordLatency(outcome Outcome, chars int, kind string, latency time.Duration) {
	if c.recorder == nil {
		return
	}
	provider := ""
	if c.sched.provider != nil {
		provider = c.sched.provider.Name()
	}
	c.recorder.Record(Event{
		Outcome:   outcome,
		Provider:  provider,
		Model:     c.model,
		Latency:   latency,
		Cached:    c.cached,
		Chars:     chars,
		ErrorKind: kind,
	})
}

// nextWord returns the prefix of s that AcceptWord inserts: leading blanks
// plus one identifier, one run of punctuation, or a single newline.
func nextWord(s string) string {
	rs := []rune(s)
	i := 0
	for i < len(rs) && (rs[i] == ' ' || rs[i] == '\t') {
		i++
	}
	switch {
	case i == len(rs):
	case rs[i] == '\n':
		i++
	case isIdentRune(rs[i]):
		for i < len(rs) && isIdentRune(rs[i]) {
			i++
		}
	default:
		for i < len(rs) && !isIdentRune(rs[i]) && !unicode.IsSpace(rs[i]) {
			i++
		}
	}
	return string(rs[:i])
}
