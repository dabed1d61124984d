package complete

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsaffron/ghostwrite/internal/llm"
)

// DebounceMsg is posted when the debounce timer expires.
type DebounceMsg struct {
	Seq uint64
}

// ResultMsg carries a finished provider call back to the event loop.
type ResultMsg struct {
	Generation uint64
	Key        CacheKey
	Raw        string
	Err        error
	Elapsed    time.Duration
}

// Notifier shows failures the user has to act on.
type Notifier interface {
	Notify(err *llm.Error)
}

// Poster delivers a message to the event loop. tea.Program.Send fits.
type Poster func(tea.Msg)

// SchedulerConfig holds the scheduler's collaborators.
type SchedulerConfig struct {
	Provider llm.CompletionProvider
	Clock    Clock
	Post     Poster
	Notifier Notifier
	Logger   *slog.Logger
	Debounce time.Duration
	Timeout  time.Duration
}

// Scheduler debounces edits and runs at most one provider call at a time.
// Every method must be called from the event loop; only the timer callback
// and the provider goroutine run elsewhere, and both just post messages.
type Scheduler struct {
	provider llm.CompletionProvider
	clock    Clock
	post     Poster
	notifier Notifier
	logger   *slog.Logger
	debounce time.Duration
	timeout  time.Duration

	timer       Timer
	debounceSeq uint64
	generation  uint64
	inFlight    bool
	abort       context.CancelFunc
}

// NewScheduler creates a scheduler. Clock defaults to SystemClock, Logger to
// slog.Default, Debounce to 350ms and Timeout to 9s.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Post == nil {
		cfg.Post = func(tea.Msg) {}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 350 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 9 * time.Second
	}
	return &Scheduler{
		provider: cfg.Provider,
		clock:    cfg.Clock,
		post:     cfg.Post,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		timeout:  cfg.Timeout,
	}
}

// OnEdit restarts the debounce timer.
func (s *Scheduler) OnEdit() {
	s.stopTimer()
	seq := s.debounceSeq
	post := s.post
	s.timer = s.clock.AfterFunc(s.debounce, func() {
		post(DebounceMsg{Seq: seq})
	})
}

// Due reports whether msg belongs to the most recent OnEdit. A timer that
// fired before being stopped posts a message that is no longer due.
func (s *Scheduler) Due(msg DebounceMsg) bool {
	if msg.Seq != s.debounceSeq || s.timer == nil {
		return false
	}
	s.timer = nil
	return true
}

// Fire starts a provider call for contextText. It returns false without
// doing anything while another call is in flight.
func (s *Scheduler) Fire(contextText string, key CacheKey, model string) bool {
	if s.inFlight || s.provider == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.abort = cancel
	s.inFlight = true

	gen := s.generation
	provider, post, clock := s.provider, s.post, s.clock
	start := clock.Now()
	s.logger.Debug("completion request", "provider", provider.Name(), "model", model, "generation", gen, "context_chars", len(contextText))

	go func() {
		raw, err := provider.Complete(ctx, contextText, model)
		post(ResultMsg{
			Generation: gen,
			Key:        key,
			Raw:        raw,
			Err:        err,
			Elapsed:    clock.Now().Sub(start),
		})
	}()
	return true
}

// Cancel invalidates everything in progress: the pending debounce, the
// current generation and the in-flight call.
func (s *Scheduler) Cancel() {
	s.stopTimer()
	s.generation++
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
}

// Resolve ends the in-flight call described by msg. Stale results are
// reported as such and never surfaced. Failures are classified here:
// authentication and rate-limit errors go to the notifier, timeouts and
// network errors are logged, and malformed responses count as no
// suggestion. The returned error is non-nil for any failure.
func (s *Scheduler) Resolve(msg ResultMsg) (stale bool, err error) {
	s.inFlight = false
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}

	stale = msg.Generation != s.generation
	if msg.Err == nil {
		return stale, nil
	}
	if stale && errors.Is(msg.Err, context.Canceled) {
		return true, msg.Err
	}

	classified := classify(s.providerName(), msg.Err)
	switch classified.Kind {
	case llm.KindAuthentication, llm.KindRateLimit:
		s.logger.Warn("completion failed", "kind", classified.Kind, "error", classified)
		if s.notifier != nil && !stale {
			s.notifier.Notify(classified)
		}
	case llm.KindMalformedResponse:
		s.logger.Debug("malformed completion response", "error", classified)
	default:
		s.logger.Debug("completion failed", "kind", classified.Kind, "error", classified, "elapsed", msg.Elapsed)
	}
	return stale, classified
}

// Generation returns the current generation.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// InFlight reports whether a provider call is running.
func (s *Scheduler) InFlight() bool {
	return s.inFlight
}

// SetProvider swaps the provider used by later calls.
func (s *Scheduler) SetProvider(p llm.CompletionProvider) {
	s.provider = p
}

func (s *Scheduler) providerName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.debounceSeq++
}

func classify(provider string, err error) *llm.Error {
	var classified *llm.Error
	if errors.As(err, &classified) {
		return classified
	}
	return &llm.Error{Kind: llm.Classify(err), Provider: provider, Err: err}
}
