// Package editor is a small terminal editor hosting inline completion.
package editor

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsaffron/ghostwrite/internal/buffer"
	"github.com/samsaffron/ghostwrite/internal/complete"
	"github.com/samsaffron/ghostwrite/internal/llm"
	"github.com/samsaffron/ghostwrite/internal/overlay"
)

// ReloadMsg carries a provider rebuilt after the config file changed.
type ReloadMsg struct {
	Provider llm.CompletionProvider
	Model    string
	Err      error
}

// Config holds what the editor needs to start.
type Config struct {
	Path   string
	Buffer *buffer.Buffer
	Styles *overlay.Styles

	// Completion configures the controller. Document and Notifier are
	// filled in by New.
	Completion complete.Options
}

// Model is the editor model
type Model struct {
	// Dimensions
	width  int
	height int

	// Scroll offsets: first visible row and first visible display column
	top  int
	left int

	path     string
	buf      *buffer.Buffer
	ctrl     *complete.Controller
	hl       *overlay.Highlighter
	styles   *overlay.Styles
	keyMap   KeyMap
	help     help.Model
	logger   *slog.Logger
	provider string

	status    string
	statusErr bool
	quitArmed bool
}

// New creates the editor and its completion controller.
func New(cfg Config) *Model {
	if cfg.Buffer == nil {
		cfg.Buffer = buffer.New("")
	}
	if cfg.Styles == nil {
		cfg.Styles = overlay.NewStyles(overlay.NewRenderer(os.Stdout, false), overlay.DefaultTheme())
	}
	logger := cfg.Completion.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Model{
		width:  80,
		height: 24,
		path:   cfg.Path,
		buf:    cfg.Buffer,
		hl:     overlay.NewHighlighter(cfg.Path, cfg.Styles),
		styles: cfg.Styles,
		keyMap: DefaultKeyMap(),
		help:   help.New(),
		logger: logger,
	}
	if cfg.Completion.Provider != nil {
		m.provider = cfg.Completion.Provider.Name()
	}

	opts := cfg.Completion
	opts.Document = m.buf
	opts.Notifier = m
	m.ctrl = complete.NewController(opts)
	return m
}

// Controller exposes the completion controller.
func (m *Model) Controller() *complete.Controller {
	return m.ctrl
}

// Buffer returns the document being edited.
func (m *Model) Buffer() *buffer.Buffer {
	return m.buf
}

// Status returns the status line message and whether it is an error.
func (m *Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Notify shows a provider failure that needs the user's attention.
func (m *Model) Notify(err *llm.Error) {
	switch err.Kind {
	case llm.KindAuthentication:
		m.setError(fmt.Sprintf("%s: authentication failed, check the API key", err.Provider))
	case llm.KindRateLimit:
		msg := fmt.Sprintf("%s: rate limited", err.Provider)
		if err.RetryAfter > 0 {
			msg += fmt.Sprintf(", retry in %s", err.RetryAfter)
		}
		m.setError(msg)
	default:
		m.setError(err.Error())
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.ctrl.Update(msg) {
		return m, nil
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case ReloadMsg:
		m.handleReload(msg)
	}

	m.follow()
	return m, cmd
}

func (m *Model) handleReload(msg ReloadMsg) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", "error", msg.Err)
		m.setError("config reload failed: " + msg.Err.Error())
		return
	}
	m.ctrl.SetProvider(msg.Provider, msg.Model)
	m.provider = msg.Provider.Name()
	m.setStatus("config reloaded")
}

// handleKeyMsg handles keyboard input
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if !key.Matches(msg, m.keyMap.Quit) {
		m.quitArmed = false
	}
	m.status = ""

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.buf.Modified() && !m.quitArmed {
			m.quitArmed = true
			m.setError("unsaved changes, press ctrl+q again to quit")
			return nil
		}
		m.ctrl.Dismiss()
		return tea.Quit

	case key.Matches(msg, m.keyMap.Save):
		m.save()

	case key.Matches(msg, m.keyMap.Accept):
		if !m.ctrl.Accept() {
			m.edit(func() { m.buf.Insert("\t") })
		}

	case key.Matches(msg, m.keyMap.AcceptWord):
		if !m.ctrl.AcceptWord() {
			m.move(buffer.Right)
		}

	case key.Matches(msg, m.keyMap.Dismiss):
		m.ctrl.Dismiss()

	case key.Matches(msg, m.keyMap.Left):
		m.move(buffer.Left)
	case key.Matches(msg, m.keyMap.Right):
		m.move(buffer.Right)
	case key.Matches(msg, m.keyMap.Up):
		m.move(buffer.Up)
	case key.Matches(msg, m.keyMap.Down):
		m.move(buffer.Down)
	case key.Matches(msg, m.keyMap.LineStart):
		m.move(buffer.LineStart)
	case key.Matches(msg, m.keyMap.LineEnd):
		m.move(buffer.LineEnd)

	case key.Matches(msg, m.keyMap.Newline):
		m.edit(m.buf.Newline)

	case key.Matches(msg, m.keyMap.Backspace):
		m.edit(func() { m.buf.Backspace() })

	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		m.edit(func() { m.buf.Insert(string(msg.Runes)) })
	}
	return nil
}

// edit applies fn and tells the controller when the text changed.
func (m *Model) edit(fn func()) {
	before := m.buf.Version()
	fn()
	if m.buf.Version() != before {
		m.ctrl.OnEdit()
	}
}

func (m *Model) move(d buffer.Direction) {
	if m.buf.Move(d) {
		m.ctrl.OnCancel()
	}
}

func (m *Model) save() {
	if m.path == "" {
		m.setError("no file name")
		return
	}
	if err := m.buf.Save(m.path); err != nil {
		m.logger.Warn("save failed", "path", m.path, "error", err)
		m.setError(err.Error())
		return
	}
	m.setStatus(fmt.Sprintf("wrote %s", m.path))
}

// follow scrolls so the cursor stays visible.
func (m *Model) follow() {
	cur := m.buf.Cursor()
	rows := m.textHeight()
	if cur.Row < m.top {
		m.top = cur.Row
	}
	if cur.Row >= m.top+rows {
		m.top = cur.Row - rows + 1
	}

	x := overlay.DisplayColumn(m.buf.Line(cur.Row), cur.Col)
	if x < m.left {
		m.left = x
	}
	if x >= m.left+m.width {
		m.left = x - m.width + 1
	}
}

func (m *Model) textHeight() int {
	return max(1, m.height-1)
}
