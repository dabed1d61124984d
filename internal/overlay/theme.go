package overlay

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/samsaffron/ghostwrite/internal/config"
)

// Theme defines the color palette for the editor
type Theme struct {
	Ghost      lipgloss.Color // suggestion text
	Text       lipgloss.Color // plain document text
	Muted      lipgloss.Color // line numbers, hints
	Status     lipgloss.Color // status line
	Error      lipgloss.Color // notifications
	StatusBg   lipgloss.Color
	ChromaName string // chroma style for syntax colours
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	return &Theme{
		Ghost:      lipgloss.Color("#665c54"), // gruvbox bg3
		Text:       lipgloss.Color("#ebdbb2"), // gruvbox foreground
		Muted:      lipgloss.Color("#928374"), // gruvbox gray
		Status:     lipgloss.Color("#83a598"), // gruvbox aqua
		Error:      lipgloss.Color("#fb4934"), // gruvbox red
		StatusBg:   lipgloss.Color("#3c3836"), // gruvbox dark gray
		ChromaName: "monokai",
	}
}

// ThemeFromConfig creates a theme with config overrides applied
func ThemeFromConfig(cfg config.ThemeConfig) *Theme {
	theme := DefaultTheme()
	if cfg.Ghost != "" {
		theme.Ghost = lipgloss.Color(cfg.Ghost)
	}
	if cfg.Status != "" {
		theme.Status = lipgloss.Color(cfg.Status)
	}
	if cfg.Error != "" {
		theme.Error = lipgloss.Color(cfg.Error)
	}
	if cfg.ChromaStyle != "" {
		theme.ChromaName = cfg.ChromaStyle
	}
	return theme
}

// Styles are the lipgloss styles derived from a theme for one renderer.
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Ghost      lipgloss.Style
	Text       lipgloss.Style
	Cursor     lipgloss.Style
	LineNumber lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
}

// NewRenderer returns a lipgloss renderer for w. Plain renderers emit no
// escape sequences at all.
func NewRenderer(w io.Writer, plain bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// NewStyles creates styles with a specific theme
func NewStyles(r *lipgloss.Renderer, theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		renderer: r,
		theme:    theme,

		Ghost: r.NewStyle().
			Foreground(theme.Ghost).
			Italic(true),

		Text: r.NewStyle().
			Foreground(theme.Text),

		Cursor: r.NewStyle().
			Reverse(true),

		LineNumber: r.NewStyle().
			Foreground(theme.Muted),

		Status: r.NewStyle().
			Foreground(theme.Status).
			Background(theme.StatusBg),

		Error: r.NewStyle().
			Foreground(theme.Error).
			Background(theme.StatusBg).
			Bold(true),
	}
}

// Renderer returns the renderer the styles were built for.
func (s *Styles) Renderer() *lipgloss.Renderer {
	return s.renderer
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
