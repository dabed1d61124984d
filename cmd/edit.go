package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/samsaffron/ghostwrite/internal/buffer"
	"github.com/samsaffron/ghostwrite/internal/complete"
	"github.com/samsaffron/ghostwrite/internal/config"
	"github.com/samsaffron/ghostwrite/internal/editor"
	"github.com/samsaffron/ghostwrite/internal/llm"
	"github.com/samsaffron/ghostwrite/internal/overlay"
	"github.com/samsaffron/ghostwrite/internal/stats"
)

var (
	editProvider string
	editModel    string
	editPlain    bool
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit a file with inline AI suggestions",
	Long: `Open a file in a minimal editor that suggests completions as ghost text.

Keys:
  tab         accept the suggestion (inserts a tab when there is none)
  ctrl+right  accept the next word of the suggestion
  esc         dismiss the suggestion
  ctrl+s      save
  ctrl+q      quit

Examples:
  ghostwrite edit main.go
  ghostwrite edit main.go -p ollama:qwen2.5-coder:7b
  ghostwrite edit notes.md -p debug          # offline, canned suggestions`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
	AddProviderFlag(editCmd, &editProvider)
	AddModelFlag(editCmd, &editModel)
	editCmd.Flags().BoolVar(&editPlain, "plain", false, "Render without colors")
}

func runEdit(cmd *cobra.Command, args []string) error {
	logPath, err := editorLogPath()
	if err != nil {
		return err
	}
	if err := setupLogging(logPath, os.Stderr); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyProviderFlags(cfg, editProvider, editModel); err != nil {
		return err
	}

	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	trace, err := openTrace(cfg.Debug)
	if err != nil {
		slog.Warn("trace log disabled", "error", err)
	}
	defer trace.Close()
	provider = llm.WrapWithTrace(provider, trace)

	store, err := stats.NewStore(cfg.Stats)
	if err != nil {
		slog.Warn("stats disabled", "error", err)
		store = &stats.NoopStore{}
	}
	defer store.Close()

	path := args[0]
	buf, err := buffer.Load(path)
	if err != nil {
		return err
	}

	// The program does not exist yet when the controller is built; post
	// closes over the variable and is only called once the loop runs.
	var prog *tea.Program
	post := func(msg tea.Msg) { prog.Send(msg) }

	opts := complete.Options{
		Provider: provider,
		Post:     post,
		Recorder: store,
		Logger:   slog.Default(),
	}
	opts.ApplyConfig(cfg.Completion)
	opts.Model = cfg.ActiveModel()
	if trace != nil {
		opts.Trace = trace
	}

	styles := overlay.NewStyles(overlay.NewRenderer(os.Stdout, editPlain), overlay.ThemeFromConfig(cfg.Theme))
	m := editor.New(editor.Config{
		Path:       path,
		Buffer:     buf,
		Styles:     styles,
		Completion: opts,
	})
	prog = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	config.Watch(func(next *config.Config, err error) {
		if err != nil {
			prog.Send(editor.ReloadMsg{Err: err})
			return
		}
		if err := applyProviderFlags(next, editProvider, editModel); err != nil {
			prog.Send(editor.ReloadMsg{Err: err})
			return
		}
		p, err := llm.NewProvider(next)
		if err != nil {
			prog.Send(editor.ReloadMsg{Err: err})
			return
		}
		prog.Send(editor.ReloadMsg{Provider: llm.WrapWithTrace(p, trace), Model: next.ActiveModel()})
	})

	_, err = prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
		slog.Info("editor stopped by signal", "path", path)
		return nil
	}
	return err
}

// openTrace starts a JSONL trace when a trace directory is configured.
func openTrace(cfg config.DebugConfig) (*llm.TraceLogger, error) {
	if cfg.TraceDir == "" {
		return nil, nil
	}
	sessionID := time.Now().Format("20060102-150405") + "-" + strconv.Itoa(os.Getpid())
	return llm.NewTraceLogger(filepath.Clean(cfg.TraceDir), sessionID)
}
