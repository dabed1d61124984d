package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samsaffron/ghostwrite/internal/config"
	"github.com/samsaffron/ghostwrite/internal/signal"
)

// Version is set at build time.
var Version = "dev"

var (
	debugMode bool
	logFile   string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Log debug information")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

var rootCmd = &cobra.Command{
	Use:   "ghostwrite",
	Short: "Inline AI completion in a terminal editor",
	Long: `ghostwrite shows AI code suggestions as ghost text while you type.

Examples:
  ghostwrite edit main.go                  # edit with inline suggestions
  ghostwrite edit main.go -p openai        # use another provider
  pbpaste | ghostwrite sanitize --explain  # clean a raw model response
  ghostwrite stats --since 7d              # acceptance rate per model
  ghostwrite trace show 1                  # inspect the last completion trace
  ghostwrite config                        # view configuration`,
	Version:           Version,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logFile, os.Stderr)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler. Without --debug only
// warnings and errors are written.
func setupLogging(path string, fallback io.Writer) error {
	level := slog.LevelWarn
	if debugMode {
		level = slog.LevelDebug
	}

	w := fallback
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// editorLogPath is where the editor logs when --log-file is not given;
// stderr belongs to the terminal UI.
func editorLogPath() (string, error) {
	if logFile != "" {
		return logFile, nil
	}
	dir, err := config.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "editor.log"), nil
}
