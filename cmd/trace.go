package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/ghostwrite/internal/config"
	"github.com/samsaffron/ghostwrite/internal/debuglog"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect completion traces",
	Long: `List and show the JSONL traces written when debug.trace_dir is set.

Examples:
  ghostwrite trace                 # List recent traces
  ghostwrite trace show 1          # Most recent trace
  ghostwrite trace show 20250102-150405-4242 --raw`,
	RunE: runTraceList, // Default to list
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trace sessions",
	Args:  cobra.NoArgs,
	RunE:  runTraceList,
}

var traceShowCmd = &cobra.Command{
	Use:   "show <number|id>",
	Short: "Show one trace session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceShow,
}

var (
	traceNoColor    bool
	traceTimestamps bool
	traceRaw        bool
)

func init() {
	traceCmd.PersistentFlags().BoolVar(&traceNoColor, "no-color", false, "Disable colors")
	traceShowCmd.Flags().BoolVar(&traceTimestamps, "timestamps", false, "Show a timestamp on each entry")
	traceShowCmd.Flags().BoolVar(&traceRaw, "raw", false, "Print raw responses in full")

	traceCmd.AddCommand(traceListCmd)
	traceCmd.AddCommand(traceShowCmd)
	rootCmd.AddCommand(traceCmd)
}

func traceDir() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.Debug.TraceDir, nil
}

func runTraceList(cmd *cobra.Command, args []string) error {
	dir, err := traceDir()
	if err != nil {
		return err
	}
	var sessions []debuglog.SessionSummary
	if dir != "" {
		sessions, err = debuglog.ListSessions(dir)
		if err != nil {
			return fmt.Errorf("failed to list traces: %w", err)
		}
	}
	debuglog.FormatSessionList(cmd.OutOrStdout(), sessions, debuglog.FormatOptions{NoColor: traceNoColor})
	return nil
}

func runTraceShow(cmd *cobra.Command, args []string) error {
	dir, err := traceDir()
	if err != nil {
		return err
	}
	if dir == "" {
		return fmt.Errorf("tracing is disabled, set debug.trace_dir in the config file")
	}

	summary, err := debuglog.ResolveSession(dir, args[0])
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("trace not found: %s", args[0])
	}

	session, err := debuglog.ParseSession(summary.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	debuglog.FormatSession(cmd.OutOrStdout(), session, debuglog.FormatOptions{
		NoColor:       traceNoColor,
		ShowTimestamp: traceTimestamps,
		ShowRaw:       traceRaw,
	})
	return nil
}
