package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/ghostwrite/internal/config"
	"github.com/samsaffron/ghostwrite/internal/stats"
)

var (
	statsSince string
	statsJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show suggestion acceptance per provider and model",
	Long: `Show how often suggestions were shown, accepted, dismissed or failed.

Examples:
  ghostwrite stats                # last 30 days
  ghostwrite stats --since 7d
  ghostwrite stats --since all --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsSince, "since", "30d", "Window to report: a duration like 12h or 7d, or all")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	since, err := parseSince(statsSince, time.Now())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Stats.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Stats are disabled (stats.enabled: false).")
		return nil
	}

	store, err := stats.NewStore(cfg.Stats)
	if err != nil {
		return fmt.Errorf("failed to open stats: %w", err)
	}
	defer store.Close()

	rows, err := store.Summary(cmd.Context(), since)
	if err != nil {
		return err
	}
	return printStats(cmd, rows)
}

type statsRow struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Shown          int     `json:"shown"`
	Accepted       int     `json:"accepted"`
	Dismissed      int     `json:"dismissed"`
	Failed         int     `json:"failed"`
	Cached         int     `json:"cached"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	AvgLatencyMS   int64   `json:"avg_latency_ms"`
}

func printStats(cmd *cobra.Command, rows []stats.ModelStats) error {
	out := cmd.OutOrStdout()
	if statsJSON {
		data := make([]statsRow, 0, len(rows))
		for _, r := range rows {
			data = append(data, statsRow{
				Provider:       r.Provider,
				Model:          r.Model,
				Shown:          r.Shown,
				Accepted:       r.Accepted,
				Dismissed:      r.Dismissed,
				Failed:         r.Failed,
				Cached:         r.Cached,
				AcceptanceRate: r.AcceptanceRate(),
				AvgLatencyMS:   r.AvgLatency.Milliseconds(),
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No suggestions recorded for this period.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tSHOWN\tACCEPTED\tRATE\tDISMISSED\tFAILED\tCACHED\tLATENCY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f%%\t%d\t%d\t%d\t%s\n",
			r.Provider, r.Model, r.Shown, r.Accepted, r.AcceptanceRate()*100,
			r.Dismissed, r.Failed, r.Cached, r.AvgLatency.Round(time.Millisecond))
	}
	return tw.Flush()
}

// parseSince turns a --since value into a start time. Days are accepted as
// "7d"; "all" means no lower bound.
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return time.Time{}, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid --since value %q", s)
		}
		return now.AddDate(0, 0, -n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid --since value %q", s)
	}
	return now.Add(-d), nil
}
