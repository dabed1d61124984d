package debuglog

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/samsaffron/ghostwrite/internal/overlay"
)

// FormatOptions controls how session output is formatted
type FormatOptions struct {
	NoColor       bool // Disable colors
	ShowTimestamp bool // Show timestamp for each entry
	ShowRaw       bool // Print raw responses in full
}

type formatStyles struct {
	muted  lipgloss.Style
	errorS lipgloss.Style
	ghost  lipgloss.Style
	bold   lipgloss.Style
}

func newFormatStyles(w io.Writer, noColor bool) formatStyles {
	s := overlay.NewStyles(overlay.NewRenderer(w, noColor), overlay.DefaultTheme())
	return formatStyles{
		muted:  s.LineNumber,
		errorS: s.Error.UnsetBackground(),
		ghost:  s.Ghost,
		bold:   s.Text.Bold(true),
	}
}

// FormatSessionList formats a list of sessions as a table
func FormatSessionList(w io.Writer, sessions []SessionSummary, opts FormatOptions) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No trace sessions found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Enable tracing by setting debug.trace_dir in the config file.")
		return
	}

	styles := newFormatStyles(w, opts.NoColor)

	fmt.Fprintf(w, "%s\n\n", styles.muted.Render("Trace Sessions"))

	totalRequests := 0
	for i, s := range sessions {
		providerModel := s.Provider
		if s.Model != "" {
			providerModel = fmt.Sprintf("%s / %s", s.Provider, s.Model)
		}
		// Truncate if too long
		if len(providerModel) > 40 {
			providerModel = providerModel[:37] + "..."
		}
		totalRequests += s.Requests

		errMark := " "
		if s.Failures > 0 {
			errMark = styles.errorS.Render("!")
		}

		timeStr := s.StartTime.Local().Format("Jan 02 15:04")
		fmt.Fprintf(w, "%s%2d. %s  %-40s  %s\n",
			errMark,
			i+1,
			styles.muted.Render(timeStr),
			providerModel,
			formatCalls(s.Requests, s.Failures, s.AvgLatency),
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", styles.muted.Render(
		fmt.Sprintf("Total: %d sessions  %d requests", len(sessions), totalRequests),
	))
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.muted.Render("Use `ghostwrite trace show 1` to view a session"))
}

func formatCalls(requests, failures int, avg time.Duration) string {
	parts := []string{fmt.Sprintf("%d req", requests)}
	if failures > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failures))
	}
	if avg > 0 {
		parts = append(parts, fmt.Sprintf("avg %s", avg.Round(time.Millisecond)))
	}
	return strings.Join(parts, ", ")
}

// FormatSession formats a full session for display
func FormatSession(w io.Writer, session *Session, opts FormatOptions) {
	styles := newFormatStyles(w, opts.NoColor)

	// Header
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", styles.bold.Render("Session:"), session.ID)
	fmt.Fprintf(w, "%s %s/%s\n", styles.muted.Render("Provider:"), session.Provider, session.Model)
	fmt.Fprintf(w, "%s %s\n",
		styles.muted.Render("Started:"),
		session.StartTime.Local().Format("2006-01-02 15:04:05"),
	)
	if !session.EndTime.IsZero() && session.EndTime.After(session.StartTime) {
		duration := session.EndTime.Sub(session.StartTime).Round(time.Millisecond)
		fmt.Fprintf(w, "%s %s\n", styles.muted.Render("Duration:"), duration)
	}
	fmt.Fprintf(w, "%s %d requests, %d failed, %d empty\n",
		styles.muted.Render("Calls:"),
		session.Requests,
		session.Failures,
		session.Empty,
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.muted.Render(strings.Repeat("─", 78)))
	fmt.Fprintln(w)

	for _, entry := range session.Entries {
		switch e := entry.(type) {
		case RequestEntry:
			formatRequestEntry(w, e, opts, styles)
		case ResponseEntry:
			formatResponseEntry(w, e, opts, styles)
		case SanitizeEntry:
			formatSanitizeEntry(w, e, opts, styles)
		}
	}
}

func timestamp(t time.Time, opts FormatOptions) string {
	if !opts.ShowTimestamp {
		return ""
	}
	return t.Local().Format("15:04:05.000") + " "
}

// formatRequestEntry formats a single request entry
func formatRequestEntry(w io.Writer, req RequestEntry, opts FormatOptions, styles formatStyles) {
	fmt.Fprintf(w, "%s%s %s/%s %s\n",
		timestamp(req.Timestamp, opts),
		styles.bold.Render("REQUEST"),
		req.Provider,
		req.Model,
		styles.muted.Render(fmt.Sprintf("(%d chars, %s)", req.ContextLen, req.ContextHash)),
	)
	if tail := lastLine(req.ContextTail); tail != "" {
		fmt.Fprintf(w, "         %s %q\n", styles.muted.Render("ends:"), tail)
	}
}

// formatResponseEntry formats a provider reply
func formatResponseEntry(w io.Writer, resp ResponseEntry, opts FormatOptions, styles formatStyles) {
	ts := timestamp(resp.Timestamp, opts)
	if resp.Failed() {
		fmt.Fprintf(w, "%s%s %s %s\n", ts, styles.errorS.Render("FAILED"), resp.ErrorKind, resp.Duration)
		fmt.Fprintf(w, "         %s\n", truncate(resp.Error, 200))
		return
	}
	fmt.Fprintf(w, "%s%s %s\n", ts, styles.bold.Render("RESPONSE"), resp.Duration)
	raw := resp.Raw
	if !opts.ShowRaw {
		raw = truncate(strings.ReplaceAll(raw, "\n", "\\n"), 200)
	}
	fmt.Fprintf(w, "         %s\n", raw)
}

// formatSanitizeEntry shows which passes fired and the final suggestion
func formatSanitizeEntry(w io.Writer, s SanitizeEntry, opts FormatOptions, styles formatStyles) {
	passes := "clean"
	if len(s.Passes) > 0 {
		passes = strings.Join(s.Passes, ", ")
	}
	fmt.Fprintf(w, "%s%s %s\n", timestamp(s.Timestamp, opts), styles.bold.Render("SANITIZE"), styles.muted.Render(passes))
	if s.Output == "" {
		fmt.Fprintf(w, "         %s\n", styles.muted.Render("(no suggestion)"))
	} else {
		fmt.Fprintf(w, "         %s\n", styles.ghost.Render(strings.ReplaceAll(s.Output, "\n", "\\n")))
	}
	fmt.Fprintln(w)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
