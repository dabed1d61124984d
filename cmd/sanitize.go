package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/samsaffron/ghostwrite/internal/sanitize"
)

var sanitizeExplain bool

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file]",
	Short: "Clean a raw model response the way the editor does",
	Long: `Read a raw completion from a file or stdin and print what the editor
would show as ghost text.

Examples:
  ghostwrite sanitize response.txt
  pbpaste | ghostwrite sanitize --explain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSanitize,
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
	sanitizeCmd.Flags().BoolVar(&sanitizeExplain, "explain", false, "Report which passes changed the text on stderr")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	} else if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return errors.New("no input: pipe a response on stdin or pass a file")
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	res := sanitize.Report(string(raw))
	out := cmd.OutOrStdout()
	fmt.Fprint(out, res.Text)
	if res.Text != "" && !strings.HasSuffix(res.Text, "\n") {
		fmt.Fprintln(out)
	}

	if sanitizeExplain {
		explainSanitize(cmd.ErrOrStderr(), res)
	}
	return nil
}

func explainSanitize(w io.Writer, res sanitize.Result) {
	changed := "none"
	if len(res.Changed) > 0 {
		changed = strings.Join(res.Changed, ", ")
	}
	fmt.Fprintf(w, "passes changed: %s\n", changed)
	fmt.Fprintf(w, "rounds: %d\n", res.Rounds)
	if res.Unstable {
		fmt.Fprintln(w, "did not settle, output dropped")
	}
	if res.Empty() {
		fmt.Fprintln(w, "no suggestion")
	}
}
