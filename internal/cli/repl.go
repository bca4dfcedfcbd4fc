package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive command loop",
	Long: `repl reads one command per line and dispatches it exactly like a
single invocation would. Quoting follows shell rules, so parameter values
may contain spaces:

  > add EURUSD M5 MyIndicator --params "label=fast ma"
  > chart list
  > exit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Fprint(os.Stderr, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}

			tokens, err := shellquote.Split(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error: unbalanced quoting:", err)
				continue
			}
			// Per-line failures are printed but never end the loop.
			a.run(cmd.Context(), tokens)
		}
		return scanner.Err()
	},
}
