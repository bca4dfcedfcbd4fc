package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantrig/bridgecli/internal/output"
)

var (
	cfgFile       string
	flagHost      string
	flagPort      int
	flagTimeoutMS int
	flagTerminal  string
	flagDataDir   string
	flagSymbol    string
	flagTimeframe string

	// Global output flags - inherited by all subcommands
	jsonOutput bool
	traceLog   bool

	// exitCode is set exactly once per invocation by the dispatch path.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "bridgecli [command tokens...]",
	Short: "Drive a trading-terminal bridge from the command line",
	Long: `bridgecli turns typed commands into the bridge wire protocol and
sequences multi-step operations against a trading terminal.

Examples:
  bridgecli add EURUSD M5 MyIndicator sub=2 --params period=14
  bridgecli expert attach GBPUSD H1 MyEA --params risk=2
  bridgecli chart list
  bridgecli repl`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runTokens(cmd.Context(), args)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML)")
	pf.StringVar(&flagHost, "host", "", "bridge host, comma-separated fallback list")
	pf.IntVar(&flagPort, "port", 0, "bridge port")
	pf.IntVar(&flagTimeoutMS, "timeout", 0, "per round-trip timeout in milliseconds")
	pf.StringVar(&flagTerminal, "terminal", "", "terminal executable path")
	pf.StringVar(&flagDataDir, "data", "", "terminal data directory")
	pf.StringVar(&flagSymbol, "symbol", "", "default symbol when a command omits it")
	pf.StringVar(&flagTimeframe, "timeframe", "", "default timeframe when a command omits it")
	pf.BoolVar(&jsonOutput, "json", false, "emit one JSON envelope instead of plain text")
	pf.BoolVar(&traceLog, "trace", false, "enable trace logging to stderr")

	rootCmd.AddCommand(replCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return output.ExitFailure
	}
	return exitCode
}

// newLogger builds the stderr logger. Plain output stays clean at the
// default Warn level; --trace opens everything up, including attach state
// transitions and wire exchanges.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if traceLog {
		level = zerolog.TraceLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}
