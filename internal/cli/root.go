package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	Config        string
	Interval      time.Duration
	Top           int
	NoColor       bool
	MetricsListen string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "termdash",
	Short: "Live system dashboard for the terminal",
	Long: `termdash shows CPU, memory, storage, network, power and process activity
alongside crypto prices, the local weather and the current git branch.

Sampling is rate limited per source, so the dashboard can redraw often
without hammering the system or remote APIs.

Examples:
  termdash
  termdash --interval 1s --top 10
  termdash snapshot --json
  termdash --metrics-listen 127.0.0.1:9273`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd)
	},
}

func init() {
	addGlobalFlags(rootCmd, &flags)
}

func addGlobalFlags(cmd *cobra.Command, f *globalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.Config, "config", "", "config file (default ./.termdash.yaml, then ~/.config/termdash/config.yaml)")
	pf.DurationVar(&f.Interval, "interval", 0, "dashboard refresh interval, e.g. 500ms or 1s")
	pf.IntVar(&f.Top, "top", 0, "rows in the process table")
	pf.BoolVar(&f.NoColor, "no-color", false, "disable colors (also honors NO_COLOR)")
	pf.StringVar(&f.MetricsListen, "metrics-listen", "", "serve Prometheus metrics on host:port")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if isUnknownCommandError(err) {
			if name := extractUnknownCommand(err); name != "" {
				fmt.Fprintf(os.Stderr, "Unknown command %q. Run 'termdash --help' to see what's available.\n", name)
				os.Exit(1)
			}
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// isUnknownCommandError reports whether err came from cobra rejecting the
// command line rather than from running a command.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls "foo" out of `unknown command "foo" for "termdash"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// commandContext is cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
