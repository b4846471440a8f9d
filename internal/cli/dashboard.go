package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/termdash/internal/dashboard"
	"github.com/rileyhilliard/termdash/internal/util"
)

// stdoutIsTerminal is swapped out in tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runDashboard starts the live dashboard. When stdout is piped or
// redirected it prints a single text snapshot instead.
func runDashboard(cmd *cobra.Command) error {
	if !stdoutIsTerminal() {
		return runSnapshot(cmd, snapshotOptions{Warmup: defaultWarmup})
	}

	cfg, path, err := loadConfig(cmd, &flags)
	if err != nil {
		return err
	}

	dashboard.UseColor(colorEnabled(&flags))

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := startSession(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if path != "" {
		s.log.Info("config loaded from %s", path)
	}
	var assets []string
	if cfg.Crypto.Enabled {
		assets = cfg.Crypto.Assets
	}
	s.log.Info("dashboard started: refresh=%s top=%d assets=%s", cfg.Refresh, cfg.Processes.Top, util.JoinOrNone(assets))

	return dashboard.Run(ctx, s.facade, dashboard.Options{
		Refresh:        cfg.Refresh,
		TopN:           cfg.Processes.Top,
		BranchThrottle: cfg.VCS.Throttle,
	})
}
