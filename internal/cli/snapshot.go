package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/termdash/internal/dashboard"
	"github.com/rileyhilliard/termdash/internal/snapshot"
	"github.com/rileyhilliard/termdash/internal/source"
)

// defaultWarmup covers one default CPU and network interval, so the first
// rates printed are real deltas rather than baselines.
const defaultWarmup = 1500 * time.Millisecond

type snapshotOptions struct {
	JSON   bool
	Warmup time.Duration
}

var snapOpts = snapshotOptions{Warmup: defaultWarmup}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print one reading and exit",
	Long: `Sample every source once, wait for the warmup so rates have a window,
then print the result as a table or as JSON.

Examples:
  termdash snapshot
  termdash snapshot --json | jq .cpu_load
  termdash snapshot --warmup 3s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, snapOpts)
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapOpts.JSON, "json", false, "print JSON instead of a table")
	snapshotCmd.Flags().DurationVar(&snapOpts.Warmup, "warmup", defaultWarmup, "time to sample before printing")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, opts snapshotOptions) error {
	cfg, _, err := loadConfig(cmd, &flags)
	if err != nil {
		return err
	}

	dashboard.UseColor(colorEnabled(&flags) && stdoutIsTerminal())

	ctx := commandContext(cmd)
	s, err := startSession(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer s.Close()

	frame, branch := collectSnapshot(ctx, s.facade, cfg.Processes.Top, opts.Warmup)

	if opts.JSON {
		return writeSnapshotJSON(cmd.OutOrStdout(), frame, branch)
	}
	return writeSnapshotText(cmd.OutOrStdout(), frame, branch)
}

// snapshotReader is the part of *snapshot.Facade a snapshot needs.
type snapshotReader interface {
	Frame(topN int) snapshot.Frame
	Branch() string
	Wait()
}

// collectSnapshot reads once to take baselines and start remote fetches,
// waits out the warmup, then reads again.
func collectSnapshot(ctx context.Context, r snapshotReader, topN int, warmup time.Duration) (snapshot.Frame, string) {
	r.Frame(topN)

	if warmup > 0 {
		t := time.NewTimer(warmup)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}

	r.Wait()
	return r.Frame(topN), r.Branch()
}

type snapshotJSON struct {
	snapshot.Frame
	Branch string `json:"branch"`
}

func writeSnapshotJSON(w io.Writer, f snapshot.Frame, branch string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshotJSON{Frame: f, Branch: branch})
}

func writeSnapshotText(w io.Writer, f snapshot.Frame, branch string) error {
	if branch == "" {
		branch = "-"
	}
	temp := "N/A"
	if f.CPUTemperature > 0 {
		temp = fmt.Sprintf("%.1f°C", f.CPUTemperature)
	}

	rows := [][]string{
		{"os", f.OSName},
		{"uptime", f.Uptime},
		{"branch", branch},
		{"cpu", fmt.Sprintf("%.0f%%", f.CPULoad*100)},
		{"temperature", temp},
		{"fan", f.FanSpeed},
		{"memory", fmt.Sprintf("%s / %s (%.0f%%)",
			dashboard.FormatBytes(f.Memory.Used), dashboard.FormatBytes(f.Memory.Total), f.Memory.UsedRatio()*100)},
		{"storage", fmt.Sprintf("%.0f%%", f.StorageUsage*100)},
		{"download", dashboard.FormatRate(f.Download)},
		{"upload", dashboard.FormatRate(f.Upload)},
		{"power", f.Battery},
		{"processes", fmt.Sprintf("%d procs, %d threads", f.ProcessCount, f.ThreadCount)},
	}
	rows = append(rows, cryptoRows(f.CryptoAssets, f.Crypto)...)
	if f.Weather != "" {
		rows = append(rows, []string{"weather", f.Weather})
	}

	metrics := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("METRIC", "VALUE").
		Rows(rows...)

	procs := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PID", "NAME", "CPU%")
	for _, p := range f.TopProcesses {
		procs.Row(fmt.Sprintf("%d", p.PID), p.Name, fmt.Sprintf("%.1f", p.Percent))
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n", metrics.Render(), procs.Render())
	return err
}

func cryptoRows(assets []string, prices source.Prices) [][]string {
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		value := "loading"
		if prices.Loaded() {
			value = dashboard.FormatPrice(prices.Values[a]) + " " + strings.ToUpper(prices.Currency)
		}
		rows = append(rows, []string{dashboard.AssetLabel(a), value})
	}
	return rows
}
