package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/termdash/internal/config"
	"github.com/rileyhilliard/termdash/internal/dashboard"
	"github.com/rileyhilliard/termdash/internal/doctor"
	"github.com/rileyhilliard/termdash/internal/probe"
	"github.com/rileyhilliard/termdash/internal/source"
)

var (
	doctorJSON    bool
	doctorOffline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose missing readings",
	Long: `Check the config file, every system capability the dashboard samples,
git, and the price and weather services.

Panels that show N/A, AC POWER or an ERR line usually have a matching
warning or failure here.

Examples:
  termdash doctor
  termdash doctor --offline
  termdash doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the price and weather checks")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

func doctorCommand(cmd *cobra.Command) error {
	// A broken config is reported by the CONFIG check, so fall back to
	// defaults for the remaining checks.
	cfg, _, err := loadConfig(cmd, &flags)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	dashboard.UseColor(colorEnabled(&flags) && stdoutIsTerminal())

	checks := collectChecks(cfg, flags.Config, probe.NewHost(), !doctorOffline)
	results := doctor.RunAllParallel(commandContext(cmd), checks)

	if doctorJSON {
		return writeDoctorJSON(cmd.OutOrStdout(), checks, results)
	}
	return writeDoctorText(cmd.OutOrStdout(), checks, results)
}

// collectChecks gathers the checks for cfg. Network checks only cover the
// sources that are enabled.
func collectChecks(cfg *config.Config, cfgPath string, p probe.Probe, network bool) []doctor.Check {
	checks := []doctor.Check{&doctor.ConfigCheck{ConfigPath: cfgPath}}
	checks = append(checks, doctor.NewSystemChecks(p)...)

	fc := facadeConfig(cfg, source.NopObserver{})
	checks = append(checks, &doctor.GitCheck{Config: fc.VCS})

	if network {
		if cfg.Crypto.Enabled {
			checks = append(checks, &doctor.CryptoCheck{Config: fc.Crypto})
		}
		if cfg.Weather.Enabled {
			checks = append(checks, &doctor.WeatherCheck{Config: fc.Weather})
		}
	}
	return checks
}

// groupResults orders results by doctor.CategoryOrder, keeping check order
// within a category.
func groupResults(checks []doctor.Check, results []doctor.CheckResult) []CategoryOutput {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}

	out := make([]CategoryOutput, 0, len(grouped))
	for _, cat := range doctor.CategoryOrder {
		if rs, ok := grouped[cat]; ok {
			out = append(out, CategoryOutput{Name: cat, Results: rs})
		}
	}
	return out
}

func writeDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Categories: groupResults(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func writeDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	successStyle := lipgloss.NewStyle().Foreground(dashboard.ColorHealthy)
	errorStyle := lipgloss.NewStyle().Foreground(dashboard.ColorCritical)
	warnStyle := lipgloss.NewStyle().Foreground(dashboard.ColorWarning)
	headerStyle := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString("\n" + headerStyle.Render("termdash Diagnostic Report") + "\n\n")

	for _, cat := range groupResults(checks, results) {
		b.WriteString(headerStyle.Render(cat.Name) + "\n")
		for _, r := range cat.Results {
			symbol, style := "✓", successStyle
			switch r.Status {
			case doctor.StatusWarn:
				symbol, style = "!", warnStyle
			case doctor.StatusFail:
				symbol, style = "✗", errorStyle
			}
			fmt.Fprintf(&b, "  %s %s\n", style.Render(symbol), r.Message)

			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				for _, line := range strings.Split(r.Suggestion, "\n") {
					fmt.Fprintf(&b, "    %s\n", dashboard.MutedStyle.Render(line))
				}
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("━", 60) + "\n\n")
	if doctor.HasIssues(results) {
		fmt.Fprintf(&b, "%s %s\n", errorStyle.Render("✗"), doctor.Summary(results))
	} else {
		fmt.Fprintf(&b, "%s %s\n", successStyle.Render("✓"), doctor.Summary(results))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
