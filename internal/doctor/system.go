package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/termdash/internal/probe"
	"github.com/rileyhilliard/termdash/internal/snapshot"
)

// capabilityCheck reads one probe capability. read returns a message on
// success, or warn set when the capability works but reports nothing useful.
type capabilityCheck struct {
	name       string
	suggestion string
	read       func(ctx context.Context) (msg string, warn bool, err error)
}

func (c *capabilityCheck) Name() string     { return c.name }
func (c *capabilityCheck) Category() string { return CategorySystem }

func (c *capabilityCheck) Run(ctx context.Context) CheckResult {
	msg, warn, err := c.read(ctx)
	switch {
	case err != nil:
		return CheckResult{
			Name:       c.name,
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %v", c.name, err),
			Suggestion: c.suggestion,
		}
	case warn:
		return CheckResult{
			Name:       c.name,
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s: %s", c.name, msg),
			Suggestion: c.suggestion,
		}
	}
	return CheckResult{Name: c.name, Status: StatusPass, Message: fmt.Sprintf("%s: %s", c.name, msg)}
}

// NewSystemChecks returns one check per probe capability the dashboard uses.
func NewSystemChecks(p probe.Probe) []Check {
	return []Check{
		&capabilityCheck{
			name: "cpu",
			read: func(ctx context.Context) (string, bool, error) {
				if _, err := p.CPUTicks(ctx); err != nil {
					return "", false, err
				}
				cores, err := p.LogicalCores(ctx)
				if err != nil {
					return "", false, err
				}
				return fmt.Sprintf("%d logical cores", cores), false, nil
			},
		},
		&capabilityCheck{
			name: "network",
			read: func(ctx context.Context) (string, bool, error) {
				nics, err := p.NetCounters(ctx)
				if err != nil {
					return "", false, err
				}
				if len(nics) == 0 {
					return "no interfaces found", true, nil
				}
				return fmt.Sprintf("%d interfaces", len(nics)), false, nil
			},
		},
		&capabilityCheck{
			name: "memory",
			read: func(ctx context.Context) (string, bool, error) {
				m, err := p.Memory(ctx)
				if err != nil {
					return "", false, err
				}
				return fmt.Sprintf("%.0f%% used", m.UsedRatio()*100), false, nil
			},
		},
		&capabilityCheck{
			name: "storage",
			read: func(ctx context.Context) (string, bool, error) {
				fss, err := p.Filesystems(ctx)
				if err != nil {
					return "", false, err
				}
				if len(fss) == 0 {
					return "no filesystems found", true, nil
				}
				return fmt.Sprintf("%d filesystems, %.0f%% used", len(fss), snapshot.StorageRatio(fss)*100), false, nil
			},
		},
		&capabilityCheck{
			name: "power",
			read: func(ctx context.Context) (string, bool, error) {
				b, err := p.Battery(ctx)
				if err != nil {
					return "", false, err
				}
				return snapshot.FormatBattery(b), false, nil
			},
		},
		&capabilityCheck{
			name:       "temperature",
			suggestion: "The SYSTEM panel shows N/A until a CPU sensor is exposed (lm-sensors on Linux)",
			read: func(ctx context.Context) (string, bool, error) {
				t, err := p.CPUTemperature(ctx)
				if err != nil {
					return "", false, err
				}
				if t <= 0 {
					return "no CPU sensor", true, nil
				}
				return fmt.Sprintf("%.1f°C", t), false, nil
			},
		},
		&capabilityCheck{
			name:       "fans",
			suggestion: "Fan speed shows N/A on hosts without a hwmon fan input",
			read: func(ctx context.Context) (string, bool, error) {
				fans, err := p.FanSpeeds(ctx)
				if err != nil {
					return "", false, err
				}
				if len(fans) == 0 {
					return snapshot.NoFan, true, nil
				}
				return snapshot.FormatFan(fans), false, nil
			},
		},
		&capabilityCheck{
			name: "processes",
			read: func(ctx context.Context) (string, bool, error) {
				procs, err := p.Processes(ctx)
				if err != nil {
					return "", false, err
				}
				return fmt.Sprintf("%d visible", len(procs)), false, nil
			},
		},
		&capabilityCheck{
			name: "uptime",
			read: func(ctx context.Context) (string, bool, error) {
				d, err := p.Uptime(ctx)
				if err != nil {
					return "", false, err
				}
				return snapshot.FormatUptime(d), false, nil
			},
		},
		&capabilityCheck{
			name: "os",
			read: func(ctx context.Context) (string, bool, error) {
				name, err := p.OSName(ctx)
				if err != nil {
					return "", false, err
				}
				return name, false, nil
			},
		},
	}
}
