package snapshot

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/termdash/internal/probe"
)

// Sentinels shown when a capability is missing.
const (
	NoBattery = "AC POWER"
	NoFan     = "N/A"
)

// FormatBattery renders a battery as "NN% (CHR)" on external power or
// "NN% (BAT)" otherwise. A nil battery renders as NoBattery.
func FormatBattery(b *probe.Battery) string {
	if b == nil {
		return NoBattery
	}
	state := "(BAT)"
	if b.OnAC {
		state = "(CHR)"
	}
	return fmt.Sprintf("%.0f%% %s", b.Percent, state)
}

// FormatUptime renders d as "{days}d {hh}h {mm}m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := (secs % 86400) / 3600
	minutes := (secs % 3600) / 60
	return fmt.Sprintf("%dd %02dh %02dm", days, hours, minutes)
}

// FormatFan renders the first fan reading, or NoFan.
func FormatFan(speeds []int) string {
	if len(speeds) == 0 {
		return NoFan
	}
	return fmt.Sprintf("%d RPM", speeds[0])
}

// StorageRatio is used/total summed across filesystems, where used is
// total minus free. It is 0 when the total is 0.
func StorageRatio(fss []probe.Filesystem) float64 {
	var total, used uint64
	for _, fs := range fss {
		total += fs.Total
		if fs.Total > fs.Free {
			used += fs.Total - fs.Free
		}
	}
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total)
}
