// Package probe reads raw host measurements: counters, totals, sensors and
// the process table. It does no caching or rate computation; that belongs to
// the sources built on top of it.
package probe

import (
	"context"
	"time"

	"github.com/rileyhilliard/termdash/internal/counters"
)

// Memory totals in bytes.
type Memory struct {
	Total     uint64 `json:"total"`
	Available uint64 `json:"available"`
	Used      uint64 `json:"used"`
}

// UsedRatio is Used/Total, or 0 when Total is unknown.
func (m Memory) UsedRatio() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Used) / float64(m.Total)
}

// Filesystem is the capacity of one mounted filesystem in bytes.
type Filesystem struct {
	Device     string
	Mountpoint string
	Total      uint64
	Free       uint64
}

// Battery describes the first battery found.
type Battery struct {
	// Percent is remaining capacity, 0-100.
	Percent float64
	// OnAC is true when external power is connected.
	OnAC bool
}

// Probe is the capability layer the metric sources sample from.
// Implementations may be slow; callers are expected to gate them.
type Probe interface {
	CPUTicks(ctx context.Context) (counters.CPUTicks, error)
	LogicalCores(ctx context.Context) (int, error)
	// NetCounters returns per-interface counters in a stable order.
	NetCounters(ctx context.Context) ([]counters.NetCounters, error)
	Memory(ctx context.Context) (Memory, error)
	Filesystems(ctx context.Context) ([]Filesystem, error)
	// Battery returns nil with no error when the host has no battery.
	Battery(ctx context.Context) (*Battery, error)
	Uptime(ctx context.Context) (time.Duration, error)
	Processes(ctx context.Context) ([]counters.ProcessSample, error)
	// FanSpeeds returns RPM readings, empty when no fan is exposed.
	FanSpeeds(ctx context.Context) ([]int, error)
	// CPUTemperature returns degrees Celsius, or 0 when unavailable.
	CPUTemperature(ctx context.Context) (float64, error)
	OSName(ctx context.Context) (string, error)
}
