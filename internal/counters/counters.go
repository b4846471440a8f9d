// Package counters turns pairs of cumulative counter snapshots into rates.
//
// Everything here is pure: callers own the previous snapshot and pass both
// sides in. Functions never block and never touch the host.
package counters

import (
	"errors"
	"time"
)

var (
	// ErrInterfaceMismatch means the two network snapshots do not describe
	// the same set of interfaces and cannot be subtracted.
	ErrInterfaceMismatch = errors.New("network interface set changed between snapshots")
	// ErrNoElapsed means the snapshots were taken at the same instant (or
	// out of order) so no rate can be computed.
	ErrNoElapsed = errors.New("no time elapsed between snapshots")
)

// CPUTicks holds cumulative CPU time per state, in whatever unit the
// platform reports. Only differences between two readings are meaningful.
type CPUTicks struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	IOWait  float64
	IRQ     float64
	SoftIRQ float64
	Steal   float64
}

// Total is the sum of all states.
func (t CPUTicks) Total() float64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// IdleTotal is the time the CPU was not doing work, including time waiting on IO.
func (t CPUTicks) IdleTotal() float64 {
	return t.Idle + t.IOWait
}

// CPUSnapshot is one reading of aggregate CPU counters.
type CPUSnapshot struct {
	At    time.Time
	Ticks CPUTicks
}

// CPULoad returns the busy fraction between prev and curr in [0, 1].
// When no ticks elapsed it returns last unchanged.
func CPULoad(prev, curr CPUTicks, last float64) float64 {
	total := curr.Total() - prev.Total()
	if total <= 0 {
		return last
	}
	idle := curr.IdleTotal() - prev.IdleTotal()
	return clamp01(1 - idle/total)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// NetCounters is the cumulative byte count of one interface.
type NetCounters struct {
	Name      string
	BytesRecv uint64
	BytesSent uint64
}

// NetSnapshot is one reading of every interface, in enumeration order.
type NetSnapshot struct {
	At         time.Time
	Interfaces []NetCounters
}

// Throughput is aggregate bytes per second across all interfaces.
type Throughput struct {
	RecvPerSec float64
	SentPerSec float64
}

// NetThroughput computes aggregate throughput between two snapshots.
//
// Interfaces are matched by position and must carry the same names.
// A counter that went backwards (driver reset, wrap) contributes zero.
// The byte sums are scaled by 1000/elapsed milliseconds.
func NetThroughput(prev, curr NetSnapshot) (Throughput, error) {
	if len(prev.Interfaces) != len(curr.Interfaces) {
		return Throughput{}, ErrInterfaceMismatch
	}
	for i := range curr.Interfaces {
		if prev.Interfaces[i].Name != curr.Interfaces[i].Name {
			return Throughput{}, ErrInterfaceMismatch
		}
	}

	elapsedMs := curr.At.Sub(prev.At).Milliseconds()
	if elapsedMs <= 0 {
		return Throughput{}, ErrNoElapsed
	}

	var recv, sent uint64
	for i, c := range curr.Interfaces {
		p := prev.Interfaces[i]
		recv += positiveDelta(p.BytesRecv, c.BytesRecv)
		sent += positiveDelta(p.BytesSent, c.BytesSent)
	}

	scale := 1000 / float64(elapsedMs)
	return Throughput{
		RecvPerSec: float64(recv) * scale,
		SentPerSec: float64(sent) * scale,
	}, nil
}

func positiveDelta(prev, curr uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}
