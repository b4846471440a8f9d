package source

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/probe"
)

// Default refresh intervals for local sources.
const (
	DefaultCPUInterval       = time.Second
	DefaultNetworkInterval   = time.Second
	DefaultProcessesInterval = 2 * time.Second
)

// CPU reports aggregate CPU load in [0, 1].
type CPU struct {
	gated
	probe probe.Probe
	prev  *counters.CPUSnapshot
	cell  *Cell[float64]
}

// NewCPU returns a CPU source sampling p at most once per interval.
func NewCPU(p probe.Probe, interval time.Duration, opts ...Option) *CPU {
	return &CPU{
		gated: newGated(NameCPU, interval, opts),
		probe: p,
		cell:  NewCell(0.0),
	}
}

// Read returns the cached load, refreshing it first if the gate is open.
// The first refresh only records a baseline, so load reads 0 until the
// second one.
func (c *CPU) Read() float64 {
	c.refresh()
	return c.cell.Load()
}

// Baseline takes the first sample synchronously and reports whether the
// probe could serve it.
func (c *CPU) Baseline() error {
	return c.refresh()
}

func (c *CPU) refresh() error {
	start, ok := c.begin()
	if !ok {
		return nil
	}
	ctx, cancel := c.probeContext()
	defer cancel()

	ticks, err := c.probe.CPUTicks(ctx)
	if err == nil {
		if c.prev != nil {
			c.cell.Store(counters.CPULoad(c.prev.Ticks, ticks, c.cell.Load()), c.clock())
		}
		c.prev = &counters.CPUSnapshot{At: start, Ticks: ticks}
	}
	c.end(start, err)
	return err
}

// Network reports aggregate throughput across all interfaces.
type Network struct {
	gated
	probe probe.Probe
	prev  *counters.NetSnapshot
	cell  *Cell[counters.Throughput]
}

// NewNetwork returns a network source sampling p at most once per interval.
func NewNetwork(p probe.Probe, interval time.Duration, opts ...Option) *Network {
	return &Network{
		gated: newGated(NameNetwork, interval, opts),
		probe: p,
		cell:  NewCell(counters.Throughput{}),
	}
}

// Read returns the cached throughput, refreshing it first if the gate is
// open. When the interface set changed since the last sample, the source
// re-baselines and reports zero for that cycle.
func (n *Network) Read() counters.Throughput {
	n.refresh()
	return n.cell.Load()
}

// Baseline records the first counter sample.
func (n *Network) Baseline() error {
	return n.refresh()
}

func (n *Network) refresh() error {
	start, ok := n.begin()
	if !ok {
		return nil
	}
	ctx, cancel := n.probeContext()
	defer cancel()

	ifs, err := n.probe.NetCounters(ctx)
	if err == nil {
		err = n.advance(counters.NetSnapshot{At: start, Interfaces: ifs})
	}
	n.end(start, err)
	return err
}

func (n *Network) advance(curr counters.NetSnapshot) error {
	if n.prev == nil {
		n.prev = &curr
		return nil
	}

	tp, err := counters.NetThroughput(*n.prev, curr)
	switch {
	case errors.Is(err, counters.ErrInterfaceMismatch):
		n.cell.Store(counters.Throughput{}, n.clock())
		n.prev = &curr
		return nil
	case err != nil:
		return err
	}

	n.cell.Store(tp, n.clock())
	n.prev = &curr
	return nil
}

// ProcessStats is the cached result of one process table pass.
type ProcessStats struct {
	Count   int
	Threads int
	// Usage is sorted by descending CPU share. Treat as read-only.
	Usage []counters.ProcessUsage
}

// Processes tracks per-process CPU usage between passes.
type Processes struct {
	gated
	probe  probe.Probe
	prev   map[int32]counters.ProcessSample
	prevAt time.Time
	cell   *Cell[ProcessStats]

	coresOnce sync.Once
	cores     int
}

// NewProcesses returns a process source scanning p at most once per interval.
func NewProcesses(p probe.Probe, interval time.Duration, opts ...Option) *Processes {
	return &Processes{
		gated: newGated(NameProcesses, interval, opts),
		probe: p,
		cell:  NewCell(ProcessStats{}),
	}
}

// Read returns the cached stats, refreshing them first if the gate is open.
func (p *Processes) Read() ProcessStats {
	p.refresh()
	return p.cell.Load()
}

// Baseline runs the first process scan.
func (p *Processes) Baseline() error {
	return p.refresh()
}

func (p *Processes) refresh() error {
	start, ok := p.begin()
	if !ok {
		return nil
	}
	ctx, cancel := p.probeContext()
	defer cancel()

	samples, err := p.probe.Processes(ctx)
	if err == nil {
		var elapsed time.Duration
		if !p.prevAt.IsZero() {
			elapsed = start.Sub(p.prevAt)
		}
		usage := counters.ProcessUsages(p.prev, samples, elapsed, p.logicalCores(ctx))
		p.cell.Store(ProcessStats{
			Count:   len(samples),
			Threads: counters.TotalThreads(samples),
			Usage:   usage,
		}, p.clock())
		p.prev = counters.IndexByPID(samples)
		p.prevAt = start
	}
	p.end(start, err)
	return err
}

func (p *Processes) logicalCores(ctx context.Context) int {
	p.coresOnce.Do(func() {
		n, err := p.probe.LogicalCores(ctx)
		if err != nil || n <= 0 {
			n = runtime.NumCPU()
		}
		p.cores = n
	})
	return p.cores
}

// FetchFunc produces a fresh value for a Polled source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Polled is a gated synchronous source for values that need no history:
// memory, storage, power, sensors, uptime.
type Polled[T any] struct {
	gated
	fetch FetchFunc[T]
	cell  *Cell[T]
}

// NewPolled returns a source that calls fetch at most once per interval and
// keeps the last good value otherwise.
func NewPolled[T any](name string, interval time.Duration, initial T, fetch FetchFunc[T], opts ...Option) *Polled[T] {
	return &Polled[T]{
		gated: newGated(name, interval, opts),
		fetch: fetch,
		cell:  NewCell(initial),
	}
}

// Read returns the cached value, refreshing it first if the gate is open.
func (s *Polled[T]) Read() T {
	start, ok := s.begin()
	if ok {
		ctx, cancel := s.probeContext()
		v, err := s.fetch(ctx)
		cancel()
		if err == nil {
			s.cell.Store(v, s.clock())
		}
		s.end(start, err)
	}
	return s.cell.Load()
}
