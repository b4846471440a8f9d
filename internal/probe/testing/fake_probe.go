// Package testing provides test doubles for the probe package.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/probe"
)

// FakeProbe is a scriptable probe.Probe. Set the exported fields to the
// values each call should return; set the matching *Err to make it fail.
type FakeProbe struct {
	mu sync.Mutex

	Ticks    counters.CPUTicks
	Cores    int
	Net      []counters.NetCounters
	Mem      probe.Memory
	Disks    []probe.Filesystem
	Bat      *probe.Battery
	Up       time.Duration
	Procs    []counters.ProcessSample
	Fans     []int
	CPUTemp  float64
	OS       string
	TicksErr error
	NetErr   error
	MemErr   error
	DisksErr error
	BatErr   error
	UpErr    error
	ProcsErr error
	FansErr  error
	TempErr  error
	OSErr    error
	CoresErr error

	// Call tracking, keyed by method name.
	calls map[string]int
}

// NewFakeProbe returns a fake with four cores and nothing else populated.
func NewFakeProbe() *FakeProbe {
	return &FakeProbe{Cores: 4, calls: make(map[string]int)}
}

// Calls returns how many times method was invoked.
func (f *FakeProbe) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Update runs fn with the fake locked, for changing values while sources
// may be reading concurrently.
func (f *FakeProbe) Update(fn func(f *FakeProbe)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *FakeProbe) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *FakeProbe) CPUTicks(ctx context.Context) (counters.CPUTicks, error) {
	f.record("CPUTicks")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Ticks, f.TicksErr
}

func (f *FakeProbe) LogicalCores(ctx context.Context) (int, error) {
	f.record("LogicalCores")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Cores, f.CoresErr
}

func (f *FakeProbe) NetCounters(ctx context.Context) ([]counters.NetCounters, error) {
	f.record("NetCounters")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NetErr != nil {
		return nil, f.NetErr
	}
	out := make([]counters.NetCounters, len(f.Net))
	copy(out, f.Net)
	return out, nil
}

func (f *FakeProbe) Memory(ctx context.Context) (probe.Memory, error) {
	f.record("Memory")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mem, f.MemErr
}

func (f *FakeProbe) Filesystems(ctx context.Context) ([]probe.Filesystem, error) {
	f.record("Filesystems")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DisksErr != nil {
		return nil, f.DisksErr
	}
	out := make([]probe.Filesystem, len(f.Disks))
	copy(out, f.Disks)
	return out, nil
}

func (f *FakeProbe) Battery(ctx context.Context) (*probe.Battery, error) {
	f.record("Battery")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BatErr != nil || f.Bat == nil {
		return nil, f.BatErr
	}
	b := *f.Bat
	return &b, nil
}

func (f *FakeProbe) Uptime(ctx context.Context) (time.Duration, error) {
	f.record("Uptime")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Up, f.UpErr
}

func (f *FakeProbe) Processes(ctx context.Context) ([]counters.ProcessSample, error) {
	f.record("Processes")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProcsErr != nil {
		return nil, f.ProcsErr
	}
	out := make([]counters.ProcessSample, len(f.Procs))
	copy(out, f.Procs)
	return out, nil
}

func (f *FakeProbe) FanSpeeds(ctx context.Context) ([]int, error) {
	f.record("FanSpeeds")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FansErr != nil {
		return nil, f.FansErr
	}
	out := make([]int, len(f.Fans))
	copy(out, f.Fans)
	return out, nil
}

func (f *FakeProbe) CPUTemperature(ctx context.Context) (float64, error) {
	f.record("CPUTemperature")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CPUTemp, f.TempErr
}

func (f *FakeProbe) OSName(ctx context.Context) (string, error) {
	f.record("OSName")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.OS, f.OSErr
}

var _ probe.Probe = (*FakeProbe)(nil)
