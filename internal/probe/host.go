package probe

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/afero"

	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/logger"
)

// Host is the Probe backed by gopsutil, with battery and fan readings taken
// from sysfs.
type Host struct {
	sysfs *Sysfs
	log   logger.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithSysfs overrides the filesystem used for battery and fan readings.
func WithSysfs(fs afero.Fs) HostOption {
	return func(h *Host) {
		h.sysfs = NewSysfs(fs)
	}
}

// WithLogger sets the logger used for per-item read problems that do not
// fail the whole call.
func WithLogger(l logger.Logger) HostOption {
	return func(h *Host) {
		h.log = l
	}
}

// NewHost returns a Probe for the local machine.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		sysfs: NewSysfs(afero.NewOsFs()),
		log:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) CPUTicks(ctx context.Context) (counters.CPUTicks, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return counters.CPUTicks{}, fmt.Errorf("read cpu times: %w", err)
	}
	if len(times) == 0 {
		return counters.CPUTicks{}, fmt.Errorf("read cpu times: no data")
	}
	t := times[0]
	return counters.CPUTicks{
		User:    t.User,
		Nice:    t.Nice,
		System:  t.System,
		Idle:    t.Idle,
		IOWait:  t.Iowait,
		IRQ:     t.Irq,
		SoftIRQ: t.Softirq,
		Steal:   t.Steal,
	}, nil
}

func (h *Host) LogicalCores(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n <= 0 {
		return runtime.NumCPU(), nil
	}
	return n, nil
}

func (h *Host) NetCounters(ctx context.Context) ([]counters.NetCounters, error) {
	stats, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("read network counters: %w", err)
	}
	out := make([]counters.NetCounters, 0, len(stats))
	for _, s := range stats {
		out = append(out, counters.NetCounters{
			Name:      s.Name,
			BytesRecv: s.BytesRecv,
			BytesSent: s.BytesSent,
		})
	}
	return out, nil
}

func (h *Host) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("read memory: %w", err)
	}
	used := uint64(0)
	if vm.Total > vm.Available {
		used = vm.Total - vm.Available
	}
	return Memory{Total: vm.Total, Available: vm.Available, Used: used}, nil
}

// Filesystems lists physical mounts, one entry per device.
func (h *Host) Filesystems(ctx context.Context) ([]Filesystem, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	seen := make(map[string]bool, len(parts))
	out := make([]Filesystem, 0, len(parts))
	for _, p := range parts {
		if seen[p.Device] {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			h.log.Debug("skip filesystem %s: %v", p.Mountpoint, err)
			continue
		}
		seen[p.Device] = true
		out = append(out, Filesystem{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Total:      usage.Total,
			Free:       usage.Free,
		})
	}
	return out, nil
}

func (h *Host) Battery(ctx context.Context) (*Battery, error) {
	return h.sysfs.Battery()
}

func (h *Host) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("read uptime: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}

// Processes samples every visible process. Processes that exit or deny
// access mid-scan are skipped.
func (h *Host) Processes(ctx context.Context) ([]counters.ProcessSample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	out := make([]counters.ProcessSample, 0, len(procs))
	for _, p := range procs {
		times, err := p.TimesWithContext(ctx)
		if err != nil {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			name = fmt.Sprintf("pid %d", p.Pid)
		}
		threads, err := p.NumThreadsWithContext(ctx)
		if err != nil {
			threads = 0
		}
		cpuSecs := times.User + times.System
		out = append(out, counters.ProcessSample{
			PID:     p.Pid,
			Name:    name,
			CPUTime: time.Duration(cpuSecs * float64(time.Second)),
			Threads: threads,
		})
	}
	return out, nil
}

func (h *Host) FanSpeeds(ctx context.Context) ([]int, error) {
	return h.sysfs.FanSpeeds()
}

// cpuSensorHints are substrings of sensor keys that identify the CPU package
// across common drivers, most specific first.
var cpuSensorHints = []string{"package", "tctl", "tdie", "coretemp", "k10temp", "cpu"}

func (h *Host) CPUTemperature(ctx context.Context) (float64, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if len(temps) == 0 {
		if err != nil {
			return 0, fmt.Errorf("read temperatures: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		// gopsutil reports unreadable sensors as warnings next to good data
		h.log.Debug("partial temperature read: %v", err)
	}

	for _, hint := range cpuSensorHints {
		for _, t := range temps {
			if t.Temperature > 0 && strings.Contains(strings.ToLower(t.SensorKey), hint) {
				return t.Temperature, nil
			}
		}
	}
	return 0, nil
}

// OSName is the platform name and version, such as "ubuntu 22.04".
func (h *Host) OSName(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return runtime.GOOS, fmt.Errorf("read host info: %w", err)
	}
	name := info.Platform
	if name == "" {
		name = info.OS
	}
	return strings.TrimSpace(name + " " + info.PlatformVersion), nil
}
