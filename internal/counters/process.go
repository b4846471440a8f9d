package counters

import (
	"sort"
	"time"
)

// ProcessSample is the cumulative CPU time of one process at one reading.
type ProcessSample struct {
	PID     int32
	Name    string
	CPUTime time.Duration
	Threads int32
}

// ProcessUsage is a process's CPU share over the last sampling window,
// as a percentage of total machine capacity.
type ProcessUsage struct {
	PID     int32   `json:"pid"`
	Name    string  `json:"name"`
	Percent float64 `json:"cpu_percent"`
}

// ProcessCPU returns 100 * delta / elapsed / cores. Bad inputs (no window,
// no cores, CPU time going backwards after PID reuse) yield 0.
func ProcessCPU(prev, curr, elapsed time.Duration, cores int) float64 {
	if elapsed <= 0 || cores <= 0 {
		return 0
	}
	delta := curr - prev
	if delta < 0 {
		return 0
	}
	return 100 * delta.Seconds() / elapsed.Seconds() / float64(cores)
}

// ProcessUsages scores every process in curr against the previous pass.
// PIDs absent from prev score 0. The result is sorted by descending usage;
// ties keep enumeration order.
func ProcessUsages(prev map[int32]ProcessSample, curr []ProcessSample, elapsed time.Duration, cores int) []ProcessUsage {
	out := make([]ProcessUsage, 0, len(curr))
	for _, s := range curr {
		u := ProcessUsage{PID: s.PID, Name: s.Name}
		if p, ok := prev[s.PID]; ok {
			u.Percent = ProcessCPU(p.CPUTime, s.CPUTime, elapsed, cores)
		}
		out = append(out, u)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percent > out[j].Percent
	})
	return out
}

// IndexByPID builds the history map for the next pass. It is a fresh map,
// so processes that exited since the last pass are dropped.
func IndexByPID(curr []ProcessSample) map[int32]ProcessSample {
	m := make(map[int32]ProcessSample, len(curr))
	for _, s := range curr {
		m[s.PID] = s
	}
	return m
}

// TotalThreads sums the thread counts of every sample.
func TotalThreads(curr []ProcessSample) int {
	n := 0
	for _, s := range curr {
		n += int(s.Threads)
	}
	return n
}

// Top returns at most n entries from an already-sorted usage list.
func Top(usages []ProcessUsage, n int) []ProcessUsage {
	if n <= 0 {
		return nil
	}
	if n > len(usages) {
		n = len(usages)
	}
	out := make([]ProcessUsage, n)
	copy(out, usages[:n])
	return out
}
