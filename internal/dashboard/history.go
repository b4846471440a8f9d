package dashboard

import "sync"

// DefaultHistorySize is the default number of data points to retain per series.
const DefaultHistorySize = 60

// Series names kept by the dashboard.
const (
	SeriesCPU      = "cpu"
	SeriesMemory   = "memory"
	SeriesDownload = "download"
	SeriesUpload   = "upload"
)

// History keeps a fixed-size ring buffer per named series for sparklines.
type History struct {
	mu     sync.RWMutex
	size   int
	series map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history with the given per-series capacity.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:   size,
		series: make(map[string]*ringBuffer),
	}
}

// Push appends v to the named series, evicting the oldest value when full.
func (h *History) Push(name string, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rb, ok := h.series[name]
	if !ok {
		rb = newRingBuffer(h.size)
		h.series[name] = rb
	}
	rb.push(v)
}

// Last returns up to count of the newest values of a series, oldest first.
func (h *History) Last(name string, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rb, ok := h.series[name]
	if !ok {
		return nil
	}
	return rb.getLast(count)
}

// Count returns the number of values stored for a series.
func (h *History) Count(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rb, ok := h.series[name]
	if !ok {
		return 0
	}
	return rb.count
}

// Clear drops every series.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.series = make(map[string]*ringBuffer)
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}

	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)

	// head is the next write position, so the newest value sits at head-1.
	start := (r.head - count + r.size) % r.size

	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}

	return result
}
