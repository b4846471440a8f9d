package source

import (
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu      sync.Mutex
	started []string
	results []Result
}

func (o *recordingObserver) FetchStarted(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, source)
}

func (o *recordingObserver) FetchFinished(r Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, r)
}

func (o *recordingObserver) Results() []Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Result(nil), o.results...)
}

func (o *recordingObserver) Failures() int {
	n := 0
	for _, r := range o.Results() {
		if !r.OK {
			n++
		}
	}
	return n
}
