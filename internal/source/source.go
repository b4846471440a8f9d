// Package source implements the metric sources behind the dashboard.
//
// Every source pairs a gate with a cache cell. Reads always return the cached
// value immediately; a read that finds the gate open also starts a refresh,
// inline for local probes and on a goroutine for network fetches. The cache
// cell is written before the gate is released, so a reader that sees the gate
// closed again also sees the new value.
package source

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/termdash/internal/gate"
	"github.com/rileyhilliard/termdash/internal/logger"
)

// Source names, used in results, logs and metrics labels.
const (
	NameCPU       = "cpu"
	NameNetwork   = "network"
	NameProcesses = "processes"
	NameMemory    = "memory"
	NameStorage   = "storage"
	NamePower     = "power"
	NameSensors   = "sensors"
	NameUptime    = "uptime"
	NameCrypto    = "crypto"
	NameWeather   = "weather"
	NameVCS       = "vcs"
)

// Clock returns the current time. Tests substitute a controllable one.
type Clock func() time.Time

// Result describes one completed fetch.
type Result struct {
	Source   string
	OK       bool
	Err      error
	Duration time.Duration
	At       time.Time
}

// Observer is told about every fetch a source starts and finishes.
type Observer interface {
	FetchStarted(source string)
	FetchFinished(r Result)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) FetchStarted(string)  {}
func (NopObserver) FetchFinished(Result) {}

// LogObserver logs failures at warn and successes at debug.
type LogObserver struct {
	Log logger.Logger
}

func (o LogObserver) FetchStarted(source string) {
	o.Log.Debug("[%s] fetch started", source)
}

func (o LogObserver) FetchFinished(r Result) {
	if r.OK {
		o.Log.Debug("[%s] fetch ok in %s", r.Source, r.Duration)
		return
	}
	o.Log.Warn("[%s] fetch failed after %s: %v", r.Source, r.Duration, r.Err)
}

// Observers fans out to several observers in order.
type Observers []Observer

func (obs Observers) FetchStarted(source string) {
	for _, o := range obs {
		o.FetchStarted(source)
	}
}

func (obs Observers) FetchFinished(r Result) {
	for _, o := range obs {
		o.FetchFinished(r)
	}
}

// Cell holds the latest value of a source. Safe for concurrent use.
type Cell[T any] struct {
	mu      sync.RWMutex
	value   T
	updated time.Time
}

// NewCell returns a cell holding initial, with a zero update time.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Load returns the current value.
func (c *Cell[T]) Load() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// LoadWithTime returns the current value and when it was stored.
func (c *Cell[T]) LoadWithTime() (T, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.updated
}

// Store replaces the value.
func (c *Cell[T]) Store(v T, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.updated = at
}

// Update replaces the value with fn(current) under the write lock.
func (c *Cell[T]) Update(fn func(T) T, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	c.updated = at
}

// DefaultProbeTimeout bounds each local probe call.
const DefaultProbeTimeout = 2 * time.Second

// Option configures a source.
type Option func(*settings)

type settings struct {
	clock        Clock
	observer     Observer
	probeTimeout time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{
		clock:        time.Now,
		observer:     NopObserver{},
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithObserver sets the fetch observer.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithProbeTimeout bounds each local probe call.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// gated is the shared begin/end bookkeeping of every source.
type gated struct {
	name string
	gate *gate.Gate
	settings
}

func newGated(name string, interval time.Duration, opts []Option) gated {
	return gated{
		name:     name,
		gate:     gate.New(interval),
		settings: newSettings(opts),
	}
}

// begin reserves the gate. ok is false when the caller should just read
// the cache.
func (g *gated) begin() (start time.Time, ok bool) {
	start = g.clock()
	if !g.gate.TryStart(start) {
		return start, false
	}
	g.observer.FetchStarted(g.name)
	return start, true
}

// end releases the gate and reports the outcome. Callers store into the
// cache before calling end.
func (g *gated) end(start time.Time, err error) {
	now := g.clock()
	g.gate.Finish(now, err == nil)
	g.observer.FetchFinished(Result{
		Source:   g.name,
		OK:       err == nil,
		Err:      err,
		Duration: now.Sub(start),
		At:       now,
	})
}

func (g *gated) probeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), g.probeTimeout)
}

// Name returns the source name.
func (g *gated) Name() string {
	return g.name
}

// GateState exposes the gate bookkeeping for diagnostics.
func (g *gated) GateState() gate.State {
	return g.gate.State()
}
