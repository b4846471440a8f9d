package doctor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/termdash/internal/source"
)

// recorder keeps the last fetch result a source reports.
type recorder struct {
	mu     sync.Mutex
	result source.Result
	seen   bool
}

func (r *recorder) FetchStarted(string) {}

func (r *recorder) FetchFinished(res source.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = res
	r.seen = true
}

func (r *recorder) last() (source.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.seen
}

// CryptoCheck performs one real price fetch.
type CryptoCheck struct {
	Config source.CryptoConfig
}

func (c *CryptoCheck) Name() string     { return "crypto" }
func (c *CryptoCheck) Category() string { return CategoryNetwork }

func (c *CryptoCheck) Run(context.Context) CheckResult {
	rec := &recorder{}
	src := source.NewCrypto(c.Config, source.WithObserver(rec))
	defer src.Close()

	src.Read()
	src.Wait()

	r, ok := rec.last()
	if !ok || !r.OK {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Price API unreachable: %v", r.Err),
			Suggestion: "Check crypto.endpoint and your connection, or set crypto.enabled to false",
		}
	}

	prices := src.Read()
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Price API answered in %s (%d assets in %s)", r.Duration.Round(time.Millisecond), len(prices.Values), prices.Currency),
	}
}

// WeatherCheck performs one real weather fetch.
type WeatherCheck struct {
	Config source.WeatherConfig
}

func (c *WeatherCheck) Name() string     { return "weather" }
func (c *WeatherCheck) Category() string { return CategoryNetwork }

func (c *WeatherCheck) Run(context.Context) CheckResult {
	rec := &recorder{}
	src := source.NewWeather(c.Config, source.WithObserver(rec))
	defer src.Close()

	src.Read()
	src.Wait()

	r, ok := rec.last()
	if !ok || !r.OK {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Weather service unreachable: %v", r.Err),
			Suggestion: "Check weather.endpoint and weather.location, or set weather.enabled to false",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: src.Read(),
	}
}
