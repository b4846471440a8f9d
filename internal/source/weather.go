package source

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/termdash/internal/util"
)

// Weather defaults.
const (
	DefaultWeatherEndpoint = "https://wttr.in"
	DefaultWeatherLocation = "Jalandhar"
	DefaultWeatherFormat   = "3"
	DefaultWeatherInterval = 15 * time.Minute

	// WeatherPlaceholder is shown until the first fetch completes.
	WeatherPlaceholder = "Scanning atmosphere..."
	// WeatherErrorPrefix marks a failed fetch in the cached string.
	WeatherErrorPrefix = "ERR: "

	weatherErrorMax = 20
)

// WeatherConfig configures the weather source.
type WeatherConfig struct {
	Endpoint string
	Location string
	Format   string
	Interval time.Duration
	HTTP     HTTPConfig
}

// Weather polls a wttr.in-style one-line report in the background.
//
// Unlike the other sources a failure is written into the cache, so the
// dashboard shows "ERR: <reason>" until a later fetch succeeds.
type Weather struct {
	remote
	target string
	cell   *Cell[string]
}

// NewWeather returns a weather source. Zero fields in cfg take defaults.
func NewWeather(cfg WeatherConfig, opts ...Option) *Weather {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultWeatherEndpoint
	}
	if cfg.Location == "" {
		cfg.Location = DefaultWeatherLocation
	}
	if cfg.Format == "" {
		cfg.Format = DefaultWeatherFormat
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWeatherInterval
	}

	target := strings.TrimRight(cfg.Endpoint, "/") + "/" + url.PathEscape(cfg.Location) +
		"?" + url.Values{"format": {cfg.Format}}.Encode()

	return &Weather{
		remote: newRemote(NameWeather, cfg.Interval, cfg.HTTP, opts),
		target: target,
		cell:   NewCell(WeatherPlaceholder),
	}
}

// Read returns the cached report and starts a background fetch when the
// gate is open.
func (w *Weather) Read() string {
	w.launch(w.fetch)
	return w.cell.Load()
}

func (w *Weather) fetch(ctx context.Context) error {
	body, err := w.get(ctx, w.target)
	if err == nil && strings.TrimSpace(string(body)) == "" {
		err = ErrEmptyBody
	}

	if w.closed.Load() {
		return err
	}

	switch {
	case err == nil:
		w.cell.Store(strings.TrimSpace(string(body)), w.clock())
	case errors.Is(err, ErrEmptyBody):
		// keep whatever was shown before
	default:
		w.cell.Store(FormatWeatherError(err), w.clock())
	}
	return err
}

// FormatWeatherError renders err as the short cached error string.
func FormatWeatherError(err error) string {
	return WeatherErrorPrefix + util.Cut(errorMessage(err), weatherErrorMax, "..")
}
