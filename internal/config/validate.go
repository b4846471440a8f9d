package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/termdash/internal/errors"
)

const (
	// MinRefresh is the fastest the dashboard will redraw.
	MinRefresh = 250 * time.Millisecond
	// MaxNetworkTimeout bounds the crypto and weather request timeouts.
	MaxNetworkTimeout = 10 * time.Second
	// MaxTop bounds the process table length.
	MaxTop = 50
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"console": true, "json": true}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but termdash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest termdash release.")
	}

	if cfg.Refresh < MinRefresh {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh %v is too fast - the minimum is %v", cfg.Refresh, MinRefresh),
			"Set 'refresh' to something like '500ms' or '1s'.")
	}

	if err := validateIntervals(cfg.Intervals); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'intervals' section in your .termdash.yaml.")
	}

	if err := validateCrypto(cfg.Crypto); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'crypto' section in your .termdash.yaml.")
	}

	if err := validateWeather(cfg.Weather); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'weather' section in your .termdash.yaml.")
	}

	if cfg.VCS.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			"vcs.timeout needs to be positive",
			"Try '2s'.")
	}

	if cfg.Processes.Top < 1 || cfg.Processes.Top > MaxTop {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("processes.top needs to be 1-%d (got %d)", MaxTop, cfg.Processes.Top),
			"The process table shows the busiest processes; 5 is a good default.")
	}

	if err := validateLog(cfg.Log); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'log' section in your .termdash.yaml.")
	}

	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("metrics.listen '%s' isn't a host:port address", cfg.Metrics.Listen),
				"Use something like '127.0.0.1:9273', or leave it empty to disable metrics.")
		}
	}

	return nil
}

func validateIntervals(iv IntervalsConfig) error {
	for _, it := range []struct {
		name string
		d    time.Duration
	}{
		{"cpu", iv.CPU},
		{"network", iv.Network},
		{"processes", iv.Processes},
		{"memory", iv.Memory},
		{"storage", iv.Storage},
		{"power", iv.Power},
		{"sensors", iv.Sensors},
		{"uptime", iv.Uptime},
	} {
		if it.d <= 0 {
			return fmt.Errorf("intervals.%s needs to be positive (got %v)", it.name, it.d)
		}
	}
	return nil
}

func validateCrypto(c CryptoConfig) error {
	if !c.Enabled {
		return nil
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("crypto.assets is empty - list at least one coin id or set crypto.enabled to false")
	}
	for i, a := range c.Assets {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("crypto.assets has an empty entry at position %d", i)
		}
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("crypto.currency is empty - try 'usd'")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("crypto.interval needs to be positive (got %v)", c.Interval)
	}
	if err := validateTimeout("crypto", c.Timeout); err != nil {
		return err
	}
	return validateEndpoint("crypto", c.Endpoint)
}

func validateWeather(w WeatherConfig) error {
	if !w.Enabled {
		return nil
	}
	if strings.TrimSpace(w.Location) == "" {
		return fmt.Errorf("weather.location is empty - set a city name or set weather.enabled to false")
	}
	if w.Interval <= 0 {
		return fmt.Errorf("weather.interval needs to be positive (got %v)", w.Interval)
	}
	if err := validateTimeout("weather", w.Timeout); err != nil {
		return err
	}
	return validateEndpoint("weather", w.Endpoint)
}

func validateTimeout(section string, d time.Duration) error {
	if d <= 0 || d > MaxNetworkTimeout {
		return fmt.Errorf("%s.timeout needs to be between 0 and %v (got %v)", section, MaxNetworkTimeout, d)
	}
	return nil
}

func validateEndpoint(section, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s.endpoint '%s' doesn't look like an http(s) URL", section, endpoint)
	}
	return nil
}

func validateLog(l LogConfig) error {
	if !validLogLevels[l.Level] {
		return fmt.Errorf("log.level '%s' isn't valid - use 'debug', 'info', 'warn', or 'error'", l.Level)
	}
	if !validLogFormats[l.Format] {
		return fmt.Errorf("log.format '%s' isn't valid - use 'console' or 'json'", l.Format)
	}
	return nil
}
