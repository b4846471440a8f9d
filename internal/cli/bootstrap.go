package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/termdash/internal/config"
	"github.com/rileyhilliard/termdash/internal/errors"
	"github.com/rileyhilliard/termdash/internal/logger"
	"github.com/rileyhilliard/termdash/internal/probe"
	"github.com/rileyhilliard/termdash/internal/snapshot"
	"github.com/rileyhilliard/termdash/internal/source"
	"github.com/rileyhilliard/termdash/internal/telemetry"
)

const metricsShutdownTimeout = 2 * time.Second

// loadConfig resolves the config file, applies explicit flag overrides and
// validates the result. The returned path is empty when defaults are used.
func loadConfig(cmd *cobra.Command, f *globalFlags) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(f.Config)
	if err != nil {
		return nil, "", err
	}

	applyFlagOverrides(cmd, f, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func applyFlagOverrides(cmd *cobra.Command, f *globalFlags, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("interval") {
		cfg.Refresh = f.Interval
	}
	if fs.Changed("top") {
		cfg.Processes.Top = f.Top
	}
	if fs.Changed("metrics-listen") {
		cfg.Metrics.Listen = f.MetricsListen
	}
}

func colorEnabled(f *globalFlags) bool {
	return !f.NoColor && os.Getenv("NO_COLOR") == ""
}

// newLogger builds the zap logger for a session. The dashboard owns the
// terminal, so it logs to lc.File; one-shot commands log to stderr.
func newLogger(lc config.LogConfig, toFile bool) (*logger.ZapLogger, func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	if toFile {
		out = io.Discard
		if lc.File != "" {
			f, err := logger.OpenFile(lc.File)
			if err != nil {
				return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Can't open log file "+lc.File,
					"Point log.file at a writable path, e.g. 'termdash config set log.file /tmp/termdash.log'.")
			}
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}

	log, err := logger.New(logger.Options{Level: lc.Level, Format: lc.Format, Output: out})
	if err != nil {
		closeFn()
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid log settings",
			"Use log.level debug|info|warn|error and log.format console|json.")
	}
	return log, closeFn, nil
}

// session owns everything a command needs to read metrics.
type session struct {
	cfg      *config.Config
	log      *logger.ZapLogger
	facade   *snapshot.Facade
	metrics  *telemetry.Server
	closeLog func()
}

// newProbe is swapped out in tests.
var newProbe = func(log *logger.ZapLogger) probe.Probe {
	return probe.NewHost(probe.WithLogger(log))
}

func startSession(ctx context.Context, cfg *config.Config, logToFile bool) (*session, error) {
	log, closeLog, err := newLogger(cfg.Log, logToFile)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	s := &session{cfg: cfg, log: log, closeLog: closeLog}

	registry := prometheus.NewRegistry()
	observer := source.Observers{source.LogObserver{Log: log.With("component", "source")}, telemetry.New(registry)}

	if cfg.Metrics.Listen != "" {
		registry.MustRegister(collectors.NewGoCollector())
		srv, err := telemetry.Listen(cfg.Metrics.Listen, registry)
		if err != nil {
			log.Sync()
			closeLog()
			return nil, err
		}
		s.metrics = srv
		log.Info("serving metrics on http://%s/metrics", srv.Addr())
	}

	facade, err := snapshot.New(ctx, newProbe(log.With("component", "probe")), facadeConfig(cfg, observer))
	if err != nil {
		s.shutdownMetrics()
		log.Sync()
		closeLog()
		return nil, errors.WrapWithCode(err, errors.ErrProbe,
			"Cannot read system counters",
			"Run 'termdash doctor' to see which readings are unavailable")
	}
	s.facade = facade
	return s, nil
}

// Close stops background sources and the metrics server, then flushes logs.
func (s *session) Close() {
	s.facade.Close()
	s.shutdownMetrics()
	s.log.Sync()
	s.closeLog()
}

func (s *session) shutdownMetrics() {
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.log.Warn("metrics server shutdown: %v", err)
	}
}

func facadeConfig(cfg *config.Config, observer source.Observer) snapshot.Config {
	userAgent := "termdash/" + version

	return snapshot.Config{
		Intervals: snapshot.Intervals{
			CPU:       cfg.Intervals.CPU,
			Network:   cfg.Intervals.Network,
			Processes: cfg.Intervals.Processes,
			Memory:    cfg.Intervals.Memory,
			Storage:   cfg.Intervals.Storage,
			Power:     cfg.Intervals.Power,
			Sensors:   cfg.Intervals.Sensors,
			Uptime:    cfg.Intervals.Uptime,
		},
		CryptoEnabled: cfg.Crypto.Enabled,
		Crypto: source.CryptoConfig{
			Endpoint: cfg.Crypto.Endpoint,
			Assets:   cfg.Crypto.Assets,
			Currency: cfg.Crypto.Currency,
			Interval: cfg.Crypto.Interval,
			HTTP:     source.HTTPConfig{Timeout: cfg.Crypto.Timeout, UserAgent: userAgent},
		},
		WeatherEnabled: cfg.Weather.Enabled,
		Weather: source.WeatherConfig{
			Endpoint: cfg.Weather.Endpoint,
			Location: cfg.Weather.Location,
			Format:   cfg.Weather.Format,
			Interval: cfg.Weather.Interval,
			HTTP:     source.HTTPConfig{Timeout: cfg.Weather.Timeout, UserAgent: userAgent},
		},
		VCS: source.VCSConfig{
			Dir:     cfg.VCS.Dir,
			Timeout: cfg.VCS.Timeout,
		},
		Options: []source.Option{source.WithObserver(observer)},
	}
}
