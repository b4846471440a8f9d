// Package snapshot exposes every metric the dashboard shows through one
// read-only facade. Each method returns the owning source's cached value;
// only Branch can block.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/probe"
	"github.com/rileyhilliard/termdash/internal/source"
)

// Intervals are the minimum refresh intervals of the local sources.
type Intervals struct {
	CPU       time.Duration
	Network   time.Duration
	Processes time.Duration
	Memory    time.Duration
	Storage   time.Duration
	Power     time.Duration
	Sensors   time.Duration
	Uptime    time.Duration
}

// DefaultIntervals returns the built-in local refresh intervals.
func DefaultIntervals() Intervals {
	return Intervals{
		CPU:       source.DefaultCPUInterval,
		Network:   source.DefaultNetworkInterval,
		Processes: source.DefaultProcessesInterval,
		Memory:    time.Second,
		Storage:   30 * time.Second,
		Power:     10 * time.Second,
		Sensors:   2 * time.Second,
		Uptime:    30 * time.Second,
	}
}

// Config wires the facade's sources.
type Config struct {
	Intervals Intervals

	CryptoEnabled  bool
	Crypto         source.CryptoConfig
	WeatherEnabled bool
	Weather        source.WeatherConfig
	VCS            source.VCSConfig

	// Options are applied to every source (clock, observer, probe timeout).
	Options []source.Option
}

// Sensors groups the readings that come from hardware monitors.
type Sensors struct {
	CPUTemperature float64
	Fans           []int
}

// Facade owns one instance of every source.
type Facade struct {
	cpu       *source.CPU
	network   *source.Network
	processes *source.Processes
	memory    *source.Polled[probe.Memory]
	storage   *source.Polled[float64]
	power     *source.Polled[*probe.Battery]
	sensors   *source.Polled[Sensors]
	uptime    *source.Polled[time.Duration]
	crypto    *source.Crypto
	weather   *source.Weather
	vcs       *source.VCS

	osName string
}

// New builds the facade on top of p. It reads the OS name once and takes
// the first counter baselines so rates are available after one interval.
// It fails when the probe cannot serve those baselines.
func New(ctx context.Context, p probe.Probe, cfg Config) (*Facade, error) {
	iv := cfg.Intervals
	def := DefaultIntervals()
	pick := func(v, d time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return d
	}
	opts := cfg.Options

	f := &Facade{
		cpu:       source.NewCPU(p, pick(iv.CPU, def.CPU), opts...),
		network:   source.NewNetwork(p, pick(iv.Network, def.Network), opts...),
		processes: source.NewProcesses(p, pick(iv.Processes, def.Processes), opts...),
		memory:    source.NewPolled(source.NameMemory, pick(iv.Memory, def.Memory), probe.Memory{}, p.Memory, opts...),
		storage: source.NewPolled(source.NameStorage, pick(iv.Storage, def.Storage), 0.0,
			func(ctx context.Context) (float64, error) {
				fss, err := p.Filesystems(ctx)
				if err != nil {
					return 0, err
				}
				return StorageRatio(fss), nil
			}, opts...),
		power: source.NewPolled(source.NamePower, pick(iv.Power, def.Power), (*probe.Battery)(nil), p.Battery, opts...),
		sensors: source.NewPolled(source.NameSensors, pick(iv.Sensors, def.Sensors), Sensors{},
			func(ctx context.Context) (Sensors, error) {
				return readSensors(ctx, p)
			}, opts...),
		uptime: source.NewPolled(source.NameUptime, pick(iv.Uptime, def.Uptime), time.Duration(0), p.Uptime, opts...),
		vcs:    source.NewVCS(cfg.VCS, opts...),
	}

	if cfg.CryptoEnabled {
		f.crypto = source.NewCrypto(cfg.Crypto, opts...)
	}
	if cfg.WeatherEnabled {
		f.weather = source.NewWeather(cfg.Weather, opts...)
	}

	if name, err := p.OSName(ctx); err == nil && name != "" {
		f.osName = name
	} else {
		f.osName = "unknown"
	}

	if err := errors.Join(f.cpu.Baseline(), f.network.Baseline(), f.processes.Baseline()); err != nil {
		f.Close()
		return nil, fmt.Errorf("take counter baselines: %w", err)
	}
	return f, nil
}

func readSensors(ctx context.Context, p probe.Probe) (Sensors, error) {
	temp, tempErr := p.CPUTemperature(ctx)
	fans, fanErr := p.FanSpeeds(ctx)
	if tempErr != nil && fanErr != nil {
		return Sensors{}, errors.Join(tempErr, fanErr)
	}
	return Sensors{CPUTemperature: temp, Fans: fans}, nil
}

// CPULoad is the busy fraction in [0, 1].
func (f *Facade) CPULoad() float64 { return f.cpu.Read() }

// CPUTemperature is in degrees Celsius, 0 when unavailable.
func (f *Facade) CPUTemperature() float64 { return f.sensors.Read().CPUTemperature }

func (f *Facade) Memory() probe.Memory { return f.memory.Read() }

// StorageUsage is the used fraction across filesystems.
func (f *Facade) StorageUsage() float64 { return f.storage.Read() }

// NetworkSpeed returns download and upload rates in bytes per second.
func (f *Facade) NetworkSpeed() (down, up float64) {
	tp := f.network.Read()
	return tp.RecvPerSec, tp.SentPerSec
}

// Battery is "NN% (CHR)", "NN% (BAT)" or "AC POWER".
func (f *Facade) Battery() string { return FormatBattery(f.power.Read()) }

// Uptime is "{d}d {hh}h {mm}m".
func (f *Facade) Uptime() string { return FormatUptime(f.uptime.Read()) }

func (f *Facade) ProcessCount() int { return f.processes.Read().Count }

func (f *Facade) ThreadCount() int { return f.processes.Read().Threads }

// OSName was read once when the facade was built.
func (f *Facade) OSName() string { return f.osName }

// FanSpeed is "N RPM" for the first fan, or "N/A".
func (f *Facade) FanSpeed() string { return FormatFan(f.sensors.Read().Fans) }

// TopProcesses returns up to n processes by CPU share.
func (f *Facade) TopProcesses(n int) []counters.ProcessUsage {
	return counters.Top(f.processes.Read().Usage, n)
}

// CryptoPrices returns the price table. With crypto disabled it is empty
// and never loaded.
func (f *Facade) CryptoPrices() source.Prices {
	if f.crypto == nil {
		return source.Prices{Values: map[string]float64{}}
	}
	return f.crypto.Read()
}

// CryptoAssets lists the tracked assets in display order.
func (f *Facade) CryptoAssets() []string {
	if f.crypto == nil {
		return nil
	}
	return f.crypto.Assets()
}

// Weather is the one-line report, a placeholder, or an "ERR: " string.
// Empty when weather is disabled.
func (f *Facade) Weather() string {
	if f.weather == nil {
		return ""
	}
	return f.weather.Read()
}

// Branch runs git and may block up to the VCS timeout.
func (f *Facade) Branch() string { return f.vcs.Read() }

// Frame is every non-blocking reading for one render pass.
type Frame struct {
	At             time.Time               `json:"at"`
	OSName         string                  `json:"os"`
	Uptime         string                  `json:"uptime"`
	CPULoad        float64                 `json:"cpu_load"`
	CPUTemperature float64                 `json:"cpu_temperature"`
	FanSpeed       string                  `json:"fan_speed"`
	Memory         probe.Memory            `json:"memory"`
	StorageUsage   float64                 `json:"storage_usage"`
	Download       float64                 `json:"download_bps"`
	Upload         float64                 `json:"upload_bps"`
	Battery        string                  `json:"battery"`
	ProcessCount   int                     `json:"process_count"`
	ThreadCount    int                     `json:"thread_count"`
	TopProcesses   []counters.ProcessUsage `json:"top_processes"`
	CryptoAssets   []string                `json:"crypto_assets,omitempty"`
	Crypto         source.Prices           `json:"crypto"`
	Weather        string                  `json:"weather,omitempty"`
}

// Frame collects one reading of everything except the branch.
func (f *Facade) Frame(topN int) Frame {
	down, up := f.NetworkSpeed()
	procs := f.processes.Read()
	sensors := f.sensors.Read()
	return Frame{
		At:             time.Now(),
		OSName:         f.OSName(),
		Uptime:         f.Uptime(),
		CPULoad:        f.CPULoad(),
		CPUTemperature: sensors.CPUTemperature,
		FanSpeed:       FormatFan(sensors.Fans),
		Memory:         f.Memory(),
		StorageUsage:   f.StorageUsage(),
		Download:       down,
		Upload:         up,
		Battery:        f.Battery(),
		ProcessCount:   procs.Count,
		ThreadCount:    procs.Threads,
		TopProcesses:   counters.Top(procs.Usage, topN),
		CryptoAssets:   f.CryptoAssets(),
		Crypto:         f.CryptoPrices(),
		Weather:        f.Weather(),
	}
}

// Wait blocks until background fetches already started have finished.
func (f *Facade) Wait() {
	if f.crypto != nil {
		f.crypto.Wait()
	}
	if f.weather != nil {
		f.weather.Wait()
	}
}

// Close stops background sources. Reads still return cached values.
func (f *Facade) Close() {
	if f.crypto != nil {
		f.crypto.Close()
	}
	if f.weather != nil {
		f.weather.Close()
	}
}
