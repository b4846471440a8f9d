package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete termdash configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Refresh   time.Duration   `yaml:"refresh" mapstructure:"refresh"`
	Intervals IntervalsConfig `yaml:"intervals" mapstructure:"intervals"`
	Crypto    CryptoConfig    `yaml:"crypto" mapstructure:"crypto"`
	Weather   WeatherConfig   `yaml:"weather" mapstructure:"weather"`
	VCS       VCSConfig       `yaml:"vcs" mapstructure:"vcs"`
	Processes ProcessesConfig `yaml:"processes" mapstructure:"processes"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// IntervalsConfig holds the minimum refresh interval of each local source.
type IntervalsConfig struct {
	CPU       time.Duration `yaml:"cpu" mapstructure:"cpu"`
	Network   time.Duration `yaml:"network" mapstructure:"network"`
	Processes time.Duration `yaml:"processes" mapstructure:"processes"`
	Memory    time.Duration `yaml:"memory" mapstructure:"memory"`
	Storage   time.Duration `yaml:"storage" mapstructure:"storage"`
	Power     time.Duration `yaml:"power" mapstructure:"power"`
	Sensors   time.Duration `yaml:"sensors" mapstructure:"sensors"`
	Uptime    time.Duration `yaml:"uptime" mapstructure:"uptime"`
}

// CryptoConfig controls the price panel.
type CryptoConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Assets are CoinGecko coin ids, shown in this order.
	Assets []string `yaml:"assets" mapstructure:"assets"`

	// Currency is the quote currency, such as "usd".
	Currency string `yaml:"currency" mapstructure:"currency"`

	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// WeatherConfig controls the weather line.
type WeatherConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Location string        `yaml:"location" mapstructure:"location"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Format   string        `yaml:"format" mapstructure:"format"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// VCSConfig controls the branch indicator.
type VCSConfig struct {
	// Dir is the repository to inspect. Empty means the working directory.
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Throttle is how often the dashboard re-reads the branch.
	Throttle time.Duration `yaml:"throttle" mapstructure:"throttle"`
}

// ProcessesConfig controls the process table.
type ProcessesConfig struct {
	Top int `yaml:"top" mapstructure:"top"`
}

// LogConfig controls where diagnostics go. The dashboard owns the terminal,
// so logs are written to a file.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `yaml:"format" mapstructure:"format"`

	// File is the log file path. Supports ~ and ${TMPDIR}.
	File string `yaml:"file" mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a host:port to serve /metrics on. Empty disables it.
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Refresh: 500 * time.Millisecond,
		Intervals: IntervalsConfig{
			CPU:       time.Second,
			Network:   time.Second,
			Processes: 2 * time.Second,
			Memory:    time.Second,
			Storage:   30 * time.Second,
			Power:     10 * time.Second,
			Sensors:   2 * time.Second,
			Uptime:    30 * time.Second,
		},
		Crypto: CryptoConfig{
			Enabled:  true,
			Assets:   []string{"bitcoin", "ethereum", "solana", "dogecoin", "monero"},
			Currency: "usd",
			Endpoint: "https://api.coingecko.com/api/v3/simple/price",
			Interval: 60 * time.Second,
			Timeout:  8 * time.Second,
		},
		Weather: WeatherConfig{
			Enabled:  true,
			Location: "Jalandhar",
			Endpoint: "https://wttr.in",
			Format:   "3",
			Interval: 15 * time.Minute,
			Timeout:  8 * time.Second,
		},
		VCS: VCSConfig{
			Timeout:  2 * time.Second,
			Throttle: 5 * time.Second,
		},
		Processes: ProcessesConfig{
			Top: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   "${TMPDIR}/termdash.log",
		},
	}
}
