package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/termdash/internal/errors"
)

const (
	// ConfigFileName is the per-directory config file name.
	ConfigFileName = ".termdash.yaml"
	// GlobalConfigDir is the directory for the user config, relative to home.
	GlobalConfigDir = ".config/termdash"
	// GlobalConfigFile is the user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. TERMDASH_WEATHER_LOCATION.
	EnvPrefix = "TERMDASH"
	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"
)

// Load reads config from path, with environment overrides applied.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'termdash config init' to create one, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .termdash.yaml in the current directory
// 3. ~/.config/termdash/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalConfigPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalConfigPath is ~/.config/termdash/config.yaml, or empty when the home
// directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads the config found by Find(explicit), or defaults with
// environment overrides when there is no file. A .env file in the working
// directory is loaded first; it never overrides variables already set.
// The returned path is empty when no file was used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	_ = godotenv.Load(DotEnvFile)

	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	cfg.VCS.Dir = ExpandTilde(Expand(cfg.VCS.Dir))
	cfg.Log.File = ExpandTilde(Expand(cfg.Log.File))

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("refresh", d.Refresh)

	v.SetDefault("intervals.cpu", d.Intervals.CPU)
	v.SetDefault("intervals.network", d.Intervals.Network)
	v.SetDefault("intervals.processes", d.Intervals.Processes)
	v.SetDefault("intervals.memory", d.Intervals.Memory)
	v.SetDefault("intervals.storage", d.Intervals.Storage)
	v.SetDefault("intervals.power", d.Intervals.Power)
	v.SetDefault("intervals.sensors", d.Intervals.Sensors)
	v.SetDefault("intervals.uptime", d.Intervals.Uptime)

	v.SetDefault("crypto.enabled", d.Crypto.Enabled)
	v.SetDefault("crypto.assets", d.Crypto.Assets)
	v.SetDefault("crypto.currency", d.Crypto.Currency)
	v.SetDefault("crypto.endpoint", d.Crypto.Endpoint)
	v.SetDefault("crypto.interval", d.Crypto.Interval)
	v.SetDefault("crypto.timeout", d.Crypto.Timeout)

	v.SetDefault("weather.enabled", d.Weather.Enabled)
	v.SetDefault("weather.location", d.Weather.Location)
	v.SetDefault("weather.endpoint", d.Weather.Endpoint)
	v.SetDefault("weather.format", d.Weather.Format)
	v.SetDefault("weather.interval", d.Weather.Interval)
	v.SetDefault("weather.timeout", d.Weather.Timeout)

	v.SetDefault("vcs.dir", d.VCS.Dir)
	v.SetDefault("vcs.timeout", d.VCS.Timeout)
	v.SetDefault("vcs.throttle", d.VCS.Throttle)

	v.SetDefault("processes.top", d.Processes.Top)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("metrics.listen", d.Metrics.Listen)
}
