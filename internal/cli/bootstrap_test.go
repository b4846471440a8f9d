package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/termdash/internal/config"
	"github.com/rileyhilliard/termdash/internal/errors"
	"github.com/rileyhilliard/termdash/internal/logger"
	"github.com/rileyhilliard/termdash/internal/probe"
	probetest "github.com/rileyhilliard/termdash/internal/probe/testing"
	"github.com/rileyhilliard/termdash/internal/source"
)

// parsedCommand returns a command with the global flags parsed from args.
func parsedCommand(t *testing.T, f *globalFlags, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addGlobalFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	var f globalFlags
	cfg, path, err := loadConfig(parsedCommand(t, &f), &f)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh)
	assert.Equal(t, 5, cfg.Processes.Top)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	_, cwd := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(cwd, config.ConfigFileName),
		[]byte("refresh: 2s\nprocesses:\n  top: 8\n"), 0644))

	var f globalFlags
	cfg, path, err := loadConfig(parsedCommand(t, &f), &f)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, config.ConfigFileName), path)
	assert.Equal(t, 2*time.Second, cfg.Refresh)
	assert.Equal(t, 8, cfg.Processes.Top)

	f = globalFlags{}
	cfg, _, err = loadConfig(parsedCommand(t, &f, "--interval", "750ms", "--metrics-listen", "127.0.0.1:0"), &f)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Refresh)
	assert.Equal(t, 8, cfg.Processes.Top, "unset flags leave the file value alone")
	assert.Equal(t, "127.0.0.1:0", cfg.Metrics.Listen)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	isolate(t)

	var f globalFlags
	_, _, err := loadConfig(parsedCommand(t, &f, "--interval", "100ms"), &f)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	f = globalFlags{}
	_, _, err = loadConfig(parsedCommand(t, &f, "--top", "0"), &f)
	require.Error(t, err)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)

	var f globalFlags
	_, _, err := loadConfig(parsedCommand(t, &f, "--config", "nope.yaml"), &f)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFacadeConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Intervals.CPU = 3 * time.Second
	cfg.Crypto.Assets = []string{"monero"}
	cfg.Weather.Enabled = false
	cfg.VCS.Dir = "/src/project"

	fc := facadeConfig(cfg, source.NopObserver{})

	assert.Equal(t, 3*time.Second, fc.Intervals.CPU)
	assert.Equal(t, cfg.Intervals.Uptime, fc.Intervals.Uptime)

	assert.True(t, fc.CryptoEnabled)
	assert.Equal(t, []string{"monero"}, fc.Crypto.Assets)
	assert.Equal(t, "usd", fc.Crypto.Currency)
	assert.Equal(t, cfg.Crypto.Timeout, fc.Crypto.HTTP.Timeout)
	assert.Equal(t, "termdash/"+version, fc.Crypto.HTTP.UserAgent)

	assert.False(t, fc.WeatherEnabled)
	assert.Equal(t, "Jalandhar", fc.Weather.Location)
	assert.Equal(t, "3", fc.Weather.Format)

	assert.Equal(t, "/src/project", fc.VCS.Dir)
	assert.Nil(t, fc.VCS.Runner)
	assert.Len(t, fc.Options, 1)
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "termdash.log")

	log, closeLog, err := newLogger(config.LogConfig{Level: "info", Format: "json", File: path}, true)
	require.NoError(t, err)
	log.Info("hello %s", "file")
	log.Sync()
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")

	_, _, err = newLogger(config.LogConfig{Level: "loud"}, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, _, err = newLogger(config.LogConfig{File: filepath.Join(dir, "missing", "x.log")}, true)
	require.Error(t, err)
}

func TestStartSession_MetricsEndpoint(t *testing.T) {
	isolate(t)

	cfg := config.DefaultConfig()
	cfg.Crypto.Enabled = false
	cfg.Weather.Enabled = false
	cfg.Metrics.Listen = "127.0.0.1:0"
	cfg.Log.File = ""

	s, err := startSession(t.Context(), cfg, true)
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.metrics)
	assert.NotEmpty(t, s.metrics.Addr())

	var buf bytes.Buffer
	require.NoError(t, writeSnapshotText(&buf, s.facade.Frame(3), ""))
	assert.Contains(t, buf.String(), "METRIC")
}

func TestStartSession_CountersUnavailable(t *testing.T) {
	isolate(t)

	fp := probetest.NewFakeProbe()
	fp.TicksErr = os.ErrPermission
	saved := newProbe
	newProbe = func(*logger.ZapLogger) probe.Probe { return fp }
	defer func() { newProbe = saved }()

	cfg := config.DefaultConfig()
	cfg.Crypto.Enabled = false
	cfg.Weather.Enabled = false
	cfg.Metrics.Listen = "127.0.0.1:0"

	s, err := startSession(t.Context(), cfg, true)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.IsCode(err, errors.ErrProbe))
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "termdash doctor")
}

func TestStartSession_SourceLogsCarryComponent(t *testing.T) {
	isolate(t)

	fp := probetest.NewFakeProbe()
	saved := newProbe
	newProbe = func(*logger.ZapLogger) probe.Probe { return fp }
	defer func() { newProbe = saved }()

	cfg := config.DefaultConfig()
	cfg.Crypto.Enabled = false
	cfg.Weather.Enabled = false
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	cfg.Log.File = filepath.Join(t.TempDir(), "termdash.log")

	s, err := startSession(t.Context(), cfg, true)
	require.NoError(t, err)
	s.Close()

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"source"`)
	assert.Contains(t, string(data), "[cpu] fetch started")
}
