package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/termdash/internal/config"
	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/probe"
	"github.com/rileyhilliard/termdash/internal/snapshot"
	"github.com/rileyhilliard/termdash/internal/source"
)

type fakeSnapshotReader struct {
	frames []snapshot.Frame
	reads  int
	waited bool
}

func (r *fakeSnapshotReader) Frame(topN int) snapshot.Frame {
	f := r.frames[min(r.reads, len(r.frames)-1)]
	r.reads++
	return f
}

func (r *fakeSnapshotReader) Branch() string { return "main" }

func (r *fakeSnapshotReader) Wait() { r.waited = true }

func testFrame() snapshot.Frame {
	return snapshot.Frame{
		OSName:         "ubuntu 22.04",
		Uptime:         "0d 03h 12m",
		CPULoad:        0.25,
		CPUTemperature: 48,
		FanSpeed:       snapshot.NoFan,
		Memory:         probe.Memory{Total: 16 << 30, Used: 4 << 30},
		StorageUsage:   0.5,
		Download:       1536,
		Upload:         100,
		Battery:        snapshot.NoBattery,
		ProcessCount:   120,
		ThreadCount:    900,
		TopProcesses: []counters.ProcessUsage{
			{PID: 42, Name: "postgres", Percent: 12.5},
		},
		CryptoAssets: []string{"bitcoin", "monero"},
		Crypto: source.Prices{
			Currency: "usd",
			Values:   map[string]float64{"bitcoin": 42000, "monero": 150.25},
			Updated:  time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		},
		Weather: "Jalandhar: +25°C",
	}
}

func TestCollectSnapshot(t *testing.T) {
	first := snapshot.Frame{OSName: "baseline"}
	r := &fakeSnapshotReader{frames: []snapshot.Frame{first, testFrame()}}

	f, branch := collectSnapshot(context.Background(), r, 5, 10*time.Millisecond)

	assert.Equal(t, 2, r.reads)
	assert.True(t, r.waited)
	assert.Equal(t, "ubuntu 22.04", f.OSName)
	assert.Equal(t, "main", branch)
}

func TestCollectSnapshot_CancelledWarmup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeSnapshotReader{frames: []snapshot.Frame{testFrame()}}
	start := time.Now()
	collectSnapshot(ctx, r, 5, time.Hour)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 2, r.reads)
}

func TestWriteSnapshotText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshotText(&buf, testFrame(), "main"))

	out := buf.String()
	for _, want := range []string{
		"METRIC",
		"ubuntu 22.04",
		"main",
		"25%",
		"48.0°C",
		"4.0 GB / 16.0 GB (25%)",
		"1.5 KB/s",
		"100 B/s",
		"AC POWER",
		"120 procs, 900 threads",
		"BTC",
		"42,000.00 USD",
		"XMR",
		"150.25 USD",
		"Jalandhar: +25°C",
		"postgres",
		"12.5",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteSnapshotText_Pending(t *testing.T) {
	f := testFrame()
	f.Crypto.Updated = time.Time{}
	f.Weather = ""
	f.CPUTemperature = 0

	var buf bytes.Buffer
	require.NoError(t, writeSnapshotText(&buf, f, ""))

	out := buf.String()
	assert.Contains(t, out, "loading")
	assert.Contains(t, out, "N/A")
	assert.NotContains(t, out, "weather")
}

func TestWriteSnapshotJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshotJSON(&buf, testFrame(), "main"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "main", got["branch"])
	assert.Equal(t, "ubuntu 22.04", got["os"])
	assert.InDelta(t, 0.25, got["cpu_load"], 1e-9)
	assert.Equal(t, "Jalandhar: +25°C", got["weather"])

	crypto, ok := got["crypto"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "usd", crypto["currency"])
}

func TestRunDashboard_NotATerminal(t *testing.T) {
	_, cwd := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(cwd, config.ConfigFileName),
		[]byte("crypto:\n  enabled: false\nweather:\n  enabled: false\n"), 0644))

	saved := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	defer func() { stdoutIsTerminal = saved }()

	cmd, out, _ := outputCommand()
	addGlobalFlags(cmd, &flags)
	require.NoError(t, runDashboard(cmd))

	assert.Contains(t, out.String(), "METRIC")
	assert.Contains(t, out.String(), "uptime")
	assert.NotContains(t, out.String(), "BTC")
}
