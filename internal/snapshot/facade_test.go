package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/exec"
	"github.com/rileyhilliard/termdash/internal/probe"
	probetest "github.com/rileyhilliard/termdash/internal/probe/testing"
	"github.com/rileyhilliard/termdash/internal/source"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type branchRunner struct{ branch string }

func (r branchRunner) Run(ctx context.Context, dir, name string, args ...string) (exec.Output, error) {
	return exec.Output{Stdout: []byte(r.branch + "\n")}, nil
}

func newTestProbe() *probetest.FakeProbe {
	fp := probetest.NewFakeProbe()
	fp.Cores = 2
	fp.OS = "ubuntu 22.04"
	fp.Ticks = counters.CPUTicks{User: 100, Idle: 100}
	fp.Net = []counters.NetCounters{{Name: "eth0"}}
	fp.Mem = probe.Memory{Total: 8 << 30, Used: 2 << 30, Available: 6 << 30}
	fp.Disks = []probe.Filesystem{
		{Device: "/dev/sda1", Total: 100, Free: 40},
		{Device: "/dev/sdb1", Total: 300, Free: 260},
	}
	fp.Up = 26*time.Hour + 5*time.Minute
	fp.Procs = []counters.ProcessSample{
		{PID: 1, Name: "init", Threads: 1},
		{PID: 42, Name: "postgres", Threads: 12},
	}
	fp.Fans = []int{1850, 900}
	fp.CPUTemp = 54.5
	return fp
}

func newFacade(t *testing.T, p probe.Probe, cfg Config) *Facade {
	t.Helper()
	f, err := New(context.Background(), p, cfg)
	require.NoError(t, err)
	return f
}

func TestFacade_LocalReads(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fp := newTestProbe()

	f := newFacade(t, fp, Config{
		Intervals: Intervals{Processes: time.Second},
		VCS:       source.VCSConfig{Runner: branchRunner{branch: "main"}},
		Options:   []source.Option{source.WithClock(clock.Now)},
	})
	defer f.Close()

	assert.Equal(t, "ubuntu 22.04", f.OSName())
	assert.Zero(t, f.CPULoad(), "baseline only")

	fp.Update(func(p *probetest.FakeProbe) {
		p.Ticks = counters.CPUTicks{User: 150, Idle: 150}
		p.Net = []counters.NetCounters{{Name: "eth0", BytesRecv: 4096, BytesSent: 1024}}
		p.Procs = []counters.ProcessSample{
			{PID: 1, Name: "init", Threads: 1},
			{PID: 42, Name: "postgres", CPUTime: 2 * time.Second, Threads: 12},
		}
	})
	clock.Advance(2 * time.Second)

	assert.InDelta(t, 0.5, f.CPULoad(), 1e-9)
	down, up := f.NetworkSpeed()
	assert.InDelta(t, 2048, down, 1e-9)
	assert.InDelta(t, 512, up, 1e-9)

	assert.Equal(t, uint64(2<<30), f.Memory().Used)
	assert.InDelta(t, 0.25, f.StorageUsage(), 1e-9)
	assert.Equal(t, "1d 02h 05m", f.Uptime())
	assert.Equal(t, NoBattery, f.Battery())
	assert.Equal(t, "1850 RPM", f.FanSpeed())
	assert.InDelta(t, 54.5, f.CPUTemperature(), 1e-9)
	assert.Equal(t, 2, f.ProcessCount())
	assert.Equal(t, 13, f.ThreadCount())

	top := f.TopProcesses(1)
	require.Len(t, top, 1)
	assert.Equal(t, "postgres", top[0].Name)
	assert.InDelta(t, 50, top[0].Percent, 1e-9)

	assert.Equal(t, "main", f.Branch())
}

func TestFacade_ReadsHitCacheWithinInterval(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fp := newTestProbe()

	f := newFacade(t, fp, Config{
		Options: []source.Option{source.WithClock(clock.Now)},
	})

	for i := 0; i < 10; i++ {
		f.CPULoad()
		f.Memory()
		f.Frame(5)
	}

	assert.Equal(t, 1, fp.Calls("CPUTicks"))
	assert.Equal(t, 1, fp.Calls("Memory"))
	assert.Equal(t, 1, fp.Calls("Processes"))
	assert.Equal(t, 1, fp.Calls("OSName"))
}

func TestFacade_BatteryPresent(t *testing.T) {
	fp := newTestProbe()
	fp.Bat = &probe.Battery{Percent: 87.4, OnAC: false}

	f := newFacade(t, fp, Config{})
	assert.Equal(t, "87% (BAT)", f.Battery())
}

func TestFacade_CapabilityFailuresUseSentinels(t *testing.T) {
	fp := newTestProbe()
	fp.BatErr = errors.New("sysfs unreadable")
	fp.FansErr = errors.New("no hwmon")
	fp.TempErr = errors.New("no sensors")
	fp.Fans = nil
	fp.OSErr = errors.New("no host info")

	f := newFacade(t, fp, Config{})
	assert.Equal(t, NoBattery, f.Battery())
	assert.Equal(t, NoFan, f.FanSpeed())
	assert.Zero(t, f.CPUTemperature())
	assert.Equal(t, "unknown", f.OSName())
}

func TestFacade_BaselineFailure(t *testing.T) {
	tests := []struct {
		name string
		fail func(fp *probetest.FakeProbe)
	}{
		{name: "cpu ticks", fail: func(fp *probetest.FakeProbe) { fp.TicksErr = errors.New("no /proc/stat") }},
		{name: "net counters", fail: func(fp *probetest.FakeProbe) { fp.NetErr = errors.New("no /proc/net/dev") }},
		{name: "process table", fail: func(fp *probetest.FakeProbe) { fp.ProcsErr = errors.New("permission denied") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newTestProbe()
			tt.fail(fp)

			f, err := New(context.Background(), fp, Config{})
			require.Error(t, err)
			assert.Nil(t, f)
			assert.Contains(t, err.Error(), "baselines")
		})
	}
}

func TestFacade_DisabledRemoteSources(t *testing.T) {
	f := newFacade(t, newTestProbe(), Config{})

	assert.Empty(t, f.Weather())
	p := f.CryptoPrices()
	assert.False(t, p.Loaded())
	assert.Empty(t, p.Values)
	assert.Nil(t, f.CryptoAssets())
	f.Wait()
	f.Close()
}

func TestFacade_FrameWithRemoteSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/price":
			fmt.Fprint(w, `{"bitcoin":{"usd":42000}}`)
		default:
			fmt.Fprint(w, "Jalandhar: ⛅️ +25°C")
		}
	}))
	defer srv.Close()

	f := newFacade(t, newTestProbe(), Config{
		CryptoEnabled:  true,
		Crypto:         source.CryptoConfig{Endpoint: srv.URL + "/price", Assets: []string{"bitcoin", "monero"}},
		WeatherEnabled: true,
		Weather:        source.WeatherConfig{Endpoint: srv.URL},
	})
	defer f.Close()

	first := f.Frame(5)
	assert.Equal(t, source.WeatherPlaceholder, first.Weather)
	assert.False(t, first.Crypto.Loaded())

	f.Wait()
	frame := f.Frame(5)
	assert.Equal(t, "Jalandhar: ⛅️ +25°C", frame.Weather)
	assert.True(t, frame.Crypto.Loaded())
	assert.InDelta(t, 42000, frame.Crypto.Values["bitcoin"], 1e-9)
	assert.Zero(t, frame.Crypto.Values["monero"])
	assert.Equal(t, []string{"bitcoin", "monero"}, frame.CryptoAssets)
	assert.Equal(t, "ubuntu 22.04", frame.OSName)
	assert.Len(t, frame.TopProcesses, 2)
}

func TestFacade_ConcurrentReaders(t *testing.T) {
	fp := newTestProbe()
	f := newFacade(t, fp, Config{Intervals: Intervals{CPU: time.Millisecond}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				load := f.CPULoad()
				assert.GreaterOrEqual(t, load, 0.0)
				assert.LessOrEqual(t, load, 1.0)
				f.Frame(3)
			}
		}()
	}
	wg.Wait()
}
