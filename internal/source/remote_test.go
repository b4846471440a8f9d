package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/termdash/internal/exec"
)

func TestCrypto_InitialPricesNotLoaded(t *testing.T) {
	c := NewCrypto(CryptoConfig{Endpoint: "http://127.0.0.1:1/unused"})
	c.Close()

	p := c.Read()
	assert.False(t, p.Loaded())
	assert.Equal(t, "usd", p.Currency)
	assert.Len(t, p.Values, 5)
	for _, asset := range DefaultCryptoAssets {
		assert.Contains(t, p.Values, asset)
		assert.Zero(t, p.Values[asset])
	}
}

func TestCrypto_RequestAndPartialUpdate(t *testing.T) {
	var mu sync.Mutex
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.Query().Get("ids") + "|" + r.URL.Query().Get("vs_currencies")
		gotUA = r.Header.Get("User-Agent")
		mu.Unlock()
		fmt.Fprint(w, `{"bitcoin":{"usd":64000.5},"monero":{"usd":150},"unknowncoin":{"usd":1}}`)
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := NewCrypto(CryptoConfig{
		Endpoint: srv.URL,
		HTTP:     HTTPConfig{UserAgent: "termdash/test"},
	}, WithClock(clock.Now))

	c.Read()
	c.Wait()

	p := c.Read()
	mu.Lock()
	assert.Equal(t, "bitcoin,ethereum,solana,dogecoin,monero|usd", gotQuery)
	assert.Equal(t, "termdash/test", gotUA)
	mu.Unlock()
	assert.True(t, p.Loaded())
	assert.InDelta(t, 64000.5, p.Values["bitcoin"], 1e-9)
	assert.InDelta(t, 150, p.Values["monero"], 1e-9)
	assert.Zero(t, p.Values["ethereum"], "assets missing from the response are untouched")
	assert.NotContains(t, p.Values, "unknowncoin")
}

func TestCrypto_FailureKeepsPrices(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"bitcoin":{"usd":100},"ethereum":{"usd":10}}`)
	}))
	defer srv.Close()

	clock := newFakeClock()
	obs := &recordingObserver{}
	c := NewCrypto(CryptoConfig{Endpoint: srv.URL, Interval: time.Minute},
		WithClock(clock.Now), WithObserver(obs))

	c.Read()
	c.Wait()
	loaded := c.Read()
	require.True(t, loaded.Loaded())

	fail.Store(true)
	clock.Advance(61 * time.Second)
	c.Read()
	c.Wait()

	state := c.GateState()
	p := c.cell.Load()
	assert.InDelta(t, 100, p.Values["bitcoin"], 1e-9)
	assert.InDelta(t, 10, p.Values["ethereum"], 1e-9)
	assert.Equal(t, loaded.Updated, p.Updated)

	results := obs.Results()
	require.Len(t, results, 2)
	var statusErr *StatusError
	require.ErrorAs(t, results[1].Err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)

	// last success did not move, so the gate is open again right away
	assert.True(t, state.LastSuccess.Before(clock.Now()))
	assert.False(t, state.InFlight)
}

func TestCrypto_NullQuoteIsFailure(t *testing.T) {
	var null atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if null.Load() {
			fmt.Fprint(w, `{"bitcoin":{"usd":null},"monero":{"usd":160}}`)
			return
		}
		fmt.Fprint(w, `{"bitcoin":{"usd":64000},"monero":{"usd":150}}`)
	}))
	defer srv.Close()

	clock := newFakeClock()
	obs := &recordingObserver{}
	c := NewCrypto(CryptoConfig{Endpoint: srv.URL, Interval: time.Minute},
		WithClock(clock.Now), WithObserver(obs))

	c.Read()
	c.Wait()
	loaded := c.cell.Load()
	require.InDelta(t, 64000, loaded.Values["bitcoin"], 1e-9)

	null.Store(true)
	clock.Advance(61 * time.Second)
	c.Read()
	c.Wait()

	p := c.cell.Load()
	assert.InDelta(t, 64000, p.Values["bitcoin"], 1e-9)
	assert.InDelta(t, 150, p.Values["monero"], 1e-9)
	assert.Equal(t, loaded.Updated, p.Updated)
	assert.Equal(t, 1, obs.Failures())
}

func TestCrypto_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>rate limited</html>`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := NewCrypto(CryptoConfig{Endpoint: srv.URL}, WithObserver(obs))
	c.Read()
	c.Wait()

	assert.False(t, c.Read().Loaded())
	assert.Equal(t, 1, obs.Failures())
}

func TestCrypto_SingleFlightUnderConcurrentReads(t *testing.T) {
	release := make(chan struct{})
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		fmt.Fprint(w, `{"bitcoin":{"usd":1}}`)
	}))
	defer srv.Close()

	c := NewCrypto(CryptoConfig{Endpoint: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Read()
		}()
	}
	wg.Wait()

	assert.True(t, c.GateState().InFlight)
	close(release)
	c.Wait()

	assert.Equal(t, int32(1), requests.Load())
	assert.False(t, c.GateState().InFlight)
}

func TestCrypto_ReadReturnsCopy(t *testing.T) {
	c := NewCrypto(CryptoConfig{Endpoint: "http://127.0.0.1:1/unused"})
	c.Close()

	p := c.Read()
	p.Values["bitcoin"] = 999
	assert.Zero(t, c.Read().Values["bitcoin"])
}

func TestCrypto_ClosedDropsLateResult(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"bitcoin":{"usd":5}}`)
	}))
	defer srv.Close()

	c := NewCrypto(CryptoConfig{Endpoint: srv.URL})
	c.Read()
	c.Close()
	close(release)
	c.Wait()

	assert.False(t, c.Read().Loaded())
}

func TestWeather_PlaceholderThenReport(t *testing.T) {
	var mu sync.Mutex
	var path, format string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		path = r.URL.Path
		format = r.URL.Query().Get("format")
		mu.Unlock()
		fmt.Fprint(w, "  Jalandhar: ☀️ +31°C \n")
	}))
	defer srv.Close()

	w := NewWeather(WeatherConfig{Endpoint: srv.URL + "/"})
	assert.Equal(t, WeatherPlaceholder, w.Read())
	w.Wait()

	assert.Equal(t, "Jalandhar: ☀️ +31°C", w.Read())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/Jalandhar", path)
	assert.Equal(t, "3", format)
}

func TestWeather_HTTPErrorOverwritesCache(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			fmt.Fprint(w, "Paris: +12°C")
		}
	}))
	defer srv.Close()

	clock := newFakeClock()
	w := NewWeather(WeatherConfig{Endpoint: srv.URL, Location: "Paris"}, WithClock(clock.Now))
	w.Read()
	w.Wait()
	require.Equal(t, "Paris: +12°C", w.Read())

	status.Store(http.StatusInternalServerError)
	clock.Advance(16 * time.Minute)
	w.Read()
	w.Wait()

	got := w.Read()
	assert.Equal(t, "ERR: HTTP 500", got)
	assert.True(t, strings.HasPrefix(got, WeatherErrorPrefix))
}

func TestWeather_TransportErrorIsShortened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	w := NewWeather(WeatherConfig{Endpoint: target})
	w.Read()
	w.Wait()

	got := w.Read()
	require.True(t, strings.HasPrefix(got, WeatherErrorPrefix), got)
	msg := strings.TrimPrefix(got, WeatherErrorPrefix)
	assert.LessOrEqual(t, len([]rune(msg)), 22)
	assert.NotContains(t, msg, "Get \"", "url.Error wrapper is stripped")
}

func TestWeather_BlankBodyKeepsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "   \n")
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	w := NewWeather(WeatherConfig{Endpoint: srv.URL}, WithObserver(obs))
	w.Read()
	w.Wait()

	assert.Equal(t, WeatherPlaceholder, w.cell.Load())
	results := obs.Results()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrEmptyBody)
}

func TestWeather_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	w := NewWeather(WeatherConfig{Endpoint: srv.URL, HTTP: HTTPConfig{Timeout: 50 * time.Millisecond}})
	w.Read()
	w.Wait()

	assert.True(t, strings.HasPrefix(w.cell.Load(), WeatherErrorPrefix))
}

func TestFormatWeatherError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", &StatusError{Code: 503}, "ERR: HTTP 503"},
		{"short", errors.New("timeout"), "ERR: timeout"},
		{"long", errors.New("dial tcp: lookup wttr.in: no such host"), "ERR: dial tcp: lookup wtt.."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWeatherError(tt.err))
		})
	}
}

type fakeRunner struct {
	out   exec.Output
	err   error
	calls int
	dir   string
	args  []string
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (exec.Output, error) {
	f.calls++
	f.dir = dir
	f.args = append([]string{name}, args...)
	return f.out, f.err
}

func TestVCS_Branch(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		want   string
	}{
		{
			name:   "branch name",
			runner: &fakeRunner{out: exec.Output{Stdout: []byte("feature/gates\n")}},
			want:   "feature/gates",
		},
		{
			name:   "detached head",
			runner: &fakeRunner{out: exec.Output{Stdout: []byte("HEAD\n")}},
			want:   NoBranch,
		},
		{
			name:   "not a repository",
			runner: &fakeRunner{out: exec.Output{ExitCode: 128, Stderr: []byte("fatal: not a git repository")}},
			want:   NoBranch,
		},
		{
			name:   "git missing",
			runner: &fakeRunner{err: errors.New("executable file not found")},
			want:   NoBranch,
		},
		{
			name:   "empty output",
			runner: &fakeRunner{out: exec.Output{Stdout: []byte("\n")}},
			want:   NoBranch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVCS(VCSConfig{Dir: "/work/repo", Runner: tt.runner})
			assert.Equal(t, tt.want, v.Read())
			assert.Equal(t, "/work/repo", tt.runner.dir)
			assert.Equal(t, []string{"git", "rev-parse", "--abbrev-ref", "HEAD"}, tt.runner.args)
		})
	}
}

func TestVCS_UngatedAndObserved(t *testing.T) {
	runner := &fakeRunner{out: exec.Output{Stdout: []byte("main\n")}}
	obs := &recordingObserver{}
	v := NewVCS(VCSConfig{Runner: runner}, WithObserver(obs))

	v.Read()
	v.Read()
	assert.Equal(t, 2, runner.calls)
	assert.Len(t, obs.Results(), 2)
}

func TestVCS_RealGitOutsideRepo(t *testing.T) {
	v := NewVCS(VCSConfig{Dir: t.TempDir(), Timeout: 2 * time.Second})
	assert.Equal(t, NoBranch, v.Read())
}
