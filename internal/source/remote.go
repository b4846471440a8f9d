package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultHTTPTimeout bounds every network fetch, end to end.
const DefaultHTTPTimeout = 8 * time.Second

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

// StatusError is returned when a server answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// ErrEmptyBody is returned when a server answers 200 with nothing useful.
var ErrEmptyBody = errors.New("empty response body")

// HTTPConfig is shared by the network sources.
type HTTPConfig struct {
	// Client is used for requests. When nil a client with Timeout is built.
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

func (c HTTPConfig) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c HTTPConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultHTTPTimeout
	}
	return c.Timeout
}

// remote runs fetches on background goroutines. Results that arrive after
// Close are dropped; requests already on the wire are left to time out.
type remote struct {
	gated
	http   HTTPConfig
	client *http.Client
	closed atomic.Bool
	wg     sync.WaitGroup
}

func newRemote(name string, interval time.Duration, cfg HTTPConfig, opts []Option) remote {
	return remote{
		gated:  newGated(name, interval, opts),
		http:   cfg,
		client: cfg.client(),
	}
}

// launch starts run on a goroutine if the gate is open. run stores its own
// result and returns the fetch error.
func (r *remote) launch(run func(ctx context.Context) error) {
	if r.closed.Load() {
		return
	}
	start, ok := r.begin()
	if !ok {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.http.timeout())
		defer cancel()
		r.end(start, run(ctx))
	}()
}

// Close stops new fetches and makes late results be discarded.
func (r *remote) Close() {
	r.closed.Store(true)
}

// Wait blocks until every launched fetch has finished. Used by tests and
// the one-shot snapshot command.
func (r *remote) Wait() {
	r.wg.Wait()
}

// get performs a GET and returns the body of a 200 response.
func (r *remote) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if r.http.UserAgent != "" {
		req.Header.Set("User-Agent", r.http.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// errorMessage strips the transport wrapper so the short message is useful.
func errorMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}
