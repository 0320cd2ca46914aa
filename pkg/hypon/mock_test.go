package hypon

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/log"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

// fakeCloud serves the Hypontech endpoints from per-path handlers and counts
// the requests made to each path.
type fakeCloud struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]http.HandlerFunc
}

func newFakeCloud(t *testing.T) (*fakeCloud, *httptest.Server) {
	fc := &fakeCloud{
		calls:    map[string]int{},
		handlers: map[string]http.HandlerFunc{},
	}
	fc.handle("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"token": "T1"},
		})
	})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc.mu.Lock()
		fc.calls[r.URL.Path]++
		h, ok := fc.handlers[r.URL.Path]
		fc.mu.Unlock()
		if !ok {
			http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return fc, ts
}

func (fc *fakeCloud) handle(path string, h http.HandlerFunc) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.handlers[path] = h
}

func (fc *fakeCloud) count(path string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.calls[path]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fakeClock is a settable clock that also records the sleeps of the retry
// loop instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

func newTestClient(ts *httptest.Server, clock *fakeClock, opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(ts.Client()), WithBaseURL(ts.URL)}, opts...)
	c := New("user@example.com", "secret", opts...)
	c.now = clock.Now
	c.sleep = clock.Sleep
	return c
}
