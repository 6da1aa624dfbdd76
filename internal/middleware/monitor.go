package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor counts requests and error responses and reports them through an
// injected callback at a fixed interval. Nothing here is package-global:
// the caller owns the instance and its lifecycle, and Stop must be called
// to release the ticker goroutine.
type Monitor struct {
	requests uint64
	errors   uint64

	interval time.Duration
	report   func(requests, errors uint64)

	mu      sync.Mutex
	done    chan struct{}
	started bool
}

// NewMonitor builds a stopped monitor. report receives cumulative counters
// every interval once Start is called; a nil report disables ticking but
// the counters still accumulate.
func NewMonitor(interval time.Duration, report func(requests, errors uint64)) *Monitor {
	return &Monitor{interval: interval, report: report}
}

// Start launches the periodic reporting goroutine. Idempotent.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.report == nil {
		m.started = true
		return
	}
	m.started = true
	m.done = make(chan struct{})
	go func(done chan struct{}) {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.report(atomic.LoadUint64(&m.requests), atomic.LoadUint64(&m.errors))
			case <-done:
				return
			}
		}
	}(m.done)
}

// Stop halts reporting. Idempotent; safe before Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	m.started = false
}

// Counters returns the current cumulative totals.
func (m *Monitor) Counters() (requests, errors uint64) {
	return atomic.LoadUint64(&m.requests), atomic.LoadUint64(&m.errors)
}

// Wrap counts every request passing through, 5xx responses as errors.
func (m *Monitor) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&m.requests, 1)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status >= http.StatusInternalServerError {
			atomic.AddUint64(&m.errors, 1)
		}
	})
}
