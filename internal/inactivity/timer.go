// Package inactivity implements InactivityTimer (spec.md section 4.5): a
// monotonic in-flight request counter paired with a single-shot idle timer.
package inactivity

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/metrics"
)

// Timer counts in-flight requests and fires OnTimeout when the count has
// been zero for Duration. A Duration of 0 disables the timer entirely
// ("never"), per spec.md section 6's SF_PROVIDER_IDLE_TIMEOUT /
// SF_REGISTRY_IDLE_TIMEOUT semantics (renamed GRIDBOX_* in this runtime).
//
// The zero value is not usable — construct with New.
type Timer struct {
	mu       sync.Mutex
	duration time.Duration
	count    int32
	timer    *time.Timer
	onTimeout func()
	logger   *zap.Logger
	stopped  bool
}

// New creates a Timer with the given idle duration and timeout callback.
// The timer only ever runs while the count is zero, matching spec.md's
// "timer only ever runs when counter is zero" invariant — at construction
// the count is already zero, so New arms the timer immediately unless
// duration is 0.
func New(duration time.Duration, onTimeout func(), logger *zap.Logger) *Timer {
	t := &Timer{
		duration:  duration,
		onTimeout: onTimeout,
		logger:    logger.Named("inactivity"),
	}
	t.armLocked()
	return t
}

// RequestStarted pauses the timer (if running) and increments the in-flight
// count. Call once per accepted RPC, before dispatching to the provider.
func (t *Timer) RequestStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	metrics.InFlightRequests.Inc()
	t.stopLocked()
}

// RequestFinished decrements the in-flight count and, if it has returned to
// zero, (re)arms the timer. Call exactly once per RequestStarted, on every
// exit path (success or error) — pair with defer at the call site so the
// decrement happens unconditionally, per spec.md section 9's "scoped
// activity counting" design note.
func (t *Timer) RequestFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		// Defensive: a caller bug would otherwise drive the counter
		// negative, violating the invariant in spec.md section 8.
		t.logger.DPanic("RequestFinished called with no in-flight requests")
		return
	}
	t.count--
	metrics.InFlightRequests.Dec()
	if t.count == 0 {
		t.armLocked()
	}
}

// Count returns the current in-flight request count. For tests and metrics.
func (t *Timer) Count() int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Stop permanently disables the timer, e.g. during graceful shutdown so a
// late-firing timeout doesn't race the shutdown path.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.stopLocked()
}

func (t *Timer) armLocked() {
	if t.stopped || t.duration <= 0 {
		return
	}
	t.timer = time.AfterFunc(t.duration, func() {
		t.mu.Lock()
		fire := !t.stopped && t.count == 0
		t.mu.Unlock()
		if fire {
			t.logger.Info("inactivity timeout fired")
			t.onTimeout()
		}
	})
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
