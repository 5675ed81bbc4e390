package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// LoopExecutor is the production Executor: a single goroutine draining a
// channel of closures. Every Provider method and job terminator call is
// submitted here (credential-cache lookups are not; they run on the calling
// RPC goroutine), so that PendingJobs, AccountSession, and the provider-interface
// routing table are only ever touched from this one goroutine — the
// "single-threaded cooperative dispatcher" of spec.md section 5.
type LoopExecutor struct {
	work   chan func()
	logger *zap.Logger
}

// NewLoop creates a LoopExecutor with the given submission buffer size.
// Call Run in its own goroutine, exactly once, before any Submit call is
// expected to make progress (Submit returns at once while the buffered
// channel has room, and blocks while it is full — size generously).
func NewLoop(bufferSize int, logger *zap.Logger) *LoopExecutor {
	return &LoopExecutor{
		work:   make(chan func(), bufferSize),
		logger: logger.Named("dispatch"),
	}
}

// Submit enqueues fn for execution on the loop goroutine.
func (l *LoopExecutor) Submit(fn func()) {
	l.work <- fn
}

// Run drains the work queue until ctx is cancelled. Panics from individual
// closures are recovered and logged so one bad continuation can't take
// down the whole dispatcher — back-ends are untrusted in the sense that
// their future continuations run on our thread.
func (l *LoopExecutor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.work:
			l.runSafely(fn)
		}
	}
}

func (l *LoopExecutor) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("recovered panic in dispatcher continuation", zap.Any("panic", r))
		}
	}()
	fn()
}
