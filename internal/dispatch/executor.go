// Package dispatch implements the Executor abstraction called for in
// spec.md sections 4.8 and 9: future continuations that touch core state
// (PendingJobs, AccountSession, ProviderInterface routing) must be posted
// through an Executor so they run on the single dispatcher goroutine, even
// when the future resolves on a back-end worker thread.
//
// Treat the executor as an explicit parameter threaded from Server, per
// spec.md's "global state" design note — never a package-level singleton —
// so tests can substitute SyncExecutor.
package dispatch

// Executor accepts closures for deferred execution on a specific goroutine.
type Executor interface {
	// Submit schedules fn to run on the executor's goroutine and may be
	// called from any goroutine. Whether it can block depends on the
	// implementation: LoopExecutor.Submit blocks while its buffer is full.
	Submit(fn func())
}

// SyncExecutor runs submitted closures immediately, inline, on the calling
// goroutine. Used in tests, where there is no separate dispatcher thread to
// simulate and synchronous execution makes assertions straightforward.
type SyncExecutor struct{}

func (SyncExecutor) Submit(fn func()) { fn() }
