// Package jobs implements PendingJobs (spec.md section 4.6) and the
// UploadJob / DownloadJob state machines (section 4.7): the registry of
// live transfers, keyed by opaque id and scoped to the peer that opened
// them, with disconnect-triggered cancellation.
package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/gridbox/provider/internal/item"
)

// State is a job's position in the Active -> (Finalizing|Cancelling|Reported)
// -> Done state machine shared by uploads and downloads.
type State int

const (
	StateActive State = iota
	StateFinalizing
	StateCancelling
	StateReported
	StateDone
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateCancelling:
		return "cancelling"
	case StateReported:
		return "reported"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ErrAlreadyTerminal is returned by Finish/Cancel/ReportComplete/ReportError
// when the job has already reached a terminal transition. Per spec.md
// section 4.7's exactly-once promise invariant, callers hitting this on a
// cleanup path (owner-peer disconnect racing an explicit Finish) should
// swallow it to logs rather than surface it to the peer.
var ErrAlreadyTerminal = errors.New("jobs: job already terminated")

// UploadTerminator is the back-end hook a concrete UploadJob (e.g.
// TempfileUploadJob) supplies. finish is called when the peer closed its
// socket end cleanly and FinishUpload was invoked; cancel is called on
// CancelUpload, owner-peer disconnect, or server-side error. Back-ends must
// make cancel idempotent and tolerant of being called after finish has
// already resolved (spec.md section 5).
type UploadTerminator interface {
	Finish(ctx context.Context) (item.Item, error)
	Cancel(ctx context.Context) error
}

// DownloadTerminator is the download-side analogue of UploadTerminator; its
// promise carries no value, only a terminal error (or nil).
type DownloadTerminator interface {
	Finish(ctx context.Context) error
	Cancel(ctx context.Context) error
}

// UploadJob tracks one in-flight CreateFile/Update call from registration
// through its terminal transition.
type UploadJob struct {
	ID        string
	OwnerPeer string

	mu         sync.Mutex
	state      State
	term       UploadTerminator
	result     item.Item
	resultErr  error
	reportedAt bool
}

func newUploadJob(id, ownerPeer string, term UploadTerminator) *UploadJob {
	return &UploadJob{ID: id, OwnerPeer: ownerPeer, state: StateActive, term: term}
}

// ReportComplete lets back-end code pre-empt the terminator: if called
// before Finish/Cancel, the stored item is used verbatim and the
// terminators are suppressed.
func (j *UploadJob) ReportComplete(it item.Item) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateActive {
		return ErrAlreadyTerminal
	}
	j.state = StateReported
	j.result = it
	j.reportedAt = true
	return nil
}

// ReportError is the error-carrying analogue of ReportComplete.
func (j *UploadJob) ReportError(err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateActive {
		return ErrAlreadyTerminal
	}
	j.state = StateReported
	j.resultErr = err
	j.reportedAt = true
	return nil
}

// Finish drives the job through Finalizing to Done, calling the terminator
// unless the back-end already pre-reported a result. The mutex is released
// while term.Finish runs, so a concurrent Cancel (e.g. from peer disconnect)
// could in principle call into the same terminator at the same time; this is
// only safe because every caller in this tree submits through the shared
// section-4.8 dispatcher, which serializes them onto one goroutine.
func (j *UploadJob) Finish(ctx context.Context) (item.Item, error) {
	j.mu.Lock()
	if j.state == StateDone {
		j.mu.Unlock()
		return item.Item{}, ErrAlreadyTerminal
	}
	if j.reportedAt {
		j.state = StateDone
		it, err := j.result, j.resultErr
		j.mu.Unlock()
		return it, err
	}
	j.state = StateFinalizing
	j.mu.Unlock()

	it, err := j.term.Finish(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.reportedAt {
		j.state = StateDone
		return j.result, j.resultErr
	}
	j.state = StateDone
	j.result, j.resultErr = it, err
	return it, err
}

// Cancel drives the job through Cancelling to Done. The job reaches Done
// even when the terminator fails; that error is returned for the caller to
// log (callers on disconnect-cleanup paths do not propagate it). See Finish's doc
// comment on the dispatcher-serialization assumption this relies on.
func (j *UploadJob) Cancel(ctx context.Context) error {
	j.mu.Lock()
	if j.state == StateDone {
		j.mu.Unlock()
		return ErrAlreadyTerminal
	}
	if j.reportedAt {
		j.state = StateDone
		j.mu.Unlock()
		return nil
	}
	j.state = StateCancelling
	j.mu.Unlock()

	err := j.term.Cancel(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = StateDone
	return err
}

// State returns the job's current state, for tests and diagnostics.
func (j *UploadJob) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// DownloadJob is the download-side analogue of UploadJob; its terminal
// promise carries only an error, never an Item.
type DownloadJob struct {
	ID        string
	OwnerPeer string

	mu         sync.Mutex
	state      State
	term       DownloadTerminator
	resultErr  error
	reportedAt bool
}

func newDownloadJob(id, ownerPeer string, term DownloadTerminator) *DownloadJob {
	return &DownloadJob{ID: id, OwnerPeer: ownerPeer, state: StateActive, term: term}
}

func (j *DownloadJob) ReportComplete() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateActive {
		return ErrAlreadyTerminal
	}
	j.state = StateReported
	j.reportedAt = true
	return nil
}

func (j *DownloadJob) ReportError(err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateActive {
		return ErrAlreadyTerminal
	}
	j.state = StateReported
	j.resultErr = err
	j.reportedAt = true
	return nil
}

func (j *DownloadJob) Finish(ctx context.Context) error {
	j.mu.Lock()
	if j.state == StateDone {
		j.mu.Unlock()
		return ErrAlreadyTerminal
	}
	if j.reportedAt {
		j.state = StateDone
		err := j.resultErr
		j.mu.Unlock()
		return err
	}
	j.state = StateFinalizing
	j.mu.Unlock()

	err := j.term.Finish(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.reportedAt {
		j.state = StateDone
		return j.resultErr
	}
	j.state = StateDone
	j.resultErr = err
	return err
}

func (j *DownloadJob) Cancel(ctx context.Context) error {
	j.mu.Lock()
	if j.state == StateDone {
		j.mu.Unlock()
		return ErrAlreadyTerminal
	}
	if j.reportedAt {
		j.state = StateDone
		j.mu.Unlock()
		return nil
	}
	j.state = StateCancelling
	j.mu.Unlock()

	err := j.term.Cancel(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = StateDone
	return err
}

func (j *DownloadJob) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}
