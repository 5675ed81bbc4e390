package jobs

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/providererr"
)

// Finalizer is the concrete back-end hook TempfileUploadJob hands the
// materialized temp file path to on a clean finish. item.UploadSink (what
// Provider.CreateFile/Update return) satisfies this exactly — Finalizer
// exists as its own name here so this package does not need to import
// item's Provider contract to describe what it consumes.
type Finalizer = item.UploadSink

// TempfileUploadJob is the concrete UploadJob variant described in spec.md
// section 4.7: it wires the read end of the transfer socket to a temp-file
// writer, draining bytes as they arrive, then hands the materialized path
// to a Finalizer on a clean finish.
type TempfileUploadJob struct {
	// CloseGrace is the configurable wait, at Finish time, for the peer to
	// close its socket end if it has not already. Spec.md section 9 leaves
	// this an open question; SPEC_FULL.md resolves it as a grace period
	// defaulting to 0 (no wait, matching the documented default behavior).
	CloseGrace time.Duration

	tmpFile *os.File
	tmpPath string
	source  io.Reader

	finalizer Finalizer
	logger    *zap.Logger

	mu       sync.Mutex
	drained  bool
	drainErr error
	sockOpen bool
}

// NewTempfileUploadJob creates a TempfileUploadJob that will drain source
// (the server-side end of the transfer socket/stream) into a new temp file
// under dir, then hand the result to finalizer.
func NewTempfileUploadJob(dir string, source io.Reader, finalizer Finalizer, logger *zap.Logger) (*TempfileUploadJob, error) {
	f, err := os.CreateTemp(dir, "gridbox-upload-*")
	if err != nil {
		return nil, providererr.Resource(0, "create temp file: %v", err)
	}
	return &TempfileUploadJob{
		tmpFile:   f,
		tmpPath:   f.Name(),
		source:    source,
		finalizer: finalizer,
		logger:    logger.Named("jobs.tempfile"),
		sockOpen:  true,
	}, nil
}

// Drain copies bytes from the socket to the temp file until EOF or error.
// Call this from the goroutine reading the transfer stream; Finish blocks
// (up to CloseGrace) for it to complete before finalizing.
func (t *TempfileUploadJob) Drain() {
	_, err := io.Copy(t.tmpFile, t.source)
	t.mu.Lock()
	t.drained = true
	t.sockOpen = false
	if err != nil {
		t.drainErr = err
	}
	t.mu.Unlock()
}

// Finish implements UploadTerminator. Per spec.md section 4.7, if the read
// channel is still open at finalize, it raises LogicError ("Socket not
// closed") without touching the destination.
func (t *TempfileUploadJob) Finish(ctx context.Context) (item.Item, error) {
	if t.CloseGrace > 0 {
		deadline := time.Now().Add(t.CloseGrace)
		for {
			t.mu.Lock()
			open := t.sockOpen
			t.mu.Unlock()
			if !open || time.Now().After(deadline) {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}

	t.mu.Lock()
	open := t.sockOpen
	drainErr := t.drainErr
	t.mu.Unlock()

	if open {
		t.tmpFile.Close()
		os.Remove(t.tmpPath)
		return item.Item{}, providererr.New(providererr.KindLogicError, "socket not closed")
	}
	if drainErr != nil {
		t.tmpFile.Close()
		os.Remove(t.tmpPath)
		return item.Item{}, providererr.New(providererr.KindResource, "draining upload: %v", drainErr)
	}

	if err := t.tmpFile.Close(); err != nil {
		os.Remove(t.tmpPath)
		return item.Item{}, providererr.Resource(0, "closing temp file: %v", err)
	}

	it, err := t.finalizer.FinalizeUpload(ctx, t.tmpPath)
	if err != nil {
		os.Remove(t.tmpPath)
		return item.Item{}, err
	}
	return it, nil
}

// Cancel implements UploadTerminator. Idempotent: the finalizer's
// AbortUpload is responsible for tolerating a path that may not exist.
func (t *TempfileUploadJob) Cancel(ctx context.Context) error {
	t.tmpFile.Close()
	t.finalizer.AbortUpload(ctx, t.tmpPath)
	if err := os.Remove(t.tmpPath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("removing temp file on cancel", zap.String("path", t.tmpPath), zap.Error(err))
	}
	return nil
}
