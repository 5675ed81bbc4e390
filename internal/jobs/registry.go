package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Watcher is the subset of connwatch.Watcher the registry needs: refcounted
// disconnect subscription. Declared here so jobs does not import connwatch
// directly — Server wires the concrete *connwatch.Watcher in.
type Watcher interface {
	Watch(peerID string)
	Unwatch(peerID string)
	OnDisconnect(fn func(peerID string))
}

// Executor is the subset of dispatch.Executor the registry needs: posting a
// closure for execution on the single dispatcher goroutine (spec.md section
// 5). Declared here, structurally matching dispatch.Executor, so jobs does
// not import dispatch directly — Server wires the concrete executor in.
type Executor interface {
	Submit(fn func())
}

// Registry is PendingJobs (spec.md section 4.6): the two id -> job mappings
// scoped to one AccountSession, with peer-disconnect-triggered cancellation.
// Safe for concurrent use; every exported method may be called from any
// dispatcher-posted continuation.
type Registry struct {
	mu        sync.Mutex
	uploads   map[string]*UploadJob
	downloads map[string]*DownloadJob
	byPeer    map[string]map[string]struct{} // peer -> set of job ids (both kinds)
	logger    *zap.Logger
	watcher   Watcher
	executor  Executor
}

// NewRegistry creates an empty Registry. Call SetWatcher before any job is
// added if disconnect-triggered cancellation is required (Server always
// does; tests may opt out by leaving it nil).
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		uploads:   make(map[string]*UploadJob),
		downloads: make(map[string]*DownloadJob),
		byPeer:    make(map[string]map[string]struct{}),
		logger:    logger.Named("jobs"),
	}
	return r
}

// SetWatcher wires the disconnect watcher. Must be called at most once,
// before any job is registered.
func (r *Registry) SetWatcher(w Watcher) {
	r.watcher = w
	if w != nil {
		w.OnDisconnect(r.onPeerDisconnect)
	}
}

// SetExecutor wires the dispatcher every job-terminator continuation this
// registry drives is posted through — including peer-disconnect-triggered
// cancellation — so it is serialized against any in-flight Finish call an
// RPC handler submits through the same executor, instead of racing it on
// its own goroutine. Must be called at most once, before any job is
// registered; tests may leave it nil to run continuations inline.
func (r *Registry) SetExecutor(e Executor) {
	r.executor = e
}

// AddUpload registers a new upload job owned by ownerPeer and returns its
// server-generated id.
func (r *Registry) AddUpload(ownerPeer string, term UploadTerminator) *UploadJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := "upload-" + uuid.NewString()
	job := newUploadJob(id, ownerPeer, term)
	r.uploads[id] = job
	r.trackPeerLocked(ownerPeer, id)
	return job
}

// AddDownload is the download-side analogue of AddUpload.
func (r *Registry) AddDownload(ownerPeer string, term DownloadTerminator) *DownloadJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := "download-" + uuid.NewString()
	job := newDownloadJob(id, ownerPeer, term)
	r.downloads[id] = job
	r.trackPeerLocked(ownerPeer, id)
	return job
}

// GetUpload looks up a live upload job by id.
func (r *Registry) GetUpload(id string) (*UploadJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.uploads[id]
	return j, ok
}

// GetDownload looks up a live download job by id.
func (r *Registry) GetDownload(id string) (*DownloadJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.downloads[id]
	return j, ok
}

// RemoveUpload drops the job from the registry, unwatching its owner peer
// if this was the peer's last tracked job.
func (r *Registry) RemoveUpload(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.uploads[id]
	if !ok {
		return
	}
	delete(r.uploads, id)
	r.untrackPeerLocked(job.OwnerPeer, id)
}

// RemoveDownload is the download-side analogue of RemoveUpload.
func (r *Registry) RemoveDownload(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.downloads[id]
	if !ok {
		return
	}
	delete(r.downloads, id)
	r.untrackPeerLocked(job.OwnerPeer, id)
}

func (r *Registry) trackPeerLocked(peer, jobID string) {
	set, ok := r.byPeer[peer]
	if !ok {
		set = make(map[string]struct{})
		r.byPeer[peer] = set
		if r.watcher != nil {
			r.watcher.Watch(peer)
		}
	}
	set[jobID] = struct{}{}
}

func (r *Registry) untrackPeerLocked(peer, jobID string) {
	set, ok := r.byPeer[peer]
	if !ok {
		return
	}
	delete(set, jobID)
	if len(set) == 0 {
		delete(r.byPeer, peer)
		if r.watcher != nil {
			r.watcher.Unwatch(peer)
		}
	}
}

// onPeerDisconnect is the connwatch disconnect handler: every job owned by
// the vanished peer transitions to Cancelled via its back-end cancel().
// Errors are logged, never surfaced — spec.md section 4.6's cleanup-path
// swallow policy.
func (r *Registry) onPeerDisconnect(peer string) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.byPeer[peer]))
	for id := range r.byPeer[peer] {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	cancelAll := func() {
		ctx := context.Background()
		for _, id := range ids {
			if job, ok := r.GetUpload(id); ok {
				if err := job.Cancel(ctx); err != nil && err != ErrAlreadyTerminal {
					r.logger.Warn("error cancelling upload on peer disconnect", zap.String("upload_id", id), zap.Error(err))
				}
				r.RemoveUpload(id)
				continue
			}
			if job, ok := r.GetDownload(id); ok {
				if err := job.Cancel(ctx); err != nil && err != ErrAlreadyTerminal {
					r.logger.Warn("error cancelling download on peer disconnect", zap.String("download_id", id), zap.Error(err))
				}
				r.RemoveDownload(id)
			}
		}
	}

	if r.executor != nil {
		r.executor.Submit(cancelAll)
		return
	}
	cancelAll()
}
