package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/item"
)

type fakeUploadTerm struct {
	finishCalls int
	cancelCalls int
	finishItem  item.Item
	finishErr   error
	cancelErr   error
}

func (f *fakeUploadTerm) Finish(ctx context.Context) (item.Item, error) {
	f.finishCalls++
	return f.finishItem, f.finishErr
}

func (f *fakeUploadTerm) Cancel(ctx context.Context) error {
	f.cancelCalls++
	return f.cancelErr
}

type fakeDownloadTerm struct {
	finishCalls int
	cancelCalls int
	finishErr   error
}

func (f *fakeDownloadTerm) Finish(ctx context.Context) error {
	f.finishCalls++
	return f.finishErr
}

func (f *fakeDownloadTerm) Cancel(ctx context.Context) error {
	f.cancelCalls++
	return nil
}

type fakeWatcher struct {
	watched   map[string]int
	onDiscFns []func(string)
}

func newFakeWatcher() *fakeWatcher { return &fakeWatcher{watched: make(map[string]int)} }

func (w *fakeWatcher) Watch(peerID string)   { w.watched[peerID]++ }
func (w *fakeWatcher) Unwatch(peerID string) { w.watched[peerID]-- }
func (w *fakeWatcher) OnDisconnect(fn func(string)) {
	w.onDiscFns = append(w.onDiscFns, fn)
}
func (w *fakeWatcher) fire(peerID string) {
	for _, fn := range w.onDiscFns {
		fn(peerID)
	}
}

func TestUploadJob_FinishCallsTerminatorOnce(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	term := &fakeUploadTerm{finishItem: item.Item{ItemID: "x"}}
	job := r.AddUpload("peer-1", term)

	it, err := job.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", it.ItemID)
	assert.Equal(t, 1, term.finishCalls)

	_, err = job.Finish(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	assert.Equal(t, 1, term.finishCalls, "second finish must not call terminator again")
}

func TestUploadJob_ReportCompleteSuppressesFinish(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	term := &fakeUploadTerm{}
	job := r.AddUpload("peer-1", term)

	require.NoError(t, job.ReportComplete(item.Item{ItemID: "pre-reported"}))

	it, err := job.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pre-reported", it.ItemID)
	assert.Equal(t, 0, term.finishCalls)
}

func TestUploadJob_CancelReachesDoneDespiteTerminatorError(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	term := &fakeUploadTerm{cancelErr: errors.New("backend boom")}
	job := r.AddUpload("peer-1", term)

	err := job.Cancel(context.Background())
	assert.Error(t, err) // Cancel itself returns the terminator error for the caller to log
	assert.Equal(t, StateDone, job.State())
}

func TestRegistry_PeerDisconnectCancelsOwnedJobs(t *testing.T) {
	watcher := newFakeWatcher()
	r := NewRegistry(zap.NewNop())
	r.SetWatcher(watcher)

	uploadTerm := &fakeUploadTerm{}
	downloadTerm := &fakeDownloadTerm{}
	uj := r.AddUpload("peer-1", uploadTerm)
	dj := r.AddDownload("peer-1", downloadTerm)

	assert.Equal(t, 1, watcher.watched["peer-1"])

	watcher.fire("peer-1")

	assert.Equal(t, 1, uploadTerm.cancelCalls)
	assert.Equal(t, 1, downloadTerm.cancelCalls)
	assert.Equal(t, StateDone, uj.State())
	assert.Equal(t, StateDone, dj.State())

	_, ok := r.GetUpload(uj.ID)
	assert.False(t, ok)
	_, ok = r.GetDownload(dj.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, watcher.watched["peer-1"])
}

func TestRegistry_RemoveUnwatchesOnlyWhenLastJobGone(t *testing.T) {
	watcher := newFakeWatcher()
	r := NewRegistry(zap.NewNop())
	r.SetWatcher(watcher)

	j1 := r.AddUpload("peer-1", &fakeUploadTerm{})
	j2 := r.AddUpload("peer-1", &fakeUploadTerm{})
	assert.Equal(t, 1, watcher.watched["peer-1"])

	r.RemoveUpload(j1.ID)
	assert.Equal(t, 1, watcher.watched["peer-1"], "still one job left for peer")

	r.RemoveUpload(j2.ID)
	assert.Equal(t, 0, watcher.watched["peer-1"])
}

func TestRegistry_GetUploadOnUnknownIDReportsMissing(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	_, ok := r.GetUpload("no-such-id")
	assert.False(t, ok)
}

type fakeExecutor struct {
	submitted []func()
}

func (e *fakeExecutor) Submit(fn func()) {
	e.submitted = append(e.submitted, fn)
}

func TestRegistry_PeerDisconnectRoutesThroughExecutor(t *testing.T) {
	watcher := newFakeWatcher()
	exec := &fakeExecutor{}
	r := NewRegistry(zap.NewNop())
	r.SetWatcher(watcher)
	r.SetExecutor(exec)

	term := &fakeUploadTerm{}
	uj := r.AddUpload("peer-1", term)

	watcher.fire("peer-1")

	require.Len(t, exec.submitted, 1, "cancellation must be posted through the executor, not run inline")
	assert.Equal(t, 0, term.cancelCalls, "must not run until the executor actually runs the submitted closure")

	exec.submitted[0]()
	assert.Equal(t, 1, term.cancelCalls)
	assert.Equal(t, StateDone, uj.State())
}
