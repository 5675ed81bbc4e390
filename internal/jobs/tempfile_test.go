package jobs

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/providererr"
)

type fakeFinalizer struct {
	finalizeCalls int
	abortCalls    int
	gotPath       string
	item          item.Item
	err           error
}

func (f *fakeFinalizer) FinalizeUpload(ctx context.Context, tmpPath string) (item.Item, error) {
	f.finalizeCalls++
	f.gotPath = tmpPath
	return f.item, f.err
}

func (f *fakeFinalizer) AbortUpload(ctx context.Context, tmpPath string) {
	f.abortCalls++
}

func TestTempfileUploadJob_FinishAfterDrain(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.NewBufferString("hello world")
	fin := &fakeFinalizer{item: item.Item{ItemID: "f1"}}

	job, err := NewTempfileUploadJob(dir, payload, fin, zap.NewNop())
	require.NoError(t, err)

	job.Drain()

	it, err := job.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "f1", it.ItemID)
	assert.Equal(t, 1, fin.finalizeCalls)
}

func TestTempfileUploadJob_FinishBeforeDrainIsLogicError(t *testing.T) {
	dir := t.TempDir()
	r, w := pipeFiles(t)
	defer w.Close()
	fin := &fakeFinalizer{}

	job, err := NewTempfileUploadJob(dir, r, fin, zap.NewNop())
	require.NoError(t, err)

	_, err = job.Finish(context.Background())
	require.Error(t, err)
	assert.Equal(t, providererr.KindLogicError, providererr.KindOf(err))
	assert.Equal(t, 0, fin.finalizeCalls)
}

func TestTempfileUploadJob_CancelRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.NewBufferString("partial")
	fin := &fakeFinalizer{}

	job, err := NewTempfileUploadJob(dir, payload, fin, zap.NewNop())
	require.NoError(t, err)
	path := job.tmpPath

	err = job.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fin.abortCalls)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func pipeFiles(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	return r, w
}
