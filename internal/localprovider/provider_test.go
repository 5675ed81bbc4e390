package localprovider

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/providererr"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	dir := t.TempDir()
	p, err := New(dir, zap.NewNop())
	require.NoError(t, err)
	return p
}

func writeFile(t *testing.T, p *Provider, rootItemID, name, content string) item.Item {
	t.Helper()
	sink, err := p.CreateFile(context.Background(), item.Context{}, rootItemID, name, int64(len(content)), "text/plain", false)
	require.NoError(t, err)

	tmp, err := os.CreateTemp(t.TempDir(), "upload-*")
	require.NoError(t, err)
	_, err = tmp.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	it, err := sink.FinalizeUpload(context.Background(), tmp.Name())
	require.NoError(t, err)
	return it
}

func TestRoots_ReturnsExactlyOneRoot(t *testing.T) {
	p := newTestProvider(t)
	roots, err := p.Roots(context.Background(), item.Context{})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, item.TypeRoot, roots[0].Type)
	assert.Empty(t, roots[0].ParentIDs)
	assert.Equal(t, "", roots[0].ETag)
}

func TestList_ReturnsChildFile(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	rootID := roots[0].ItemID

	require.NoError(t, os.WriteFile(filepath.Join(rootID, "Child"), nil, 0o644))

	items, next, err := p.List(context.Background(), item.Context{}, rootID, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, items, 1)
	assert.Equal(t, "Child", items[0].Name)
	assert.Equal(t, []string{rootID}, items[0].ParentIDs)
	assert.Equal(t, item.TypeFile, items[0].Type)
}

func TestList_ExcludesReservedDir(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	rootID := roots[0].ItemID

	items, _, err := p.List(context.Background(), item.Context{}, rootID, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateFolder_RejectsNameWithSlash(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})

	_, err := p.CreateFolder(context.Background(), item.Context{}, roots[0].ItemID, "a/b")
	require.Error(t, err)
	assert.Equal(t, providererr.KindInvalidArgument, providererr.KindOf(err))
}

func TestCreateFolder_RejectsDotDot(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})

	_, err := p.CreateFolder(context.Background(), item.Context{}, roots[0].ItemID, "..")
	require.Error(t, err)
	assert.Equal(t, providererr.KindInvalidArgument, providererr.KindOf(err))
}

func TestUploadFinalize_AtomicReplace(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})

	it := writeFile(t, p, roots[0].ItemID, "file.txt", "hello world")
	assert.Equal(t, "file.txt", it.Name)

	data, err := os.ReadFile(it.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestUpdate_ConflictOnETagMismatch(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	it := writeFile(t, p, roots[0].ItemID, "file.txt", "v1")

	sink, err := p.Update(context.Background(), item.Context{}, it.ItemID, 2, "stale-etag")
	require.NoError(t, err)

	tmp, err := os.CreateTemp(t.TempDir(), "upload-*")
	require.NoError(t, err)
	_, err = tmp.WriteString("v2")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	_, err = sink.FinalizeUpload(context.Background(), tmp.Name())
	require.Error(t, err)
	assert.Equal(t, providererr.KindConflict, providererr.KindOf(err))

	data, _ := os.ReadFile(it.ItemID)
	assert.Equal(t, "v1", string(data), "content must be unchanged after conflict")
}

func TestDownload_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	it := writeFile(t, p, roots[0].ItemID, "file.txt", "round trip content")

	job, err := p.Download(context.Background(), item.Context{}, it.ItemID, "")
	require.NoError(t, err)

	r, size, err := job.Open(context.Background())
	require.NoError(t, err)
	defer r.Close()
	assert.EqualValues(t, len("round trip content"), size)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "round trip content", string(data))
	require.NoError(t, job.Finish(context.Background()))
}

func TestMoveThenMoveBack_RestoresOriginalState(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	rootID := roots[0].ItemID

	folderA, err := p.CreateFolder(context.Background(), item.Context{}, rootID, "A")
	require.NoError(t, err)
	folderB, err := p.CreateFolder(context.Background(), item.Context{}, rootID, "B")
	require.NoError(t, err)
	file := writeFile(t, p, folderA.ItemID, "f.txt", "content")

	moved, err := p.Move(context.Background(), item.Context{}, file.ItemID, folderB.ItemID, "f.txt")
	require.NoError(t, err)

	back, err := p.Move(context.Background(), item.Context{}, moved.ItemID, folderA.ItemID, "f.txt")
	require.NoError(t, err)

	meta, err := p.Metadata(context.Background(), item.Context{}, back.ItemID)
	require.NoError(t, err)
	assert.Equal(t, file.ItemID, meta.ItemID)
}

func TestMove_RecursionGuardRejectsMoveIntoDescendant(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	rootID := roots[0].ItemID

	parent, err := p.CreateFolder(context.Background(), item.Context{}, rootID, "parent")
	require.NoError(t, err)
	child, err := p.CreateFolder(context.Background(), item.Context{}, parent.ItemID, "child")
	require.NoError(t, err)

	_, err = p.Move(context.Background(), item.Context{}, parent.ItemID, child.ItemID, "parent")
	require.Error(t, err)
	assert.Equal(t, providererr.KindInvalidArgument, providererr.KindOf(err))
}

func TestDelete_RootAlwaysFails(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})

	err := p.Delete(context.Background(), item.Context{}, roots[0].ItemID)
	require.Error(t, err)
	assert.Equal(t, providererr.KindPermissionDenied, providererr.KindOf(err))
}

func TestCreateFile_NegativeSizeIsInvalidArgument(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})

	_, err := p.CreateFile(context.Background(), item.Context{}, roots[0].ItemID, "f.txt", -2, "", false)
	require.Error(t, err)
	assert.Equal(t, providererr.KindInvalidArgument, providererr.KindOf(err))
}

func TestUpdate_OverwriteNeverLeavesDestinationMissing(t *testing.T) {
	p := newTestProvider(t)
	roots, _ := p.Roots(context.Background(), item.Context{})
	it := writeFile(t, p, roots[0].ItemID, "file.txt", "v1")

	sink, err := p.Update(context.Background(), item.Context{}, it.ItemID, 2, "")
	require.NoError(t, err)

	tmp, err := os.CreateTemp(t.TempDir(), "upload-*")
	require.NoError(t, err)
	_, err = tmp.WriteString("v2")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	// The destination must exist throughout materialize: this exercises
	// the EEXIST/sibling-rename path rather than a remove-then-link race.
	_, statErr := os.Stat(it.ItemID)
	require.NoError(t, statErr)

	updated, err := sink.FinalizeUpload(context.Background(), tmp.Name())
	require.NoError(t, err)
	assert.Equal(t, it.ItemID, updated.ItemID)

	data, err := os.ReadFile(it.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(filepath.Dir(it.ItemID))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".gridbox-replace-", "sibling temp file must not survive a successful update")
	}
}
