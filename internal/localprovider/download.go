package localprovider

import (
	"context"
	"io"
	"os"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/providererr"
)

// downloadJob is the item.DownloadJob LocalProvider hands back from
// Download. internal/providerservice drives Open/Finish/Cancel and owns
// streaming the bytes to the peer over DownloadChunks.
type downloadJob struct {
	path string
}

// Open opens path for reading and reports its size. The caller closes the
// returned ReadCloser once fully drained or on cancellation.
func (d *downloadJob) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	f, err := os.Open(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, providererr.New(providererr.KindNotExists, "item %q not found", d.path)
		}
		return nil, 0, providererr.Resource(0, "open %q: %v", d.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, providererr.Resource(0, "stat %q: %v", d.path, err)
	}
	return f, info.Size(), nil
}

// Finish reports no deferred error: LocalProvider's reads are synchronous,
// so any failure already surfaced from Open or a read call.
func (d *downloadJob) Finish(ctx context.Context) error { return nil }

// Cancel is a no-op: the reader returned by Open is closed by the caller
// regardless of how the job ends.
func (d *downloadJob) Cancel(ctx context.Context) error { return nil }

// Download opens itemID for reading. An empty matchETag means "any
// version"; otherwise the current ETag must match or NotExists-adjacent
// Conflict semantics apply (spec.md leaves exact mismatch handling to the
// back-end — LocalProvider treats a mismatch as Conflict, consistent with
// Update's finalize-time check).
func (p *Provider) Download(ctx context.Context, pctx item.Context, itemID string, matchETag string) (item.DownloadJob, error) {
	path, err := p.pathForItemID(itemID)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, providererr.New(providererr.KindNotExists, "item %q not found", itemID)
		}
		return nil, providererr.Resource(0, "stat %q: %v", path, err)
	}
	if info.IsDir() {
		return nil, providererr.New(providererr.KindInvalidArgument, "item %q is a folder", itemID)
	}
	if matchETag != "" && etagForInfo(info) != matchETag {
		return nil, providererr.New(providererr.KindConflict, "%q was modified since etag %q was observed", itemID, matchETag)
	}
	return &downloadJob{path: path}, nil
}
