package item

import (
	"context"
	"io"
)

// PageToken is opaque to the runtime; back-ends choose their own encoding.
// An empty next-page token marks the end of a listing, per spec.md section 4.1.
type PageToken string

// UploadHandle names an upload by the opaque id a peer uses in later
// FinishUpload/CancelUpload calls. CreateFile/Update do not return it: they
// return an UploadSink, and the id is assigned by internal/jobs.Registry.
// Back-ends never see the wire transport directly — they only ever see the
// job abstraction.
type UploadHandle struct {
	UploadID string
}

// DownloadHandle mirrors UploadHandle for the download direction.
type DownloadHandle struct {
	DownloadID string
}

// Provider is the back-end contract every storage implementation
// (internal/localprovider, or a remote cloud-backed implementation) must
// satisfy. Every method takes the per-call Context (internal/item) so
// back-ends can authorize against the resolved peer identity and account
// credentials.
//
// Methods that accept bulk data do not take an io.Reader/io.Writer
// directly: the actual byte transfer happens through the job abstraction
// in internal/jobs, which the back-end drives via UploadSink/DownloadJob
// (declared below). This mirrors spec.md's separation between "open a
// transfer" (this interface) and "push/pull bytes" (the job).
type Provider interface {
	Roots(ctx context.Context, pctx Context) ([]Item, error)

	List(ctx context.Context, pctx Context, itemID string, pageToken PageToken) ([]Item, PageToken, error)

	Lookup(ctx context.Context, pctx Context, parentID, name string) ([]Item, error)

	Metadata(ctx context.Context, pctx Context, itemID string) (Item, error)

	CreateFolder(ctx context.Context, pctx Context, parentID, name string) (Item, error)

	// CreateFile opens a new upload. size is the declared content length (may
	// be -1 if unknown to the peer); allowOverwrite controls whether an
	// existing item with the same name is replaced or an Exists error is
	// raised. The returned UploadSink is wrapped in a
	// jobs.TempfileUploadJob by internal/providerservice, which owns the
	// actual socket-to-tempfile draining described in spec.md section 4.7.
	CreateFile(ctx context.Context, pctx Context, parentID, name string, size int64, contentType string, allowOverwrite bool) (UploadSink, error)

	// Update opens an upload that replaces the content of an existing item.
	// An empty oldETag disables conflict detection.
	Update(ctx context.Context, pctx Context, itemID string, size int64, oldETag string) (UploadSink, error)

	// Download opens a download. An empty matchETag means "any version".
	Download(ctx context.Context, pctx Context, itemID string, matchETag string) (DownloadJob, error)

	Delete(ctx context.Context, pctx Context, itemID string) error

	Move(ctx context.Context, pctx Context, itemID, newParentID, newName string) (Item, error)

	Copy(ctx context.Context, pctx Context, itemID, newParentID, newName string) (Item, error)
}

// UploadSink is the back-end half of an upload: it receives the path to the
// fully-materialized temp file (spec.md section 4.9's atomic-update rules
// for LocalProvider) and either commits it to the destination or discards
// it. internal/jobs.TempfileUploadJob owns draining the transfer stream
// into that temp file and calling at most one of these hooks, once.
type UploadSink interface {
	// FinalizeUpload is called once the peer has closed its transfer
	// stream and every byte has been drained to tmpPath. Implementations
	// take ownership of the file at tmpPath — it is theirs to rename,
	// upload, or delete.
	FinalizeUpload(ctx context.Context, tmpPath string) (Item, error)

	// AbortUpload is called when the job is cancelled; tmpPath may or may
	// not exist (the drain may never have started or may be partial).
	AbortUpload(ctx context.Context, tmpPath string)
}

// DownloadJob is the back-end half of a download.
type DownloadJob interface {
	// Open begins producing the item's bytes: it returns a reader the
	// caller drains to the peer over DownloadChunks, and the content
	// length if known to the back-end (-1 otherwise). The returned reader
	// is closed by the caller once fully drained or on cancellation.
	Open(ctx context.Context) (io.ReadCloser, int64, error)

	// Finish is called once every byte produced by Open's reader has been
	// streamed to the peer; it reports any deferred back-end error (e.g. a
	// read failure that only surfaces after the stream closed).
	Finish(ctx context.Context) error

	Cancel(ctx context.Context) error
}
