package providerservice

import (
	"context"
	"io"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/jobs"
	"github.com/gridbox/provider/internal/providererr"
	"github.com/gridbox/provider/internal/rpcapi"
)

// CreateFile opens an upload job. The actual byte transfer happens over a
// later UploadChunks call carrying the same upload_id, bridged here to
// jobs.TempfileUploadJob via an in-process io.Pipe — the Go-native
// replacement for spec.md's fd-passed transfer socket (see
// SPEC_FULL.md's transport re-mapping).
func (s *Server) CreateFile(ctx context.Context, req *rpcapi.CreateFileRequest) (*rpcapi.CreateFileResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	sink, err := runSync(s, func() (item.UploadSink, error) {
		return s.session.Provider.CreateFile(ctx, pctx, req.ParentID, req.Name, req.Size, req.ContentType, req.AllowOverwrite)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	return s.beginUpload(ctx, sink)
}

// beginUpload wires sink into a jobs.TempfileUploadJob fed by an io.Pipe,
// starts draining it in the background, and registers the resulting job
// under a fresh upload_id. The pipe's write end is stashed for the
// UploadChunks call that will arrive later carrying that id.
func (s *Server) beginUpload(ctx context.Context, sink item.UploadSink) (*rpcapi.CreateFileResponse, error) {
	pr, pw := io.Pipe()

	tempJob, err := jobs.NewTempfileUploadJob(s.tempDir, pr, sink, s.logger)
	if err != nil {
		pw.Close()
		return nil, statusFromErr(err)
	}
	go tempJob.Drain()

	peer := peerIDOrUnknown(ctx)
	job, _ := runSync(s, func() (*jobs.UploadJob, error) {
		return s.session.Jobs.AddUpload(peer, tempJob), nil
	})
	s.registerUploadPipe(job.ID, pw)

	return &rpcapi.CreateFileResponse{UploadID: job.ID}, nil
}

// Update is CreateFile's replace-existing-content analogue.
func (s *Server) Update(ctx context.Context, req *rpcapi.UpdateRequest) (*rpcapi.UpdateResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	sink, err := runSync(s, func() (item.UploadSink, error) {
		return s.session.Provider.Update(ctx, pctx, req.ItemID, req.Size, req.OldETag)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	resp, err := s.beginUpload(ctx, sink)
	if err != nil {
		return nil, err
	}
	return &rpcapi.UpdateResponse{UploadID: resp.UploadID}, nil
}

// FinishUpload drives the upload job named by req.UploadID to completion,
// handing its drained temp file to the back-end's FinalizeUpload hook.
func (s *Server) FinishUpload(ctx context.Context, req *rpcapi.FinishUploadRequest) (*rpcapi.FinishUploadResponse, error) {
	_, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	it, err := runSync(s, func() (item.Item, error) {
		job, ok := s.session.Jobs.GetUpload(req.UploadID)
		if !ok {
			return item.Item{}, providererr.New(providererr.KindLogicError, "unknown upload %q", req.UploadID)
		}
		it, err := job.Finish(ctx)
		s.session.Jobs.RemoveUpload(req.UploadID)
		return it, err
	})
	s.dropUploadPipe(req.UploadID)
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItem(it); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.FinishUploadResponse{Item: rpcapi.FromItem(it)}, nil
}

// CancelUpload aborts an in-flight upload job, unblocking its UploadChunks
// stream if one is still attached.
func (s *Server) CancelUpload(ctx context.Context, req *rpcapi.CancelUploadRequest) (*rpcapi.CancelUploadResponse, error) {
	_, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	if pw, ok := s.takeUploadPipe(req.UploadID); ok {
		pw.CloseWithError(io.ErrClosedPipe)
	}

	_, _ = runSync(s, func() (struct{}, error) {
		job, ok := s.session.Jobs.GetUpload(req.UploadID)
		if !ok {
			// spec.md §8: CancelUpload on an unknown id is idempotent
			// no-op success, not an error — the job may have already
			// been finished, cancelled, or never existed on this
			// process.
			return struct{}{}, nil
		}
		if err := job.Cancel(ctx); err != nil && err != jobs.ErrAlreadyTerminal {
			s.logger.Warn("cancel upload", zap.String("upload_id", req.UploadID), zap.Error(err))
		}
		s.session.Jobs.RemoveUpload(req.UploadID)
		return struct{}{}, nil
	})
	s.dropUploadPipe(req.UploadID)
	return &rpcapi.CancelUploadResponse{}, nil
}

// UploadChunks drains each client-streamed chunk into the temp file backing
// the upload named by its first message's UploadID.
func (s *Server) UploadChunks(stream rpcapi.UploadChunksServer) error {
	var pw *io.PipeWriter
	var uploadID string
	var total int64

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if pw != nil {
				pw.CloseWithError(err)
			}
			return err
		}
		if uploadID == "" {
			uploadID = chunk.UploadID
			var ok bool
			pw, ok = s.takeUploadPipe(uploadID)
			if !ok {
				return status.Errorf(codes.NotFound, "unknown upload %q", uploadID)
			}
		}
		if len(chunk.Data) > 0 {
			if _, err := pw.Write(chunk.Data); err != nil {
				return status.Errorf(codes.Aborted, "writing upload chunk: %v", err)
			}
			total += int64(len(chunk.Data))
		}
	}
	if pw != nil {
		pw.Close()
	}
	return stream.SendAndClose(&rpcapi.UploadChunksResponse{BytesReceived: total})
}

// Download opens a download job and immediately opens the back-end's
// reader, stashing it keyed by the returned download_id until
// DownloadChunks or FinishDownload claims it.
func (s *Server) Download(ctx context.Context, req *rpcapi.DownloadRequest) (*rpcapi.DownloadResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	type opened struct {
		job  *jobs.DownloadJob
		body io.ReadCloser
	}
	o, err := runSync(s, func() (opened, error) {
		backendJob, err := s.session.Provider.Download(ctx, pctx, req.ItemID, req.MatchETag)
		if err != nil {
			return opened{}, err
		}
		body, _, err := backendJob.Open(ctx)
		if err != nil {
			return opened{}, err
		}
		peer := peerIDOrUnknown(ctx)
		job := s.session.Jobs.AddDownload(peer, &downloadTerminator{job: backendJob, body: body})
		return opened{job: job, body: body}, nil
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	s.registerDownload(o.job.ID, o.body)

	return &rpcapi.DownloadResponse{DownloadID: o.job.ID}, nil
}

// DownloadChunks streams the body opened by Download to the peer.
func (s *Server) DownloadChunks(req *rpcapi.DownloadChunksRequest, stream rpcapi.DownloadChunksServer) error {
	dl, ok := s.takeDownload(req.DownloadID)
	if !ok {
		return status.Errorf(codes.NotFound, "unknown download %q", req.DownloadID)
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := dl.body.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if sendErr := stream.Send(&rpcapi.DownloadChunk{Data: chunk}); sendErr != nil {
				return sendErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return status.Errorf(codes.Internal, "reading download body: %v", err)
		}
	}
}

// FinishDownload reports that every byte has been streamed, giving the
// back-end a chance to surface a deferred read error.
func (s *Server) FinishDownload(ctx context.Context, req *rpcapi.FinishDownloadRequest) (*rpcapi.FinishDownloadResponse, error) {
	_, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	_, err = runSync(s, func() (struct{}, error) {
		job, ok := s.session.Jobs.GetDownload(req.DownloadID)
		if !ok {
			return struct{}{}, providererr.New(providererr.KindLogicError, "unknown download %q", req.DownloadID)
		}
		err := job.Finish(ctx)
		s.session.Jobs.RemoveDownload(req.DownloadID)
		return struct{}{}, err
	})
	if dl, ok := s.takeDownload(req.DownloadID); ok {
		dl.body.Close()
		s.dropDownload(req.DownloadID)
	}
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.FinishDownloadResponse{}, nil
}
