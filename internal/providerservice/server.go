// Package providerservice implements rpcapi.ProviderServiceServer against
// one bound account.Session, turning each incoming RPC into the
// Created -> AwaitingCredentials -> AwaitingProvider -> Replying pipeline
// spec.md section 4.2 describes (see internal/handler for why that
// pipeline is straight-line Go rather than a state-machine type here).
package providerservice

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gridbox/provider/internal/account"
	"github.com/gridbox/provider/internal/connwatch"
	"github.com/gridbox/provider/internal/dispatch"
	"github.com/gridbox/provider/internal/handler"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/jobs"
	"github.com/gridbox/provider/internal/providererr"
	"github.com/gridbox/provider/internal/rpcapi"
)

// Executor is the subset of dispatch.Executor this package needs: posting a
// closure for execution on the single dispatcher goroutine (spec.md section
// 5). Every Provider method call and job-terminator continuation below is
// submitted through it, so PendingJobs/AccountSession/provider-routing state
// is only ever touched from that one goroutine, matching package dispatch's
// doc comment.
type Executor interface {
	Submit(fn func())
}

// Server implements rpcapi.ProviderServiceServer for one AccountSession. A
// Server is created per account at Server-process startup (see
// internal/server) and bound into internal/server's account router, which
// dispatches each call to it by account id in place of spec.md's
// per-account D-Bus object path.
type Server struct {
	rpcapi.UnimplementedProviderServiceServer

	session  *account.Session
	handler  *handler.Handler
	logger   *zap.Logger
	tempDir  string
	executor Executor

	mu          sync.Mutex
	uploadPipes map[string]*io.PipeWriter
	downloads   map[string]*downloadState
}

type downloadState struct {
	body io.ReadCloser
}

// New builds a Server bound to session, driving every call through h.
// tempDir is where in-flight uploads are staged before their back-end's
// FinalizeUpload hook runs (see jobs.TempfileUploadJob); internal/server
// passes its Config.TempDir, one staging directory shared by every bound
// account. executor is the dispatcher
// every Provider call and job-terminator continuation is posted through; a
// nil executor defaults to dispatch.SyncExecutor, running continuations
// inline on the calling (gRPC handler) goroutine, which is what tests want.
func New(session *account.Session, h *handler.Handler, tempDir string, executor Executor, logger *zap.Logger) *Server {
	if executor == nil {
		executor = dispatch.SyncExecutor{}
	}
	return &Server{
		session:     session,
		handler:     h,
		tempDir:     tempDir,
		executor:    executor,
		logger:      logger.Named("providerservice").With(zap.String("account_id", session.AccountID)),
		uploadPipes: make(map[string]*io.PipeWriter),
		downloads:   make(map[string]*downloadState),
	}
}

// runSync submits fn to s.executor and blocks for its result, serializing
// the continuation — a Provider call, or a job-terminator call plus the
// registry bookkeeping around it — onto the single dispatcher goroutine
// alongside any peer-disconnect-triggered cancellation (jobs.Registry posts
// those through the same executor).
func runSync[T any](s *Server, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	s.executor.Submit(func() {
		val, err := fn()
		done <- result{val, err}
	})
	r := <-done
	if providererr.KindOf(r.err) == providererr.KindUnauthorized {
		// Drop the cached credentials so the next call re-fetches them.
		s.session.Invalidate()
	}
	return r.val, r.err
}

// begin resolves the calling peer's identity and credentials for one RPC.
// The returned release func must be deferred by the caller on every exit
// path, per handler.Handler.Begin's contract.
func (s *Server) begin(ctx context.Context) (pctx item.Context, release func(), err error) {
	creds, err := s.session.Credentials(ctx)
	if err != nil {
		return item.Context{}, func() {}, err
	}
	return s.handler.Begin(ctx, peerIDOrUnknown(ctx), creds)
}

func peerIDOrUnknown(ctx context.Context) string {
	id, ok := connwatch.PeerIDFromContext(ctx)
	if !ok {
		return "unknown"
	}
	return id
}

func statusFromErr(err error) error {
	if err == nil {
		return nil
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return err
	}
	return status.Error(codeFor(err), err.Error())
}

func (s *Server) registerUploadPipe(id string, pw *io.PipeWriter) {
	s.mu.Lock()
	s.uploadPipes[id] = pw
	s.mu.Unlock()
}

func (s *Server) takeUploadPipe(id string) (*io.PipeWriter, bool) {
	s.mu.Lock()
	pw, ok := s.uploadPipes[id]
	s.mu.Unlock()
	return pw, ok
}

func (s *Server) dropUploadPipe(id string) {
	s.mu.Lock()
	delete(s.uploadPipes, id)
	s.mu.Unlock()
}

func (s *Server) registerDownload(id string, body io.ReadCloser) {
	s.mu.Lock()
	s.downloads[id] = &downloadState{body: body}
	s.mu.Unlock()
}

func (s *Server) takeDownload(id string) (*downloadState, bool) {
	s.mu.Lock()
	d, ok := s.downloads[id]
	s.mu.Unlock()
	return d, ok
}

func (s *Server) dropDownload(id string) {
	s.mu.Lock()
	delete(s.downloads, id)
	s.mu.Unlock()
}

// downloadTerminator adapts an item.DownloadJob plus its already-opened
// body into a jobs.DownloadTerminator. Cancel (e.g. triggered by the owner
// peer disconnecting mid-transfer) closes the body directly since
// FinishDownload may never be called on that path.
type downloadTerminator struct {
	job interface {
		Finish(ctx context.Context) error
		Cancel(ctx context.Context) error
	}
	body io.ReadCloser
}

func (d *downloadTerminator) Finish(ctx context.Context) error {
	return d.job.Finish(ctx)
}

func (d *downloadTerminator) Cancel(ctx context.Context) error {
	d.body.Close()
	return d.job.Cancel(ctx)
}

var _ jobs.DownloadTerminator = (*downloadTerminator)(nil)
