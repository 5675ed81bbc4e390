package server

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gridbox/provider/internal/providerservice"
	"github.com/gridbox/provider/internal/rpcapi"
)

// accountMetadataKey is the gRPC metadata field SPEC_FULL.md re-maps
// spec.md's `/provider/<account-id>` object path onto — the one gRPC
// service registration is shared across every bound account, and this
// field tells the router which providerservice.Server a call belongs to.
const accountMetadataKey = "gridbox-account-id"

type routedServerCtxKey struct{}

// accountRouter implements rpcapi.ProviderServiceServer by dispatching every
// call to the providerservice.Server bound to the account named in the
// call's "gridbox-account-id" metadata. It is registered with grpc.Server
// exactly once; the interceptors below do the actual per-call resolution so
// the 16 forwarding methods stay one-liners.
type accountRouter struct {
	rpcapi.UnimplementedProviderServiceServer

	mu       sync.RWMutex
	sessions map[string]*providerservice.Server
}

func newAccountRouter() *accountRouter {
	return &accountRouter{sessions: make(map[string]*providerservice.Server)}
}

func (r *accountRouter) bind(accountID string, srv *providerservice.Server) {
	r.mu.Lock()
	r.sessions[accountID] = srv
	r.mu.Unlock()
}

func (r *accountRouter) lookup(accountID string) (*providerservice.Server, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	srv, ok := r.sessions[accountID]
	return srv, ok
}

// resolve extracts the target account id from ctx's incoming metadata and
// returns its bound providerservice.Server, or a gRPC status error matching
// spec.md section 7's "unknown account" / missing-selector cases.
func (r *accountRouter) resolve(ctx context.Context) (*providerservice.Server, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "missing gRPC metadata")
	}
	ids := md.Get(accountMetadataKey)
	if len(ids) == 0 || ids[0] == "" {
		return nil, status.Errorf(codes.InvalidArgument, "missing %q metadata field", accountMetadataKey)
	}
	srv, ok := r.lookup(ids[0])
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no account bound for %q", ids[0])
	}
	return srv, nil
}

// unaryInterceptor resolves the target account once per call and stashes
// it in the context so the forwarding methods below don't each re-parse
// metadata.
func (r *accountRouter) unaryInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	srv, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return handler(context.WithValue(ctx, routedServerCtxKey{}, srv), req)
}

// streamInterceptor is the streaming analogue, used by UploadChunks and
// DownloadChunks.
func (r *accountRouter) streamInterceptor(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	target, err := r.resolve(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &routedServerStream{
		ServerStream: ss,
		ctx:          context.WithValue(ss.Context(), routedServerCtxKey{}, target),
	})
}

// routedServerStream overrides Context() so stream handlers observe the
// same resolved-account context a unary handler would.
type routedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *routedServerStream) Context() context.Context { return s.ctx }

func routedFrom(ctx context.Context) *providerservice.Server {
	srv, _ := ctx.Value(routedServerCtxKey{}).(*providerservice.Server)
	return srv
}

func (r *accountRouter) Roots(ctx context.Context, req *rpcapi.RootsRequest) (*rpcapi.RootsResponse, error) {
	return routedFrom(ctx).Roots(ctx, req)
}

func (r *accountRouter) List(ctx context.Context, req *rpcapi.ListRequest) (*rpcapi.ListResponse, error) {
	return routedFrom(ctx).List(ctx, req)
}

func (r *accountRouter) Lookup(ctx context.Context, req *rpcapi.LookupRequest) (*rpcapi.LookupResponse, error) {
	return routedFrom(ctx).Lookup(ctx, req)
}

func (r *accountRouter) Metadata(ctx context.Context, req *rpcapi.MetadataRequest) (*rpcapi.MetadataResponse, error) {
	return routedFrom(ctx).Metadata(ctx, req)
}

func (r *accountRouter) CreateFolder(ctx context.Context, req *rpcapi.CreateFolderRequest) (*rpcapi.CreateFolderResponse, error) {
	return routedFrom(ctx).CreateFolder(ctx, req)
}

func (r *accountRouter) CreateFile(ctx context.Context, req *rpcapi.CreateFileRequest) (*rpcapi.CreateFileResponse, error) {
	return routedFrom(ctx).CreateFile(ctx, req)
}

func (r *accountRouter) Update(ctx context.Context, req *rpcapi.UpdateRequest) (*rpcapi.UpdateResponse, error) {
	return routedFrom(ctx).Update(ctx, req)
}

func (r *accountRouter) FinishUpload(ctx context.Context, req *rpcapi.FinishUploadRequest) (*rpcapi.FinishUploadResponse, error) {
	return routedFrom(ctx).FinishUpload(ctx, req)
}

func (r *accountRouter) CancelUpload(ctx context.Context, req *rpcapi.CancelUploadRequest) (*rpcapi.CancelUploadResponse, error) {
	return routedFrom(ctx).CancelUpload(ctx, req)
}

func (r *accountRouter) Download(ctx context.Context, req *rpcapi.DownloadRequest) (*rpcapi.DownloadResponse, error) {
	return routedFrom(ctx).Download(ctx, req)
}

func (r *accountRouter) FinishDownload(ctx context.Context, req *rpcapi.FinishDownloadRequest) (*rpcapi.FinishDownloadResponse, error) {
	return routedFrom(ctx).FinishDownload(ctx, req)
}

func (r *accountRouter) Delete(ctx context.Context, req *rpcapi.DeleteRequest) (*rpcapi.DeleteResponse, error) {
	return routedFrom(ctx).Delete(ctx, req)
}

func (r *accountRouter) Move(ctx context.Context, req *rpcapi.MoveRequest) (*rpcapi.MoveResponse, error) {
	return routedFrom(ctx).Move(ctx, req)
}

func (r *accountRouter) Copy(ctx context.Context, req *rpcapi.CopyRequest) (*rpcapi.CopyResponse, error) {
	return routedFrom(ctx).Copy(ctx, req)
}

func (r *accountRouter) UploadChunks(stream rpcapi.UploadChunksServer) error {
	return routedFrom(stream.Context()).UploadChunks(stream)
}

func (r *accountRouter) DownloadChunks(req *rpcapi.DownloadChunksRequest, stream rpcapi.DownloadChunksServer) error {
	return routedFrom(stream.Context()).DownloadChunks(req, stream)
}
