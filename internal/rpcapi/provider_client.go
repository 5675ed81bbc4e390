package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// ProviderServiceClient is the client-side stub for ProviderService,
// mirroring the shape protoc-gen-go emits. Used by integration tests that
// dial a real grpc.Server running ProviderServiceDesc over bufconn.
type ProviderServiceClient interface {
	Roots(ctx context.Context, in *RootsRequest, opts ...grpc.CallOption) (*RootsResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	Lookup(ctx context.Context, in *LookupRequest, opts ...grpc.CallOption) (*LookupResponse, error)
	Metadata(ctx context.Context, in *MetadataRequest, opts ...grpc.CallOption) (*MetadataResponse, error)
	CreateFolder(ctx context.Context, in *CreateFolderRequest, opts ...grpc.CallOption) (*CreateFolderResponse, error)
	CreateFile(ctx context.Context, in *CreateFileRequest, opts ...grpc.CallOption) (*CreateFileResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	FinishUpload(ctx context.Context, in *FinishUploadRequest, opts ...grpc.CallOption) (*FinishUploadResponse, error)
	CancelUpload(ctx context.Context, in *CancelUploadRequest, opts ...grpc.CallOption) (*CancelUploadResponse, error)
	Download(ctx context.Context, in *DownloadRequest, opts ...grpc.CallOption) (*DownloadResponse, error)
	FinishDownload(ctx context.Context, in *FinishDownloadRequest, opts ...grpc.CallOption) (*FinishDownloadResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	Move(ctx context.Context, in *MoveRequest, opts ...grpc.CallOption) (*MoveResponse, error)
	Copy(ctx context.Context, in *CopyRequest, opts ...grpc.CallOption) (*CopyResponse, error)

	UploadChunks(ctx context.Context, opts ...grpc.CallOption) (UploadChunksClient, error)
	DownloadChunks(ctx context.Context, in *DownloadChunksRequest, opts ...grpc.CallOption) (DownloadChunksClient, error)
}

type providerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProviderServiceClient builds a ProviderServiceClient over cc. Callers
// typically pass grpc.CallContentSubtype(ContentSubtype) in opts (or set it
// as a default dial option) so the JSON codec is selected.
func NewProviderServiceClient(cc grpc.ClientConnInterface) ProviderServiceClient {
	return &providerServiceClient{cc}
}

func (c *providerServiceClient) Roots(ctx context.Context, in *RootsRequest, opts ...grpc.CallOption) (*RootsResponse, error) {
	out := new(RootsResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Roots", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	out := new(ListResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/List", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Lookup(ctx context.Context, in *LookupRequest, opts ...grpc.CallOption) (*LookupResponse, error) {
	out := new(LookupResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Lookup", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Metadata(ctx context.Context, in *MetadataRequest, opts ...grpc.CallOption) (*MetadataResponse, error) {
	out := new(MetadataResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Metadata", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) CreateFolder(ctx context.Context, in *CreateFolderRequest, opts ...grpc.CallOption) (*CreateFolderResponse, error) {
	out := new(CreateFolderResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/CreateFolder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) CreateFile(ctx context.Context, in *CreateFileRequest, opts ...grpc.CallOption) (*CreateFileResponse, error) {
	out := new(CreateFileResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/CreateFile", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	out := new(UpdateResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Update", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) FinishUpload(ctx context.Context, in *FinishUploadRequest, opts ...grpc.CallOption) (*FinishUploadResponse, error) {
	out := new(FinishUploadResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/FinishUpload", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) CancelUpload(ctx context.Context, in *CancelUploadRequest, opts ...grpc.CallOption) (*CancelUploadResponse, error) {
	out := new(CancelUploadResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/CancelUpload", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Download(ctx context.Context, in *DownloadRequest, opts ...grpc.CallOption) (*DownloadResponse, error) {
	out := new(DownloadResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Download", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) FinishDownload(ctx context.Context, in *FinishDownloadRequest, opts ...grpc.CallOption) (*FinishDownloadResponse, error) {
	out := new(FinishDownloadResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/FinishDownload", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	out := new(DeleteResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Delete", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Move(ctx context.Context, in *MoveRequest, opts ...grpc.CallOption) (*MoveResponse, error) {
	out := new(MoveResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Move", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerServiceClient) Copy(ctx context.Context, in *CopyRequest, opts ...grpc.CallOption) (*CopyResponse, error) {
	out := new(CopyResponse)
	if err := c.cc.Invoke(ctx, "/"+ProviderServiceName+"/Copy", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadChunksClient is the client-side handle for the client-streaming
// UploadChunks RPC.
type UploadChunksClient interface {
	Send(*UploadChunk) error
	CloseAndRecv() (*UploadChunksResponse, error)
	grpc.ClientStream
}

type uploadChunksClient struct {
	grpc.ClientStream
}

func (c *providerServiceClient) UploadChunks(ctx context.Context, opts ...grpc.CallOption) (UploadChunksClient, error) {
	stream, err := c.cc.NewStream(ctx, &ProviderServiceDesc.Streams[0], "/"+ProviderServiceName+"/UploadChunks", opts...)
	if err != nil {
		return nil, err
	}
	return &uploadChunksClient{stream}, nil
}

func (c *uploadChunksClient) Send(chunk *UploadChunk) error {
	return c.ClientStream.SendMsg(chunk)
}

func (c *uploadChunksClient) CloseAndRecv() (*UploadChunksResponse, error) {
	if err := c.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	out := new(UploadChunksResponse)
	if err := c.ClientStream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadChunksClient is the client-side handle for the server-streaming
// DownloadChunks RPC.
type DownloadChunksClient interface {
	Recv() (*DownloadChunk, error)
	grpc.ClientStream
}

type downloadChunksClient struct {
	grpc.ClientStream
}

func (c *providerServiceClient) DownloadChunks(ctx context.Context, in *DownloadChunksRequest, opts ...grpc.CallOption) (DownloadChunksClient, error) {
	stream, err := c.cc.NewStream(ctx, &ProviderServiceDesc.Streams[1], "/"+ProviderServiceName+"/DownloadChunks", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &downloadChunksClient{stream}, nil
}

func (c *downloadChunksClient) Recv() (*DownloadChunk, error) {
	m := new(DownloadChunk)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
