package providerservice

import (
	"context"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gridbox/provider/internal/account"
	"github.com/gridbox/provider/internal/authbroker"
	"github.com/gridbox/provider/internal/connwatch"
	"github.com/gridbox/provider/internal/handler"
	"github.com/gridbox/provider/internal/inactivity"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/localprovider"
	"github.com/gridbox/provider/internal/peercache"
	"github.com/gridbox/provider/internal/rpcapi"
)

func newTestServer(t *testing.T) (rpcapi.ProviderServiceClient, *Server) {
	t.Helper()
	logger := zap.NewNop()

	provider, err := localprovider.New(t.TempDir(), logger)
	require.NoError(t, err)

	broker := authbroker.NewStaticBroker(
		[]authbroker.Account{{AccountID: "acct-1", ProviderID: "local", DisplayName: "Test"}},
		map[string]item.Credentials{"acct-1": {Kind: item.CredentialsAbsent}},
	)

	pc := peercache.New(func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		return item.PeerInfo{UID: 1000, PID: 1, Label: "unconfined"}, nil
	}, logger)

	idle := inactivity.New(0, func() {}, logger)
	sess := account.New("acct-1", provider, broker, pc, idle, logger)
	h := handler.New(pc, idle, logger)
	srv := New(sess, h, t.TempDir(), nil, logger)

	watcher := connwatch.New(logger)
	sess.Jobs.SetWatcher(watcher)

	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer(grpc.StatsHandler(watcher))
	rpcapi.RegisterProviderServiceServer(gs, srv)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcapi.ContentSubtype)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return rpcapi.NewProviderServiceClient(conn), srv
}

func TestRoots_ReturnsSingleRoot(t *testing.T) {
	client, _ := newTestServer(t)
	resp, err := client.Roots(context.Background(), &rpcapi.RootsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "root", resp.Items[0].Type)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()

	roots, err := client.Roots(ctx, &rpcapi.RootsRequest{})
	require.NoError(t, err)
	rootID := roots.Items[0].ItemID

	created, err := client.CreateFile(ctx, &rpcapi.CreateFileRequest{
		ParentID: rootID, Name: "hello.txt", Size: 5, ContentType: "text/plain",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.UploadID)

	stream, err := client.UploadChunks(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&rpcapi.UploadChunk{UploadID: created.UploadID, Data: []byte("hello")}))
	ackResp, err := stream.CloseAndRecv()
	require.NoError(t, err)
	assert.EqualValues(t, 5, ackResp.BytesReceived)

	finished, err := client.FinishUpload(ctx, &rpcapi.FinishUploadRequest{UploadID: created.UploadID})
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", finished.Item.Name)

	dl, err := client.Download(ctx, &rpcapi.DownloadRequest{ItemID: finished.Item.ItemID})
	require.NoError(t, err)
	require.NotEmpty(t, dl.DownloadID)

	dstream, err := client.DownloadChunks(ctx, &rpcapi.DownloadChunksRequest{DownloadID: dl.DownloadID})
	require.NoError(t, err)

	var gotData []byte
	for {
		chunk, err := dstream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		gotData = append(gotData, chunk.Data...)
	}
	assert.Equal(t, "hello", string(gotData))

	_, err = client.FinishDownload(ctx, &rpcapi.FinishDownloadRequest{DownloadID: dl.DownloadID})
	require.NoError(t, err)
}

func TestMetadata_UnknownItemReturnsNotFound(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()

	_, err := client.Metadata(ctx, &rpcapi.MetadataRequest{ItemID: "/does/not/exist"})
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
}

func TestCreateFolder_DuplicateNameReturnsAlreadyExists(t *testing.T) {
	client, _ := newTestServer(t)
	ctx := context.Background()

	roots, err := client.Roots(ctx, &rpcapi.RootsRequest{})
	require.NoError(t, err)
	rootID := roots.Items[0].ItemID

	_, err = client.CreateFolder(ctx, &rpcapi.CreateFolderRequest{ParentID: rootID, Name: "dup"})
	require.NoError(t, err)

	_, err = client.CreateFolder(ctx, &rpcapi.CreateFolderRequest{ParentID: rootID, Name: "dup"})
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.AlreadyExists, st.Code())
}

func TestCancelUpload_DiscardsTempFile(t *testing.T) {
	client, srv := newTestServer(t)
	ctx := context.Background()

	roots, err := client.Roots(ctx, &rpcapi.RootsRequest{})
	require.NoError(t, err)
	rootID := roots.Items[0].ItemID

	created, err := client.CreateFile(ctx, &rpcapi.CreateFileRequest{ParentID: rootID, Name: "cancelled.txt", Size: 3})
	require.NoError(t, err)

	_, err = client.CancelUpload(ctx, &rpcapi.CancelUploadRequest{UploadID: created.UploadID})
	require.NoError(t, err)

	_, err = client.Metadata(ctx, &rpcapi.MetadataRequest{ItemID: rootID + "/cancelled.txt"})
	require.Error(t, err)

	entries, err := os.ReadDir(srv.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload temp file must be removed on cancel")
}

type countingExecutor struct {
	submits int
}

func (e *countingExecutor) Submit(fn func()) {
	e.submits++
	fn()
}

func TestRoots_RunsThroughSuppliedExecutor(t *testing.T) {
	logger := zap.NewNop()
	provider, err := localprovider.New(t.TempDir(), logger)
	require.NoError(t, err)
	broker := authbroker.NewStaticBroker(
		[]authbroker.Account{{AccountID: "acct-1"}},
		map[string]item.Credentials{"acct-1": {Kind: item.CredentialsAbsent}},
	)
	pc := peercache.New(func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		return item.PeerInfo{}, nil
	}, logger)
	idle := inactivity.New(0, func() {}, logger)
	sess := account.New("acct-1", provider, broker, pc, idle, logger)
	h := handler.New(pc, idle, logger)
	exec := &countingExecutor{}
	srv := New(sess, h, t.TempDir(), exec, logger)

	_, err = srv.Roots(context.Background(), &rpcapi.RootsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, exec.submits, "Roots must be submitted through the configured executor")
}

func TestInactivityTimer_FiresAfterCallCompletes(t *testing.T) {
	fired := make(chan struct{}, 1)
	logger := zap.NewNop()
	provider, err := localprovider.New(t.TempDir(), logger)
	require.NoError(t, err)
	broker := authbroker.NewStaticBroker(
		[]authbroker.Account{{AccountID: "acct-1"}},
		map[string]item.Credentials{"acct-1": {}},
	)
	pc := peercache.New(func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		return item.PeerInfo{}, nil
	}, logger)
	idle := inactivity.New(10*time.Millisecond, func() { fired <- struct{}{} }, logger)
	sess := account.New("acct-1", provider, broker, pc, idle, logger)
	h := handler.New(pc, idle, logger)
	srv := New(sess, h, t.TempDir(), nil, logger)

	_, err = srv.Roots(context.Background(), &rpcapi.RootsRequest{})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("idle timer never fired after call completed")
	}
}
