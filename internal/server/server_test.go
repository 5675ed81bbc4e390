package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/gridbox/provider/internal/authbroker"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/localprovider"
	"github.com/gridbox/provider/internal/rpcapi"
)

func newTestBroker() *authbroker.StaticBroker {
	return authbroker.NewStaticBroker(
		[]authbroker.Account{
			{AccountID: "acct-1", ProviderID: "local", DisplayName: "One"},
			{AccountID: "acct-2", ProviderID: "local", DisplayName: "Two"},
		},
		map[string]item.Credentials{
			"acct-1": {Kind: item.CredentialsAbsent},
			"acct-2": {Kind: item.CredentialsAbsent},
		},
	)
}

func dialClient(t *testing.T, sockPath string) rpcapi.ProviderServiceClient {
	t.Helper()
	conn, err := grpc.NewClient(
		"unix://"+sockPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcapi.ContentSubtype)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return rpcapi.NewProviderServiceClient(conn)
}

func withAccount(ctx context.Context, accountID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, accountMetadataKey, accountID)
}

func startTestServer(t *testing.T) (rpcapi.ProviderServiceClient, func()) {
	t.Helper()
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "gridbox.sock")

	factory := func(acct authbroker.Account) (item.Provider, error) {
		root := filepath.Join(dir, acct.AccountID)
		if err := os.MkdirAll(root, 0o700); err != nil {
			return nil, err
		}
		return localprovider.New(root, zap.NewNop())
	}

	srv := New(Config{
		ListenNetwork: "unix",
		ListenAddress: sockPath,
		IdleTimeout:   0,
		TempDir:       dir,
	}, newTestBroker(), factory, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", sockPath)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	client := dialClient(t, sockPath)
	return client, func() {
		cancel()
		<-done
	}
}

func TestRun_RoutesCallsByAccountMetadata(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	resp1, err := client.Roots(withAccount(context.Background(), "acct-1"), &rpcapi.RootsRequest{})
	require.NoError(t, err)
	require.Len(t, resp1.Items, 1)

	resp2, err := client.Roots(withAccount(context.Background(), "acct-2"), &rpcapi.RootsRequest{})
	require.NoError(t, err)
	require.Len(t, resp2.Items, 1)

	assert.NotEqual(t, resp1.Items[0].ItemID, resp2.Items[0].ItemID)
}

func TestRun_UnknownAccountIsRejected(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	_, err := client.Roots(withAccount(context.Background(), "no-such-account"), &rpcapi.RootsRequest{})
	assert.Error(t, err)
}

func TestRun_MissingAccountMetadataIsRejected(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	_, err := client.Roots(context.Background(), &rpcapi.RootsRequest{})
	assert.Error(t, err)
}
