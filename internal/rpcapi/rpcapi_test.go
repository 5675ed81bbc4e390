package rpcapi

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gridbox/provider/internal/item"
)

func TestItemConversion_RoundTrips(t *testing.T) {
	in := item.Item{
		ItemID:    "root/child",
		ParentIDs: []string{"root"},
		Name:      "child",
		ETag:      "12345",
		Type:      item.TypeFile,
		Metadata: map[string]item.MetadataValue{
			"size_in_bytes": item.IntValue(42),
		},
	}
	wire := FromItem(in)
	out := ToItem(wire)
	assert.Equal(t, in, out)
}

func TestJSONCodec_RoundTrips(t *testing.T) {
	c := jsonCodec{}
	req := &CreateFileRequest{ParentID: "root", Name: "file.txt", Size: 10}
	data, err := c.Marshal(req)
	require.NoError(t, err)

	out := new(CreateFileRequest)
	require.NoError(t, c.Unmarshal(data, out))
	assert.Equal(t, req, out)
}

type fakeProviderServer struct {
	UnimplementedProviderServiceServer
}

func (fakeProviderServer) Roots(ctx context.Context, req *RootsRequest) (*RootsResponse, error) {
	return &RootsResponse{Items: []Item{{ItemID: "root", Name: "Home", Type: "root"}}}, nil
}

func dialBufconn(t *testing.T, srv ProviderServiceServer) ProviderServiceClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	RegisterProviderServiceServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(ContentSubtype)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewProviderServiceClient(conn)
}

func TestProviderServiceDesc_UnaryRoundTrip(t *testing.T) {
	client := dialBufconn(t, fakeProviderServer{})

	resp, err := client.Roots(context.Background(), &RootsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "root", resp.Items[0].ItemID)
}

func TestProviderServiceDesc_UnimplementedMethodReturnsUnimplemented(t *testing.T) {
	client := dialBufconn(t, fakeProviderServer{})

	_, err := client.List(context.Background(), &ListRequest{ItemID: "root"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
