package connwatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/stats"
)

func TestWatchUnwatch_Refcount(t *testing.T) {
	w := New(zap.NewNop())
	w.Watch("peer.a")
	w.Watch("peer.a")
	assert.True(t, w.Watched("peer.a"))

	w.Unwatch("peer.a")
	assert.True(t, w.Watched("peer.a"))

	w.Unwatch("peer.a")
	assert.False(t, w.Watched("peer.a"))
}

func TestHandleConn_FiresOnDisconnectOnce(t *testing.T) {
	w := New(zap.NewNop())

	var fired []string
	w.OnDisconnect(func(peerID string) { fired = append(fired, peerID) })

	ctx := w.TagConn(context.Background(), &stats.ConnTagInfo{})
	peerID, ok := PeerIDFromContext(ctx)
	require.True(t, ok)

	w.Watch(peerID)
	w.HandleConn(ctx, &stats.ConnBegin{})
	w.HandleConn(ctx, &stats.ConnEnd{})

	require.Len(t, fired, 1)
	assert.Equal(t, peerID, fired[0])
	assert.False(t, w.Watched(peerID))
}

func TestHandleConn_IgnoresContextWithoutTag(t *testing.T) {
	w := New(zap.NewNop())
	called := false
	w.OnDisconnect(func(string) { called = true })

	w.HandleConn(context.Background(), &stats.ConnEnd{})

	assert.False(t, called)
}
