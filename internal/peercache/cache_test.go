package peercache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/item"
)

func TestGet_CachesAfterFirstLookup(t *testing.T) {
	var calls int32
	lookup := func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		atomic.AddInt32(&calls, 1)
		return item.PeerInfo{UID: 1000, PID: 42, Label: "unconfined"}, nil
	}
	c := New(lookup, zap.NewNop())

	info1, err := c.Get(context.Background(), "peer.1")
	require.NoError(t, err)
	info2, err := c.Get(context.Background(), "peer.1")
	require.NoError(t, err)

	assert.Equal(t, info1, info2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_CoalescesConcurrentLookups(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	lookup := func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return item.PeerInfo{UID: 7}, nil
	}
	c := New(lookup, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "peer.shared")
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_OldGenerationPromotion(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		calls++
		return item.PeerInfo{UID: uint32(calls)}, nil
	}
	c := New(lookup, zap.NewNop()).WithHighWaterMark(1)

	_, err := c.Get(context.Background(), "peer.a")
	require.NoError(t, err)
	// This insert exceeds the high-water mark of 1, rotating peer.a into
	// the old generation.
	_, err = c.Get(context.Background(), "peer.b")
	require.NoError(t, err)

	// peer.a should be served from the old generation without a new lookup.
	before := calls
	info, err := c.Get(context.Background(), "peer.a")
	require.NoError(t, err)
	assert.Equal(t, before, calls)
	assert.EqualValues(t, 1, info.UID)
}

func TestInvalidate_ForcesFreshLookup(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context, peerID string) (item.PeerInfo, error) {
		calls++
		return item.PeerInfo{UID: uint32(calls)}, nil
	}
	c := New(lookup, zap.NewNop())

	_, err := c.Get(context.Background(), "peer.a")
	require.NoError(t, err)
	c.Invalidate("peer.a")
	_, err = c.Get(context.Background(), "peer.a")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
