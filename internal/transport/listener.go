// Package transport implements spec.md's bus surface as a gRPC-reachable
// Unix domain socket, with a TCP fallback for environments that have no
// shared filesystem namespace (containers, cross-machine tests). Per
// SPEC_FULL.md's transport re-mapping, this is the Go-native stand-in for
// the original D-Bus transport: SO_PEERCRED replaces
// GetConnectionCredentials, and /proc/<pid>/attr/current replaces the
// AppArmor security label D-Bus exposed natively.
package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/item"
)

// EnvListenNet is spec.md section 6's GRIDBOX_LISTEN_NET override: "tcp"
// selects a TCP listener instead of the default Unix domain socket.
const EnvListenNet = "GRIDBOX_LISTEN_NET"

// Listener wraps a net.Listener, resolving each accepted connection's peer
// credentials up front and tagging it with a unique synthetic remote
// address. internal/connwatch.Watcher.TagConn reuses that address as its
// peer id, so the same string names a connection on both sides: as the
// connwatch disconnect-notification key and as the Lookup key below.
type Listener struct {
	net.Listener
	network string
	logger  *zap.Logger

	mu      sync.Mutex
	creds   map[string]item.PeerInfo
	counter atomic.Uint64
}

// Listen opens the transport listener. network is "unix" or "tcp"; for
// "unix", a stale socket file left behind by a crashed prior run is removed
// first.
func Listen(network, address string, logger *zap.Logger) (*Listener, error) {
	if network == "unix" {
		if err := os.Remove(address); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("transport: removing stale socket %q: %w", address, err)
		}
	}
	inner, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("transport: listening on %s %q: %w", network, address, err)
	}
	return &Listener{
		Listener: inner,
		network:  network,
		logger:   logger.Named("transport"),
		creds:    make(map[string]item.PeerInfo),
	}, nil
}

// Accept resolves the new connection's peer credentials (SO_PEERCRED plus
// AppArmor label on "unix"; the zero PeerInfo on "tcp", which has no kernel
// peer-credential concept) before returning it to gRPC's accept loop.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	tag := "peer.conn-" + strconv.FormatUint(l.counter.Add(1), 10)

	var info item.PeerInfo
	if uc, ok := conn.(*net.UnixConn); ok {
		info, err = peerCredentials(uc)
		if err != nil {
			l.logger.Warn("resolving peer credentials", zap.String("tag", tag), zap.Error(err))
			info = item.PeerInfo{}
		}
	}

	l.mu.Lock()
	l.creds[tag] = info
	l.mu.Unlock()

	return &taggedConn{Conn: conn, tag: tag, forget: func() { l.forget(tag) }}, nil
}

func (l *Listener) forget(tag string) {
	l.mu.Lock()
	delete(l.creds, tag)
	l.mu.Unlock()
}

// Lookup implements peercache.Lookup. peerID is expected to be one of the
// tags this Listener handed out via Accept — true whenever
// internal/connwatch.Watcher is wired as the gRPC server's stats.Handler,
// since it reuses the tagged connection's RemoteAddr verbatim as the
// connwatch peer id.
func (l *Listener) Lookup(ctx context.Context, peerID string) (item.PeerInfo, error) {
	l.mu.Lock()
	info, ok := l.creds[peerID]
	l.mu.Unlock()
	if !ok {
		return item.PeerInfo{}, fmt.Errorf("transport: no credentials recorded for peer %q", peerID)
	}
	return info, nil
}

// taggedConn gives an accepted connection a unique, stable RemoteAddr so
// internal/connwatch can key its peer id off it instead of minting an
// unrelated synthetic one.
type taggedConn struct {
	net.Conn
	tag       string
	forget    func()
	closeOnce sync.Once
}

func (c *taggedConn) RemoteAddr() net.Addr { return taggedAddr(c.tag) }

func (c *taggedConn) Close() error {
	c.closeOnce.Do(c.forget)
	return c.Conn.Close()
}

type taggedAddr string

func (a taggedAddr) Network() string { return "gridbox-peer" }
func (a taggedAddr) String() string  { return string(a) }
