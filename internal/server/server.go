// Package server implements spec.md section 4.10's startup sequence: open
// the transport, build the shared PeerCredentialCache and DisconnectWatcher,
// enumerate accounts via the authentication broker, and bind one
// ProviderInterface per account behind a single gRPC listener.
//
// spec.md's per-account object path (`/provider/<account-id>`) has no direct
// analogue over a single gRPC service registration, so SPEC_FULL.md re-maps
// it to a leading "gridbox-account-id" metadata field: router.go reads that
// field on every call and dispatches to the matching providerservice.Server.
package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/gridbox/provider/internal/account"
	"github.com/gridbox/provider/internal/authbroker"
	"github.com/gridbox/provider/internal/connwatch"
	"github.com/gridbox/provider/internal/dispatch"
	"github.com/gridbox/provider/internal/handler"
	"github.com/gridbox/provider/internal/inactivity"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/peercache"
	"github.com/gridbox/provider/internal/providerservice"
	"github.com/gridbox/provider/internal/rpcapi"
	"github.com/gridbox/provider/internal/transport"
)

// dispatchBufferSize sizes the executor's submission channel. Submit never
// blocks the submitting goroutine as long as the buffer isn't full; this is
// generous relative to any realistic number of in-flight RPCs per process.
const dispatchBufferSize = 256

// ProviderFactory builds the back-end Provider bound to one enumerated
// account. cmd/providerd supplies one backed by internal/localprovider,
// rooted at a per-account subdirectory of its data directory; tests supply
// fakes.
type ProviderFactory func(acct authbroker.Account) (item.Provider, error)

// Config holds the startup parameters of spec.md sections 4.10 and 6.
type Config struct {
	// ListenNetwork is "unix" (default) or "tcp" — GRIDBOX_LISTEN_NET.
	ListenNetwork string
	// ListenAddress is the socket path (network "unix") or host:port
	// (network "tcp") the service identity is acquired on.
	ListenAddress string
	// IdleTimeout is the per-account inactivity duration; 0 means never,
	// per spec.md section 4.5.
	IdleTimeout time.Duration
	// TempDir stages in-flight uploads before they are finalized into a
	// Provider. Passed through to every bound providerservice.Server.
	TempDir string
}

// Server is the bound set of per-account ProviderInterfaces behind one gRPC
// listener.
type Server struct {
	cfg     Config
	broker  authbroker.Broker
	factory ProviderFactory
	logger  *zap.Logger

	listener  *transport.Listener
	watcher   *connwatch.Watcher
	peerCache *peercache.Cache
	grpcSrv   *grpc.Server
	executor  *dispatch.LoopExecutor

	router *accountRouter
}

// New constructs a Server. Call Run to acquire the service identity,
// enumerate accounts, and start serving.
func New(cfg Config, broker authbroker.Broker, factory ProviderFactory, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		broker:  broker,
		factory: factory,
		logger:  logger.Named("server"),
		router:  newAccountRouter(),
	}
}

// Run opens the transport listener, enumerates accounts, binds one
// ProviderInterface per account, and serves until ctx is cancelled or a
// fatal error occurs. Per spec.md section 4.10, failure to acquire the
// well-known service identity — here, binding the listen address — is
// fatal with a RESOURCE-class error; a broker that cannot be reached at
// enumeration time is equally fatal, matching authbroker.ErrUnavailable's
// doc comment.
func (s *Server) Run(ctx context.Context) error {
	network := s.cfg.ListenNetwork
	if network == "" {
		network = "unix"
	}

	lis, err := transport.Listen(network, s.cfg.ListenAddress, s.logger)
	if err != nil {
		return fmt.Errorf("server: acquiring service identity: %w", err)
	}
	s.listener = lis
	defer lis.Close()

	s.watcher = connwatch.New(s.logger)
	s.peerCache = peercache.New(lis.Lookup, s.logger)
	s.watcher.OnDisconnect(s.peerCache.Invalidate)

	// Constructed up front, per spec.md section 4.10 ("construct the
	// executor; ensure it is instantiated on the main thread"), before any
	// account binds a providerservice.Server onto it.
	s.executor = dispatch.NewLoop(dispatchBufferSize, s.logger)
	go s.executor.Run(ctx)

	accounts, err := s.broker.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("server: enumerating accounts: %w", err)
	}

	for _, acct := range accounts {
		if err := s.bindAccount(acct); err != nil {
			return fmt.Errorf("server: binding account %q: %w", acct.AccountID, err)
		}
	}

	s.grpcSrv = grpc.NewServer(
		grpc.StatsHandler(s.watcher),
		grpc.UnaryInterceptor(s.router.unaryInterceptor),
		grpc.StreamInterceptor(s.router.streamInterceptor),
	)
	rpcapi.RegisterProviderServiceServer(s.grpcSrv, s.router)

	go func() {
		<-ctx.Done()
		s.logger.Info("server shutting down")
		s.grpcSrv.GracefulStop()
	}()

	s.logger.Info("server listening",
		zap.String("network", network),
		zap.String("address", s.cfg.ListenAddress),
		zap.Int("accounts", len(accounts)),
	)
	if err := s.grpcSrv.Serve(lis); err != nil {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// bindAccount constructs the Provider, AccountSession, Handler, and
// providerservice.Server for one enumerated account and registers it with
// the router.
func (s *Server) bindAccount(acct authbroker.Account) error {
	provider, err := s.factory(acct)
	if err != nil {
		return fmt.Errorf("constructing provider: %w", err)
	}

	idle := inactivity.New(s.cfg.IdleTimeout, func() {
		s.logger.Info("account inactivity timeout fired", zap.String("account_id", acct.AccountID))
	}, s.logger)

	sess := account.New(acct.AccountID, provider, s.broker, s.peerCache, idle, s.logger)
	sess.Jobs.SetWatcher(s.watcher)
	sess.Jobs.SetExecutor(s.executor)

	h := handler.New(s.peerCache, idle, s.logger)
	srv := providerservice.New(sess, h, s.cfg.TempDir, s.executor, s.logger)

	s.router.bind(acct.AccountID, srv)
	s.logger.Info("bound account", zap.String("account_id", acct.AccountID), zap.String("provider_id", acct.ProviderID))
	return nil
}
