// Command registryd serves spec.md section 6's separate registry IPC
// surface: RegistryService.List, a lookup-only service over a small
// GORM/SQLite store of installed accounts and provider kinds. It does not
// route ProviderService calls — see cmd/providerd for that.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/gridbox/provider/internal/registrystore"
	"github.com/gridbox/provider/internal/rpcapi"
)

var (
	version = "dev"
	commit  = "none"
)

type config struct {
	listenNetwork string
	listenAddress string
	dbPath        string
	logLevel      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "registryd",
		Short: "gridbox registry daemon — RegistryService.List over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.listenNetwork, "listen-network", envOrDefault("GRIDBOX_REGISTRY_LISTEN_NET", "unix"), "Transport network: unix or tcp")
	root.PersistentFlags().StringVar(&cfg.listenAddress, "listen-address", envOrDefault("GRIDBOX_REGISTRY_LISTEN_ADDRESS", defaultSocketPath()), "Socket path (unix) or host:port (tcp)")
	root.PersistentFlags().StringVar(&cfg.dbPath, "db-path", envOrDefault("GRIDBOX_REGISTRY_DB", "./gridbox-registry.db"), "SQLite file backing the installed-account table")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("GRIDBOX_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("registryd %s (commit: %s)\n", version, commit)
		},
	}
}

func run(cmd *cobra.Command, cfg *config) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := registrystore.Open(registrystore.Config{DSN: cfg.dbPath, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening registry store: %w", err)
	}
	store := registrystore.NewStore(db, logger)
	svc := registrystore.NewService(store)

	network := cfg.listenNetwork
	if network == "unix" {
		_ = os.Remove(cfg.listenAddress)
	}
	lis, err := net.Listen(network, cfg.listenAddress)
	if err != nil {
		return fmt.Errorf("listening on %s %s: %w", network, cfg.listenAddress, err)
	}

	grpcSrv := grpc.NewServer()
	rpcapi.RegisterRegistryServiceServer(grpcSrv, svc)

	go func() {
		<-ctx.Done()
		logger.Info("registryd shutting down")
		grpcSrv.GracefulStop()
	}()

	logger.Info("registryd listening",
		zap.String("version", version),
		zap.String("network", network),
		zap.String("address", cfg.listenAddress),
	)
	if err := grpcSrv.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "gridbox-registry.sock")
	}
	return filepath.Join(os.TempDir(), "gridbox-registry.sock")
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
