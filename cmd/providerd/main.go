// Command providerd is the provider-side service runtime of spec.md
// sections 4 and 6: it binds one ProviderInterface per enumerated account
// behind a gRPC listener (a Unix domain socket by default), backed by
// internal/localprovider, and runs until terminated.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/authbroker"
	"github.com/gridbox/provider/internal/housekeeping"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/localprovider"
	"github.com/gridbox/provider/internal/server"
)

var (
	version = "dev"
	commit  = "none"
)

type config struct {
	listenNetwork string
	listenAddress string
	dataDir       string
	accountsFile  string
	idleTimeout   time.Duration
	sweepInterval time.Duration
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
		Use:   "providerd",
		Short: "gridbox provider runtime — exposes ProviderService over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.listenNetwork, "listen-network", envOrDefault("GRIDBOX_LISTEN_NET", "unix"), "Transport network: unix or tcp")
	root.PersistentFlags().StringVar(&cfg.listenAddress, "listen-address", envOrDefault("GRIDBOX_LISTEN_ADDRESS", defaultSocketPath()), "Socket path (unix) or host:port (tcp)")
	root.PersistentFlags().StringVar(&cfg.dataDir, "data-dir", envOrDefault("GRIDBOX_DATA_DIR", "./data"), "Root directory for per-account LocalProvider storage")
	root.PersistentFlags().StringVar(&cfg.accountsFile, "accounts-file", envOrDefault("GRIDBOX_ACCOUNTS_FILE", ""), "JSON file describing the accounts to serve (empty = one default account rooted at data-dir)")
	root.PersistentFlags().DurationVar(&cfg.idleTimeout, "idle-timeout", envDurationOrDefault("GRIDBOX_IDLE_TIMEOUT", 30*time.Second), "Per-account inactivity timeout (0 = never)")
	root.PersistentFlags().DurationVar(&cfg.sweepInterval, "sweep-interval", envDurationOrDefault("GRIDBOX_SWEEP_INTERVAL", 15*time.Minute), "How often housekeeping expires orphaned upload temp files")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("GRIDBOX_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("providerd %s (commit: %s)\n", version, commit)
		},
	}
}

func run(ctx context.Context, cfg *config) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.dataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tempDir := filepath.Join(cfg.dataDir, ".gridbox-staging")
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}

	broker, err := loadBroker(cfg.accountsFile)
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}

	factory := func(acct authbroker.Account) (item.Provider, error) {
		root := filepath.Join(cfg.dataDir, acct.AccountID)
		if err := os.MkdirAll(root, 0o700); err != nil {
			return nil, fmt.Errorf("creating provider root for %q: %w", acct.AccountID, err)
		}
		return localprovider.New(root, logger)
	}

	accounts, err := broker.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts for housekeeping: %w", err)
	}
	dirs := make([]string, 0, len(accounts)+1)
	dirs = append(dirs, tempDir)
	for _, acct := range accounts {
		dirs = append(dirs, filepath.Join(cfg.dataDir, acct.AccountID, ".gridbox-tmp"))
	}
	sweeper, err := housekeeping.New(dirs, cfg.sweepInterval, logger)
	if err != nil {
		return fmt.Errorf("creating housekeeping sweeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop() //nolint:errcheck

	srv := server.New(server.Config{
		ListenNetwork: cfg.listenNetwork,
		ListenAddress: cfg.listenAddress,
		IdleTimeout:   cfg.idleTimeout,
		TempDir:       tempDir,
	}, broker, factory, logger)

	logger.Info("starting providerd",
		zap.String("version", version),
		zap.String("listen_network", cfg.listenNetwork),
		zap.String("listen_address", cfg.listenAddress),
	)

	return srv.Run(ctx)
}

// accountsFileEntry is the JSON shape of one element of the array in
// --accounts-file.
type accountsFileEntry struct {
	AccountID   string `json:"account_id"`
	ProviderID  string `json:"provider_id"`
	DisplayName string `json:"display_name"`
}

// loadBroker reads accountsFile (if set) into a StaticBroker. In the
// absence of a file, it serves a single "default" account with absent
// credentials — appropriate for a single-user, local-filesystem-only
// deployment where internal/localprovider needs no credentials at all.
// Per spec.md section 1, this runtime never stores real credentials
// itself; a deployment with real broker-managed accounts supplies one via
// --accounts-file or wires in its own authbroker.Broker implementation.
func loadBroker(accountsFile string) (authbroker.Broker, error) {
	if accountsFile == "" {
		return authbroker.NewStaticBroker(
			[]authbroker.Account{{AccountID: "default", ProviderID: "local", DisplayName: "Default"}},
			map[string]item.Credentials{"default": {Kind: item.CredentialsAbsent}},
		), nil
	}

	data, err := os.ReadFile(accountsFile)
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}
	var entries []accountsFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing accounts file: %w", err)
	}

	accounts := make([]authbroker.Account, 0, len(entries))
	creds := make(map[string]item.Credentials, len(entries))
	for _, e := range entries {
		accounts = append(accounts, authbroker.Account{AccountID: e.AccountID, ProviderID: e.ProviderID, DisplayName: e.DisplayName})
		creds[e.AccountID] = item.Credentials{Kind: item.CredentialsAbsent}
	}
	return authbroker.NewStaticBroker(accounts, creds), nil
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "gridbox-provider.sock")
	}
	return filepath.Join(os.TempDir(), "gridbox-provider.sock")
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

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
