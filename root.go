package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockbookgo/lbcore/internal/config"
	"github.com/lockbookgo/lbcore/internal/docstore"
	"github.com/lockbookgo/lbcore/internal/keychain"
	"github.com/lockbookgo/lbcore/internal/relay"
	"github.com/lockbookgo/lbcore/internal/store"
	"github.com/lockbookgo/lbcore/internal/syncengine"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// CLIContext bundles everything a command needs: the resolved config, a
// logger, the open account database and document store, and (once an
// account exists) the keychain, relay client, and sync engine built from
// it. Created once in PersistentPreRunE.
type CLIContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Store  *store.Store
	Docs   *docstore.Store

	kc     *keychain.Keychain
	relay  *relay.Client
	engine *syncengine.Engine
}

// Account lazily loads the account from disk and builds the keychain,
// relay client, and sync engine the first time a command needs them,
// caching the result on cc for the rest of the invocation.
func (cc *CLIContext) Account(ctx context.Context) (*keychain.Keychain, *relay.Client, *syncengine.Engine, error) {
	if cc.kc != nil {
		return cc.kc, cc.relay, cc.engine, nil
	}

	acct, err := cc.Store.LoadAccount()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("no account configured yet: %w", err)
	}

	rc, err := relay.NewClient(acct.APIURL, defaultHTTPClient(), acct.Seed, cc.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building relay client: %w", err)
	}

	kc, err := keychain.New(*acct, rc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building keychain: %w", err)
	}

	engine := syncengine.New(cc.Store, cc.Docs, rc, kc, cc.Logger)

	cc.kc, cc.relay, cc.engine = kc, rc, engine
	return kc, rc, engine, nil
}

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// cliContextFrom extracts the CLIContext from the command's context.
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, _ := ctx.Value(cliContextKey{}).(*CLIContext)
	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message — a programmer error, since the root command always populates
// it in PersistentPreRunE.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — ensure PersistentPreRunE ran")
	}
	return cc
}

// httpClientTimeout bounds any single relay request; Options.PerRequestTimeout
// bounds it again per sync-engine call, so this is a looser backstop against
// a connection that never completes the TCP handshake at all.
const httpClientTimeout = 30 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lockbookgo",
		Short:   "End-to-end encrypted file sync",
		Long:    "A file-sync client that stores, merges, and shares files the server never sees in plaintext.",
		Version: version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupCLIContext(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newAccountCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newFilesCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newActivityCmd())

	return cmd
}

// setupCLIContext resolves configuration, opens the account database and
// document store, and stashes the result on the command's context.
func setupCLIContext(cmd *cobra.Command) error {
	logger := buildLogger(nil)

	cfg, err := config.LoadResolved(flagConfigPath, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = buildLogger(cfg)

	if err := os.MkdirAll(cfg.Account.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data directory %s: %w", cfg.Account.DataDir, err)
	}

	st, err := store.Open(store.DBPath(cfg.Account.DataDir), logger)
	if err != nil {
		return fmt.Errorf("opening account database: %w", err)
	}

	docs, err := docstore.New(filepath.Join(cfg.Account.DataDir, "documents"), logger)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}

	cc := &CLIContext{Cfg: cfg, Logger: logger, Store: st, Docs: docs}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(shutdownContext(context.WithValue(ctx, cliContextKey{}, cc), logger))

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Pass nil for the pre-config bootstrap logger. CLI flags
// always win over the config file's log level.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelInfo
	}
	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
