package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/filen/filen-cache-core/internal/config"
	"github.com/filen/filen-cache-core/internal/ingest"
	"github.com/filen/filen-cache-core/internal/pathresolve"
	"github.com/filen/filen-cache-core/internal/query"
	"github.com/filen/filen-cache-core/internal/refresh"
	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/upsert"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in setupRootCmd().
var (
	flagConfigPath string
	flagStorePath  string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// skipConfigAnnotation marks commands that handle store access themselves
// (currently unused: no command sets it, so every command, "config show"
// included, opens the store first).
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles every collaborator a command's RunE needs: the open
// store, the read-only query surface, the write engine, and the refresher.
// Built once in PersistentPreRunE, the same shape as the teacher's
// CLIContext{Cfg, Logger} but carrying the cache core's collaborators
// instead of a resolved drive.
type CLIContext struct {
	Store    *store.Store
	Query    *query.Surface
	Engine   *upsert.Engine
	Resolver *pathresolve.Resolver
	Ingester *ingest.Ingester
	Pool     *refresh.Pool
	Cfg      *config.Config
	Logger   *slog.Logger
	Quiet    bool
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}
	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message. RunE handlers call this; the command tree guarantees the
// context is populated by PersistentPreRunE before RunE executes.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — PersistentPreRunE must run before RunE")
	}
	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "filen-cache-core",
		Short:         "Inspect and drive the Filen local cache",
		Long:          "A CLI over the Filen cache core: the persistent SQLite cache of a remote encrypted drive's directory tree, search/recents side-channel, and directory refresher.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return openCache(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if cc := cliContextFrom(cmd.Context()); cc != nil {
				return cc.Store.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagStorePath, "store", "", "SQLite cache database path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRecentsCmd())
	cmd.AddCommand(newRootInfoCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// openCache resolves configuration, opens the SQLite store, and wires every
// collaborator package into a CLIContext stored on the command's context.
func openCache(cmd *cobra.Command) error {
	logger := buildLogger(nil)

	cli := config.CLIOverrides{ConfigPath: flagConfigPath, StorePath: flagStorePath}
	env := config.ReadEnvOverrides()

	cfg, storePath, err := config.Resolve(env, cli, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	finalLogger := buildLogger(cfg)

	s, err := store.Open(cmd.Context(), storePath, finalLogger)
	if err != nil {
		return fmt.Errorf("opening cache store: %w", err)
	}

	engine := upsert.New(s)
	fake := remote.NewFake() // no live remote collaborator is wired by default; see DESIGN.md
	refresher := refresh.New(s, engine, fake, fake, finalLogger)

	cc := &CLIContext{
		Store:    s,
		Query:    query.New(s),
		Engine:   engine,
		Resolver: pathresolve.New(s),
		Ingester: ingest.New(s, engine, fake, finalLogger),
		Pool:     refresh.NewPool(refresher, cfg.Refresh.MaxConcurrent, finalLogger),
		Cfg:      cfg,
		Logger:   finalLogger,
		Quiet:    flagQuiet,
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Pass nil for pre-config bootstrap. Config-file log level is the
// baseline; --verbose/--debug/--quiet override it (mutually exclusive, so at
// most one applies).
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
	if flagDebug {
		level = slog.LevelDebug
	}
	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits with
// a code selected by exitCodeFor.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitCodeFor(err))
}
