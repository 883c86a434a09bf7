// Package cli implements the snapctl command tree. Every command runs
// against one application context whose session survives between runs.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"snapgram/internal/app"
	"snapgram/internal/config"
	"snapgram/internal/observability"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Storage     string
	StoragePath string
	Instant     bool

	factory AppFactory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// AppFactory builds the application context a command runs against.
type AppFactory func(ctx context.Context, opts *RootOptions) (*app.App, error)

// NewRootCommand creates the root command backed by the configured storage.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithFactory(defaultFactory)
}

// NewRootCommandWithFactory creates the root command with a custom app
// factory.
func NewRootCommandWithFactory(factory AppFactory) *cobra.Command {
	opts := &RootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:   "snapctl",
		Short: "snapctl - drive the snapgram client state from a terminal",
		Long: `Log in, browse the feed, post, like and comment against the snapgram
demo data. The session is kept in the configured storage, so a login
survives between invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				err := NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "session storage driver (memory|file|redis|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.StoragePath, "storage-path", "", "session file or sqlite database path")
	cmd.PersistentFlags().BoolVar(&opts.Instant, "instant", false, "skip the simulated network latency")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewSignupCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewLikeCommand(opts))
	cmd.AddCommand(NewCommentCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// defaultFactory loads configuration and opens the session storage. The
// in-memory driver would forget the session on exit, so it is swapped for a
// file under the user config directory unless --storage asks for it.
func defaultFactory(ctx context.Context, opts *RootOptions) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	observability.InitLogging(cfg.Env, level, os.Stderr)

	switch {
	case opts.Storage != "":
		cfg.StorageDriver = opts.Storage
	case cfg.StorageDriver == config.DriverMemory:
		cfg.StorageDriver = config.DriverFile
	}
	if opts.StoragePath != "" {
		cfg.StoragePath = opts.StoragePath
	}
	if cfg.StoragePath == "" && (cfg.StorageDriver == config.DriverFile || cfg.StorageDriver == config.DriverSQLite) {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		name := "session.json"
		if cfg.StorageDriver == config.DriverSQLite {
			name = "session.db"
		}
		cfg.StoragePath = filepath.Join(dir, "snapgram", name)
	}
	if opts.Instant {
		cfg.LoginDelayMS, cfg.SignupDelayMS, cfg.FetchDelayMS, cfg.CreatePostDelayMS = 0, 0, 0, 0
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.FromConfig(ctx, cfg)
}

// withApp builds and bootstraps the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app.App, out *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	a, err := opts.factory(ctx, opts)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to start", err))
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			out.VerboseLog("closing session storage: %v", cerr)
		}
	}()

	if err := a.Bootstrap(ctx); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to load posts", err))
	}
	return fn(ctx, a, out)
}
