// Package cmd provides the CLI commands for panamax-search.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/config"
	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/logging"
	"github.com/Aman-CERP/panamax-search/internal/profiling"
	"github.com/Aman-CERP/panamax-search/pkg/version"
)

// Command annotations read by setupLogging.
const (
	// annotLogFile makes a command log to the log file even when log.file
	// is unset.
	annotLogFile = "log_file"
	// annotNoStderr keeps a command's logs off stderr.
	annotNoStderr = "no_stderr"
)

// globalOptions holds flags shared by every command.
type globalOptions struct {
	mirror     string
	configPath string
	verbose    int
	profile    profiling.Options
}

// app carries state set up before a command runs.
type app struct {
	opts    globalOptions
	watch   watchFlags
	cfg     *config.Config
	cleanup func()
	profile *profiling.Session
}

// NewRootCmd creates the root command for the panamax-search CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}
	var sopts searchOptions

	cmd := &cobra.Command{
		Use:   "panamax-search [flags] QUERY...",
		Short: "Search the crates of a panamax crates.io mirror",
		Long: `Search the crates of a panamax crates.io mirror, offline.

Each QUERY is a regular expression. Results come in three groups: crates
named exactly like a query (in query order), then crates whose name
matches a query, then crates whose description matches one.

The first search builds an index of the mirror and saves it next to the
mirror as a cache. The cache is rebuilt whenever the mirror is synced.`,
		Example: `  # Search a mirror in ~/panamax
  panamax-search serde

  # Several queries, case sensitive, against another mirror
  panamax-search -s -m /srv/panamax '^tokio' Async

  # Rebuild the cache after a sync
  panamax-search -U`,
		Version:       version.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, a, args, sopts)
		},
	}

	cmd.SetVersionTemplate("panamax-search version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.New(errors.ErrCodeUsage, err.Error(), nil).
			WithSuggestion("run 'panamax-search --help' for usage")
	})

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.opts.mirror, "mirror", "m", "", "Mirror directory (default from config, ~/panamax)")
	pf.StringVar(&a.opts.configPath, "config", "", "Config file (default ~/.config/panamax-search/config.yaml)")
	pf.CountVarP(&a.opts.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	pf.StringVar(&a.opts.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	pf.StringVar(&a.opts.profile.Heap, "profile-mem", "", "Write heap profile to file on exit")
	pf.StringVar(&a.opts.profile.Trace, "profile-trace", "", "Write execution trace to file")

	addSearchFlags(cmd, &sopts)

	cmd.PersistentPreRunE = a.setup
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) { a.teardown() }

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd, a
}

// Execute runs the root command. Errors are printed to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRoot()
	// PersistentPostRun is skipped when a command fails.
	defer a.teardown()
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprint(root.ErrOrStderr(), errors.FormatForCLI(err))
		return err
	}
	return nil
}

// setup loads the configuration and configures logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := a.setupLogging(cmd); err != nil {
		return err
	}
	return a.startProfiling()
}

func (a *app) startProfiling() error {
	if !a.opts.profile.Enabled() {
		return nil
	}
	s, err := profiling.Start(a.opts.profile)
	if err != nil {
		return errors.New(errors.ErrCodeUsage, "could not start profiling", err)
	}
	a.profile = s
	return nil
}

func (a *app) teardown() {
	if a.profile != nil {
		if err := a.profile.Stop(); err != nil {
			slog.Warn("profile_write_failed", slog.String("error", err.Error()))
		}
		a.profile = nil
	}
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// loadConfig builds the effective configuration, with flags applied last.
func (a *app) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if a.opts.configPath != "" {
		cfg, err = config.LoadFile(a.opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if a.opts.mirror != "" {
		cfg.Mirror.Path = a.opts.mirror
	}
	return cfg, nil
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	logCfg := logging.Config{
		Level:     a.cfg.Log.Level,
		Verbosity: a.opts.verbose,
		Format:    a.cfg.Log.Format,
	}
	if a.cfg.Log.File != "" {
		path, err := config.ExpandPath(a.cfg.Log.File)
		if err != nil {
			return errors.New(errors.ErrCodeConfigInvalid, "invalid log.file", err)
		}
		logCfg.FilePath = path
	} else if cmd.Annotations[annotLogFile] != "" {
		logCfg.FilePath = logging.DefaultLogPath()
	}
	if cmd.Annotations[annotNoStderr] == "" {
		logCfg.Stderr = cmd.ErrOrStderr()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "could not set up logging", err).
			WithDetail("file", logCfg.FilePath)
	}
	a.cleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// newStore opens the index store for the configured mirror.
func (a *app) newStore(progress index.ProgressFunc) (*index.Store, error) {
	mirror, err := a.cfg.MirrorPath()
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "invalid mirror path", err)
	}
	storeCfg := a.cfg.StoreConfig()
	storeCfg.Progress = progress
	return index.NewStore(mirror, storeCfg), nil
}

// setupDefaults configures logging from built-in defaults, for commands
// that must work even when the config file is broken.
func (a *app) setupDefaults(cmd *cobra.Command, _ []string) error {
	a.cfg = config.NewConfig()
	return a.setupLogging(cmd)
}
