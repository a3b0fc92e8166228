package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/logging"
	"github.com/Aman-CERP/panamax-search/internal/ui"
)

// logsOptions holds flags for the logs command.
type logsOptions struct {
	file    string
	lines   int
	follow  bool
	level   string
	pattern string
}

func newLogsCmd(a *app) *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the panamax-search log file",
		Long: `Show the log written by 'panamax-search serve' and 'panamax-search watch'.

The default log lives under $XDG_STATE_HOME/panamax-search
(~/.local/state/panamax-search).`,
		Example: `  # Last 50 entries
  panamax-search logs

  # Follow warnings and errors about the cache
  panamax-search logs -f --level warn --grep cache`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setupDefaults,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Log file to read (default: the standard log path)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level: trace, debug, info, warn, error")
	cmd.Flags().StringVar(&opts.pattern, "grep", "", "Only show entries matching this regular expression")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.file)
	if err != nil {
		return errors.New(errors.ErrCodeUsage, err.Error(), nil)
	}

	cfg := logging.ViewerConfig{
		Level:   opts.level,
		NoColor: !ui.ColorEnabled(ui.ColorAuto, cmd.OutOrStdout()),
	}
	if opts.pattern != "" {
		re, err := regexp.Compile(opts.pattern)
		if err != nil {
			return errors.New(errors.ErrCodeUsage, fmt.Sprintf("invalid --grep pattern %q", opts.pattern), err)
		}
		cfg.Pattern = re
	}

	viewer := logging.NewViewer(cfg, cmd.OutOrStdout())
	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ch := make(chan logging.LogEntry, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(cmd.Context(), path, ch)
	}()
	for {
		select {
		case entry := <-ch:
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		case err := <-errCh:
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		}
	}
}
