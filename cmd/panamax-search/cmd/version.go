package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/output"
	"github.com/Aman-CERP/panamax-search/pkg/version"
)

type versionOptions struct {
	json  bool
	short bool
	deps  bool
}

func newVersionCmd() *cobra.Command {
	var opts versionOptions

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, git commit, build date and Go version.

With --deps, also list the module versions compiled in, which is what a bug
report about cache or archive parsing needs.`,
		Args: cobra.NoArgs,
		// Version output must not depend on the config file.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&opts.short, "short", false, "Output only the version number")
	cmd.Flags().BoolVar(&opts.deps, "deps", false, "Include compiled-in module versions")
	cmd.MarkFlagsMutuallyExclusive("json", "short")
	cmd.MarkFlagsMutuallyExclusive("deps", "short")

	return cmd
}

func runVersion(cmd *cobra.Command, opts versionOptions) error {
	w := cmd.OutOrStdout()
	if opts.short {
		_, err := fmt.Fprintln(w, version.Short())
		return err
	}

	info := version.GetInfo()
	if opts.deps {
		info.Deps = version.Dependencies()
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	if _, err := fmt.Fprintln(w, version.String()); err != nil {
		return err
	}
	out := output.New(w)
	for _, d := range info.Deps {
		line := d.Path + " " + d.Version
		if d.Replace != "" {
			line += " => " + d.Replace
		}
		out.Status("  ", line)
	}
	return nil
}
