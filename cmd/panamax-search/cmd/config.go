package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/panamax-search/configs"
	"github.com/Aman-CERP/panamax-search/internal/config"
	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/panamax-search/config.yaml)
  3. Environment variables (PANAMAX_SEARCH_*)
  4. Command-line flags`,
		Example: `  # Create user config from template
  panamax-search config init

  # Show effective configuration
  panamax-search config show

  # Print user config file path
  panamax-search config path`,
		// Subcommands must run even when the config file does not load.
		PersistentPreRunE: a.setupDefaults,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file from the built-in template at
~/.config/panamax-search/config.yaml (or under $XDG_CONFIG_HOME).

With --force an existing file is backed up and replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and overwrite an existing configuration")

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var jsonOutput bool
	var defaults bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging defaults, the user config file,
and environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, a, jsonOutput, defaults)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Show only the built-in defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	var backupPath string
	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Status("💡", "Use --force to replace it (a backup is kept)")
			return nil
		}
		var err error
		backupPath, err = config.BackupUserConfig()
		if err != nil {
			return errors.New(errors.ErrCodeConfigInvalid, "could not back up existing config", err).
				WithDetail("path", configPath)
		}
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "could not create config directory", err).
			WithDetail("path", config.GetUserConfigDir())
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "could not write config file", err).
			WithDetail("path", configPath)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	if backupPath != "" {
		out.Statusf("💾", "Backup: %s", backupPath)
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set mirror.path to your panamax mirror")
	out.Status("", "  2. Run 'panamax-search config show' to verify")
	return nil
}

func runConfigShow(cmd *cobra.Command, a *app, jsonOutput, defaults bool) error {
	cfg := config.NewConfig()
	source := "defaults"
	if !defaults {
		loaded, err := a.loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		source = "merged (defaults + user + env + flags)"
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}
	out := output.New(cmd.OutOrStdout())
	out.Statusf("📋", "Configuration source: %s", source)
	out.Code(string(data))
	return nil
}
