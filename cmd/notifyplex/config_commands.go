package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notifyplex/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var target string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample notifyplex.toml for running outside NZBGet",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sampleConfigTarget(target)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s already exists, pass --overwrite to replace it", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "NZBGet script options (NZBPO_*) still override the file when set.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "path", "p", "", "Where to write the file (default ~/.config/notifyplex/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func sampleConfigTarget(flagValue string) (string, error) {
	if flagValue = strings.TrimSpace(flagValue); flagValue == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(flagValue)
}

var requiredOptionKeys = []string{
	config.KeyPlexHost, config.KeyPlexUsername, config.KeyPlexPassword,
	config.KeySilentFailure, config.KeyRefreshMode, config.KeyRefreshEnabled,
	config.KeyNotifyHeaders, config.KeyNotifyEnabled,
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and report missing script options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plex server:     %s\n", cfg.PlexBaseURL())
			fmt.Fprintf(out, "Credential file: %s\n", cfg.CredentialPath())
			fmt.Fprintf(out, "Refresh:         %s (mode %s)\n", yesNo(cfg.Refresh.Enabled), cfg.Refresh.Mode)
			fmt.Fprintf(out, "Notifications:   %s\n", yesNo(cfg.Notify.Enabled))
			fmt.Fprintf(out, "Silent failure:  %s\n", yesNo(cfg.SilentFailure))

			var missing []string
			for _, key := range requiredOptionKeys {
				if cfg.Provided(key) {
					continue
				}
				missing = append(missing, fmt.Sprintf("%s (%s)", config.OptionName(key), config.EnvName(key)))
			}
			if len(missing) > 0 {
				return fmt.Errorf("options missing: %s", strings.Join(missing, ", "))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
