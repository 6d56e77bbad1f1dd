package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"notifyplex/internal/logging"
	"notifyplex/internal/postprocess"
	"notifyplex/internal/services/plex"
)

// runCommand executes an NZBGet command and records its exit code. A nil
// command keeps whatever NZBCP_COMMAND selected.
func (c *commandContext) runCommand(cmd *cobra.Command, command *string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	if command != nil {
		cfg.Command = *command
	}

	deps := postprocess.Deps{Logger: logger}
	if out := cmd.OutOrStdout(); logging.IsTerminal(out) {
		deps.Sections = func(sections []plex.Section) {
			fmt.Fprintln(out, renderSections(sections))
		}
	}

	outcome := postprocess.Run(cmd.Context(), cfg, deps)
	c.exitCode = outcome.ExitCode()
	return nil
}

func commandRunner(ctx *commandContext, command string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return ctx.runCommand(cmd, &command)
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Post-process the download described by the NZBGet environment",
		Args:  cobra.NoArgs,
		RunE:  commandRunner(ctx, ""),
	}
}

func newTestConnectionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Sign in to plex.tv without the cached token and check the server accepts it",
		Args:  cobra.NoArgs,
		RunE:  commandRunner(ctx, postprocess.CommandConnectionTest),
	}
}

func newListSectionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list-sections",
		Short: "List library sections with their numbers and types",
		Args:  cobra.NoArgs,
		RunE:  commandRunner(ctx, postprocess.CommandSectionList),
	}
}

func newDeleteCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-cache",
		Short: "Remove the cached plex.tv token",
		Args:  cobra.NoArgs,
		RunE:  commandRunner(ctx, postprocess.CommandDeleteCache),
	}
}

func newTestRefreshCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "test-refresh",
		Short: "Run the configured refresh mode for a TV or Movies test download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var command string
			switch strings.ToLower(strings.TrimSpace(category)) {
			case "tv":
				command = postprocess.CommandRefreshTestTV
			case "movies", "movie":
				command = postprocess.CommandRefreshTestMovies
			default:
				return fmt.Errorf("test-refresh: unsupported category %q (use tv or movies)", category)
			}
			return ctx.runCommand(cmd, &command)
		},
	}
	cmd.Flags().StringVar(&category, "category", "tv", "Test category: tv or movies")
	return cmd
}
