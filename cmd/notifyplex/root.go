package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"notifyplex/internal/postprocess"
)

// execute runs the command tree and returns the process exit code. Failures
// before a command could run (flags, configuration) map to the NZBGet error
// code so the job is flagged.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmdCtx := newCommandContext()
	root := newRootCommand(cmdCtx)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		message := strings.ReplaceAll(err.Error(), "\n", " ")
		fmt.Fprintf(stderr, "[ERROR] notifyplex: %s\n", message)
		return postprocess.Error.ExitCode()
	}
	return cmdCtx.exitCode
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notifyplex",
		Short:         "NZBGet post-processing script that refreshes Plex libraries",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a subcommand the NZBGet environment decides what to do.
			return ctx.runCommand(cmd, nil)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Override the log level (debug, info, warn, error)")
	flags.StringVar(&ctx.logFormatFlag, "log-format", "", "Override the log format (auto, nzbget, console, json)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newTestConnectionCommand(ctx))
	rootCmd.AddCommand(newListSectionsCommand(ctx))
	rootCmd.AddCommand(newDeleteCacheCommand(ctx))
	rootCmd.AddCommand(newTestRefreshCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
