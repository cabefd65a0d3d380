package main

import (
	"github.com/spf13/cobra"

	temporalclient "go.temporal.io/sdk/client"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWithDialer(nil)
}

// newRootCommandWithDialer builds the command tree. A nil dial connects to
// the configured Temporal frontend.
func newRootCommandWithDialer(dial func() (temporalclient.Client, error)) *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)
	if dial != nil {
		ctx.dial = dial
	}

	rootCmd := &cobra.Command{
		Use:           "recordingctl",
		Short:         "Operate the recording ingestion pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return ctx.ensureConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "config/config.yaml", "Configuration file path")

	rootCmd.AddCommand(newReindexCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newPathCommand())

	return rootCmd
}

// offlineAnnotation marks commands that don't load the configuration.
const offlineAnnotation = "offline"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[offlineAnnotation]; ok {
			return true
		}
	}
	return false
}
