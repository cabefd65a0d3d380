package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/instill-ai/recording-backend/pkg/recordingpath"
)

type pathResult struct {
	Organization string `json:"organization"`
	Path         string `json:"path"`
}

func newPathCommand() *cobra.Command {
	var (
		startTime string
		timeZone  string
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "path <parent-meeting-topic>",
		Short: "Derive the archive path of a meeting without contacting any service",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			offlineAnnotation: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timeZone)
			if err != nil {
				return fmt.Errorf("invalid time zone %q: %w", timeZone, err)
			}

			topic := args[0]
			organization := recordingpath.ParseOrganization(topic)
			path, err := recordingpath.DerivePath(organization, topic, startTime, loc)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, pathResult{Organization: organization, Path: path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&startTime, "start-time", "", "Meeting start time (RFC 3339)")
	cmd.Flags().StringVar(&timeZone, "tz", "UTC", "IANA time zone of the time segment")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the organization and path as JSON")
	return cmd
}
