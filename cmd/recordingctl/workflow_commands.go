package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/webhook"
	"github.com/instill-ai/recording-backend/pkg/worker"
)

func newReindexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <recording-id>",
		Short: "Re-persist and re-notify an archived recording document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.FromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid recording id %q", args[0])
			}

			return ctx.withWorker(func(client temporalclient.Client, w *worker.Worker) error {
				run, err := worker.NewReindexRecordingWorkflow(client, w).Execute(cmd.Context(), service.ReindexRecordingWorkflowParam{
					RecordingID: id.String(),
				})
				if err != nil {
					return err
				}
				printRun(cmd, run)
				return nil
			})
		},
	}
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var lookbackDays int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Ingest recent cloud recordings that were never archived",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lookbackDays < 0 {
				return fmt.Errorf("--lookback-days must not be negative")
			}

			return ctx.withWorker(func(client temporalclient.Client, w *worker.Worker) error {
				run, err := worker.NewSweepRecordingsWorkflow(client, w).Execute(cmd.Context(), service.SweepRecordingsWorkflowParam{
					LookbackDays: lookbackDays,
				})
				if err != nil {
					return err
				}
				printRun(cmd, run)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "Days to look back (0 uses sweep.lookbackdays)")
	return cmd
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var deleteSource bool

	cmd := &cobra.Command{
		Use:   "ingest <event.json>",
		Short: "Start ingestion of a recording.completed event read from a file",
		Long: "Start ingestion of a recording.completed event read from a file. The event\n" +
			"is trusted: it isn't authenticated and the duration floor isn't applied.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := readEvent(args[0])
			if err != nil {
				return err
			}

			recordingID, err := service.DeriveRunIdentity(event.Payload.Object.UUID)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("delete-source") {
				deleteSource = config.Config.Ingest.DeleteSourceAfterIngest
			}

			return ctx.withWorker(func(client temporalclient.Client, w *worker.Worker) error {
				run, err := worker.NewIngestRecordingWorkflow(client, w).Execute(cmd.Context(), service.IngestRecordingWorkflowParam{
					RecordingID:  recordingID,
					Event:        *event,
					DeleteSource: deleteSource,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording %s\n", recordingID)
				printRun(cmd, run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&deleteSource, "delete-source", false, "Delete the cloud recording once archived (default from ingest.deletesourceafteringest)")
	return cmd
}

// readEvent accepts either a full webhook delivery or the bare event.
func readEvent(path string) (*types.RecordingEvent, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	envelope, err := webhook.ParseEnvelope(body)
	if err != nil {
		return nil, err
	}
	event, err := envelope.RecordingEvent()
	if err != nil {
		return nil, err
	}
	return event, nil
}

func printRun(cmd *cobra.Command, run *service.WorkflowRun) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workflow %s\n", run.WorkflowID)
	fmt.Fprintf(out, "Run      %s\n", run.RunID)
}

// printJSON writes v indented.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
