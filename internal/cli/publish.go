package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/models"
)

func newPublishCmd() *cobra.Command {
	var (
		artifactID   string
		artifactType string
		sourceFile   string
		channel      string
		visibility   string
		approvedBy   string
		scheduleFor  string
		requestedBy  string
		metadata     []string
		check        bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Submit an artifact for delivery to a channel",
		Long: `Submit an already-rendered artifact for delivery.

The request runs through policy evaluation, routing, and the channel
adapter; every outcome, including denials, is recorded in the audit
ledger. Use --check to only ask whether the channel/visibility pair
could pass the gate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			orch, _, closeGate, err := openGate(cfg)
			if err != nil {
				return err
			}
			defer closeGate()

			if check {
				ok := orch.CanPublish(models.Channel(channel), models.VisibilityLevel(visibility))
				fmt.Printf("can publish to %s at visibility %s: %v\n", channel, visibility, ok)
				if !ok {
					os.Exit(1)
				}
				return nil
			}

			now := time.Now()
			req := models.PublishRequest{
				ArtifactID:   artifactID,
				ArtifactType: artifactType,
				SourceFile:   sourceFile,
				Channel:      models.Channel(channel),
				Visibility:   models.VisibilityLevel(visibility),
				Metadata:     parseMetadata(metadata),
				RequestedBy:  requestedBy,
				RequestedAt:  now,
			}

			if approvedBy != "" {
				req = req.Approve(approvedBy, now)
			}

			if scheduleFor != "" {
				at, err := time.Parse(time.RFC3339, scheduleFor)
				if err != nil {
					return fmt.Errorf("invalid --schedule timestamp (want RFC3339): %w", err)
				}
				req, err = req.Schedule(at, now)
				if err != nil {
					return err
				}
			}

			record, err := orch.Publish(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(record)
			}
			printRecord(record)
			if record.Status == models.PublishStatusFailed {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&artifactID, "artifact-id", "", "artifact identifier (required)")
	cmd.Flags().StringVar(&artifactType, "artifact-type", "marketing_output", "artifact type")
	cmd.Flags().StringVar(&sourceFile, "source", "", "path to the rendered output file (required)")
	cmd.Flags().StringVar(&channel, "channel", "", "target channel (required)")
	cmd.Flags().StringVar(&visibility, "visibility", string(models.VisibilityInternal), "visibility level")
	cmd.Flags().StringVar(&approvedBy, "approved-by", "", "attach human approval from this identity")
	cmd.Flags().StringVar(&scheduleFor, "schedule", "", "defer delivery until this RFC3339 time")
	cmd.Flags().StringVar(&requestedBy, "requested-by", "cli", "requester identity")
	cmd.Flags().StringArrayVar(&metadata, "meta", nil, "metadata entry as key=value (repeatable)")
	cmd.Flags().BoolVar(&check, "check", false, "only check whether the channel/visibility pair could pass")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the audit record as JSON")

	return cmd
}

func parseMetadata(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			metadata[pair] = ""
			continue
		}
		metadata[key] = value
	}
	return metadata
}

func printRecord(record *models.PublishRecord) {
	fmt.Printf("record:       %s\n", record.RecordID)
	fmt.Printf("status:       %s\n", record.Status)
	fmt.Printf("artifact:     %s (%s)\n", record.ArtifactID, record.ArtifactType)
	fmt.Printf("channel:      %s\n", record.Channel)
	fmt.Printf("visibility:   %s\n", record.Visibility)
	if record.Destination != "" {
		fmt.Printf("destination:  %s\n", record.Destination)
	}
	fmt.Printf("approval:     %s", record.Approval)
	if record.ApprovedBy != "" {
		fmt.Printf(" (by %s)", record.ApprovedBy)
	}
	fmt.Println()
	if record.ErrorMessage != "" {
		fmt.Printf("error:        %s\n", record.ErrorMessage)
	}
	fmt.Printf("can rollback: %v\n", record.CanRollback)
}
