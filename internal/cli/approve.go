package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/models"
)

func newApproveCmd() *cobra.Command {
	var (
		approver string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "approve <record-id>",
		Short: "Approve and resubmit a publish that was held for sign-off",
		Long: `Approve a publish that was denied pending human approval.

The original audit record is looked up by id and resubmitted as a new
request with the approval attached; the held record itself is never
edited.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			orch, led, closeGate, err := openGate(cfg)
			if err != nil {
				return err
			}
			defer closeGate()

			ctx := cmd.Context()
			held, err := led.Lookup(ctx, args[0])
			if err != nil {
				return err
			}
			if held.Approval != string(models.ApprovalStatusPending) {
				return fmt.Errorf("record %s is not awaiting approval (approval status %s)", held.RecordID, held.Approval)
			}

			now := time.Now()
			req := models.PublishRequest{
				ArtifactID:   held.ArtifactID,
				ArtifactType: held.ArtifactType,
				SourceFile:   held.SourceFile,
				Channel:      held.Channel,
				Visibility:   models.VisibilityLevel(held.Visibility),
				Metadata:     held.Metadata,
				RequestedBy:  approver,
				RequestedAt:  now,
			}.Approve(approver, now)

			record, err := orch.Publish(ctx, req)
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

	cmd.Flags().StringVar(&approver, "by", "", "approver identity (required)")
	_ = cmd.MarkFlagRequired("by")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the audit record as JSON")

	return cmd
}
