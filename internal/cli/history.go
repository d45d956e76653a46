package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/models"
)

func newHistoryCmd() *cobra.Command {
	var (
		channel    string
		artifactID string
		limit      int
		offset     int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List audit ledger entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			_, led, closeGate, err := openGate(cfg)
			if err != nil {
				return err
			}
			defer closeGate()

			ctx := cmd.Context()
			var records []*models.PublishRecord
			switch {
			case channel != "" && artifactID != "":
				return fmt.Errorf("--channel and --artifact are mutually exclusive")
			case channel != "":
				records, err = led.ListByChannel(ctx, models.Channel(channel), limit)
			case artifactID != "":
				records, err = led.ListByArtifact(ctx, artifactID)
			default:
				records, err = led.List(ctx, limit, offset)
			}
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				for _, record := range records {
					if err := encoder.Encode(record); err != nil {
						return err
					}
				}
				return nil
			}

			if len(records) == 0 {
				fmt.Println("no audit records")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RECORD\tTIME\tARTIFACT\tCHANNEL\tSTATUS\tAPPROVAL")
			for _, record := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					record.RecordID,
					record.PublishedAt.UTC().Format(time.RFC3339),
					record.ArtifactID,
					record.Channel,
					record.Status,
					record.Approval,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "filter by channel")
	cmd.Flags().StringVar(&artifactID, "artifact", "", "filter by artifact id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON lines")

	return cmd
}
