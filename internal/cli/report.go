package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/ledger"
)

func newReportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a Markdown audit report",
		Long:  "Summarize the audit ledger by channel and status with the most recent actions, as Markdown.",
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

			records, err := led.List(cmd.Context(), 0, 0)
			if err != nil {
				return err
			}

			report := ledger.Summarize(records).Markdown(time.Now())

			if output == "" {
				fmt.Print(report)
				return nil
			}
			if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Printf("wrote report to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")

	return cmd
}
