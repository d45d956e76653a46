package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRollbackCmd() *cobra.Command {
	var (
		actor  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rollback <record-id>",
		Short: "Reverse a prior delivery",
		Long: `Reverse a prior delivery by audit record id.

Only published records on channels that support reversal can be rolled
back. A successful reversal is recorded as a new, linked ledger entry;
the original record is never edited.`,
		Args: cobra.ExactArgs(1),
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

			result, err := orch.Rollback(cmd.Context(), args[0], actor)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(result)
			}

			if !result.Success {
				fmt.Printf("rollback of %s failed: %s\n", result.RecordID, result.ErrorMessage)
				os.Exit(1)
			}
			fmt.Printf("rolled back %s (%s at %s) by %s\n",
				result.RecordID, result.Channel, result.Destination, result.RolledBackBy)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "by", "cli", "identity performing the rollback")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the rollback result as JSON")

	return cmd
}
