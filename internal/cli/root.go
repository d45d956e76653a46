// Package cli implements the distgate command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/gate"
	"github.com/distgate/distgate/internal/ledger"
	"github.com/distgate/distgate/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "distgate",
		Short:         "Publish decision and distribution gate",
		Long:          "distgate decides whether finished artifacts may be delivered to a channel, routes them, and keeps an append-only audit trail of every decision.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: publish.yaml in search paths)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	}

	cmd.AddCommand(
		newPublishCmd(),
		newApproveCmd(),
		newRollbackCmd(),
		newHistoryCmd(),
		newReportCmd(),
		newChannelsCmd(),
	)

	return cmd
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.LoadDefault()
}

// openGate builds the orchestrator and its ledger for a command invocation.
// The returned close func must be deferred.
func openGate(cfg *config.Config) (*gate.Orchestrator, ledger.Ledger, func(), error) {
	led, err := ledger.Open(cfg.Audit)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open audit ledger: %w", err)
	}
	return gate.New(cfg, led), led, func() { _ = led.Close() }, nil
}
