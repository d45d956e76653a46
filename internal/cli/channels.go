package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/adapters"
	"github.com/distgate/distgate/internal/models"
)

func newChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List configured channels and their adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(cfg.Channels))
			for name := range cfg.Channels {
				names = append(names, name)
			}
			sort.Strings(names)

			if len(names) == 0 {
				fmt.Println("no channels configured")
				return nil
			}

			registry := adapters.NewRegistry(cfg)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHANNEL\tADAPTER\tENABLED\tROLLBACK\tVALID")
			for _, name := range names {
				channel := cfg.Channels[name]

				valid := "-"
				if adapter, err := registry.ForChannel(name); err == nil {
					valid = fmt.Sprintf("%v", adapter.Validate())
				}

				fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\n",
					name,
					channel.Adapter,
					channel.Enabled,
					models.Channel(name).SupportsRollback(),
					valid,
				)
			}
			return w.Flush()
		},
	}

	return cmd
}
