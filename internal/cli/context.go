package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distgate/distgate/internal/config"
)

type ctxKey string

const configKey ctxKey = "config"

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, cfg)
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
