package adapters

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
)

// EmailAdapter delivers artifacts as email attachments over SMTP. Delivery
// is currently a stub that logs intent and reports success.
type EmailAdapter struct {
	channelName string
	logger      zerolog.Logger
}

// NewEmailAdapter creates an email adapter for the named channel.
func NewEmailAdapter(channelName string, cfg config.ChannelConfig) *EmailAdapter {
	return &EmailAdapter{
		channelName: channelName,
		logger:      logging.Component("adapter").With().Str("channel", channelName).Logger(),
	}
}

// Publish sends the artifact to the recipient address.
func (a *EmailAdapter) Publish(ctx context.Context, sourceFile, destination string, metadata map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a.logger.Info().
		Str("destination", destination).
		Str("source_file", sourceFile).
		Msg("email publish (stub)")
	a.logger.Warn().Msg("email adapter is a stub, no mail was sent")

	return true, nil
}

// Rollback always returns false: a delivered email cannot be unsent.
func (a *EmailAdapter) Rollback(ctx context.Context, destination string, metadata map[string]string) (bool, error) {
	a.logger.Warn().Str("destination", destination).Msg("rollback not supported for email")
	return false, nil
}

// Validate reports whether the adapter configuration is usable.
func (a *EmailAdapter) Validate() bool {
	return true
}

// Ensure EmailAdapter implements ChannelAdapter
var _ ChannelAdapter = (*EmailAdapter)(nil)
