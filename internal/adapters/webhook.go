package adapters

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
)

// WebhookAdapter delivers artifacts as chat messages via an incoming
// webhook. Delivery is currently a stub that logs intent and reports
// success.
type WebhookAdapter struct {
	channelName string
	client      *http.Client
	logger      zerolog.Logger
}

// NewWebhookAdapter creates a chat webhook adapter for the named channel.
func NewWebhookAdapter(channelName string, cfg config.ChannelConfig) *WebhookAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookAdapter{
		channelName: channelName,
		client:      &http.Client{Timeout: timeout},
		logger:      logging.Component("adapter").With().Str("channel", channelName).Logger(),
	}
}

// Publish posts a message to the webhook URL.
func (a *WebhookAdapter) Publish(ctx context.Context, sourceFile, destination string, metadata map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a.logger.Info().
		Str("destination", destination).
		Str("source_file", sourceFile).
		Msg("webhook publish (stub)")
	a.logger.Warn().Msg("webhook adapter is a stub, no request was sent")

	return true, nil
}

// Rollback always returns false: a delivered chat message cannot be unsent.
func (a *WebhookAdapter) Rollback(ctx context.Context, destination string, metadata map[string]string) (bool, error) {
	a.logger.Warn().Str("destination", destination).Msg("rollback not supported for chat messages")
	return false, nil
}

// Validate reports whether the adapter configuration is usable.
func (a *WebhookAdapter) Validate() bool {
	return a.client != nil
}

// Ensure WebhookAdapter implements ChannelAdapter
var _ ChannelAdapter = (*WebhookAdapter)(nil)
