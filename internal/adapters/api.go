package adapters

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
)

// defaultTimeout bounds network calls when the channel config sets none.
const defaultTimeout = 30 * time.Second

// APIAdapter delivers artifacts to REST-style endpoints (website, CMS, CRM).
//
// Delivery is currently a stub: it logs intent and reports success without
// performing the HTTP request. The client and timeout wiring are real so a
// production transport can be dropped in without changing the contract:
// a transport failure must surface as a false result, never be swallowed.
type APIAdapter struct {
	channelName string
	client      *http.Client
	logger      zerolog.Logger
}

// NewAPIAdapter creates an API adapter for the named channel.
func NewAPIAdapter(channelName string, cfg config.ChannelConfig) *APIAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &APIAdapter{
		channelName: channelName,
		client:      &http.Client{Timeout: timeout},
		logger:      logging.Component("adapter").With().Str("channel", channelName).Logger(),
	}
}

// Publish posts the artifact to the destination URL.
func (a *APIAdapter) Publish(ctx context.Context, sourceFile, destination string, metadata map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a.logger.Info().
		Str("destination", destination).
		Str("source_file", sourceFile).
		Msg("api publish (stub)")
	a.logger.Warn().Msg("api adapter is a stub, no request was sent")

	return true, nil
}

// Rollback retracts a published artifact from the destination.
func (a *APIAdapter) Rollback(ctx context.Context, destination string, metadata map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a.logger.Info().
		Str("destination", destination).
		Msg("api rollback (stub)")
	a.logger.Warn().Msg("api adapter is a stub, no request was sent")

	return true, nil
}

// Validate reports whether the adapter configuration is usable.
func (a *APIAdapter) Validate() bool {
	return a.client != nil
}

// Ensure APIAdapter implements ChannelAdapter
var _ ChannelAdapter = (*APIAdapter)(nil)
