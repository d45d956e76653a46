// Package adapters provides pluggable delivery strategies, one per channel
// kind. Adapters perform the actual delivery and reversal of published
// artifacts; everything upstream of them is a decision.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/distgate/distgate/internal/config"
)

// Registry errors.
var (
	ErrChannelNotConfigured = errors.New("channel not configured")
)

// ChannelAdapter is the capability interface every delivery strategy
// implements. Publish and Rollback return false for handled failures and an
// error only for unexpected faults; a false result is an expected outcome
// the orchestrator records, not an exception.
type ChannelAdapter interface {
	// Publish delivers the source file to the destination.
	Publish(ctx context.Context, sourceFile, destination string, metadata map[string]string) (bool, error)

	// Rollback reverses a prior delivery. Adapters for channels whose
	// deliveries cannot be unsent always return false.
	Rollback(ctx context.Context, destination string, metadata map[string]string) (bool, error)

	// Validate sanity-checks the adapter configuration.
	Validate() bool
}

// New creates the adapter selected by the channel configuration.
func New(channelName string, cfg config.ChannelConfig) (ChannelAdapter, error) {
	switch cfg.Adapter {
	case config.AdapterFilesystem:
		return NewLocalFileAdapter(channelName, cfg), nil
	case config.AdapterAPI:
		return NewAPIAdapter(channelName, cfg), nil
	case config.AdapterWebhook:
		return NewWebhookAdapter(channelName, cfg), nil
	case config.AdapterSMTP:
		return NewEmailAdapter(channelName, cfg), nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q for channel %s", cfg.Adapter, channelName)
	}
}

// Registry creates adapters for configured channels.
type Registry struct {
	cfg *config.Config
}

// NewRegistry creates a registry over the given configuration.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg}
}

// ForChannel returns the adapter for the named channel.
func (r *Registry) ForChannel(name string) (ChannelAdapter, error) {
	channel, ok := r.cfg.Channel(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotConfigured, name)
	}
	return New(name, channel)
}
