// Package routing computes concrete delivery destinations from channel
// configuration.
package routing

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
	"github.com/distgate/distgate/internal/models"
)

// defaultBasePath anchors filesystem deliveries with no configured routing.
const defaultBasePath = "vault"

// Resolver maps publish requests onto concrete destinations (paths, URLs,
// addresses). Resolution never fails: an unresolvable request degrades to a
// sentinel destination so the orchestrator can still produce an auditable
// record.
type Resolver struct {
	fileRouting map[string]config.FileRouting
	logger      zerolog.Logger
}

// NewResolver creates a resolver over the given configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		fileRouting: cfg.FileRouting,
		logger:      logging.Component("routing"),
	}
}

// ResolveDestination computes the destination for a request. Resolution
// order, first match wins: artifact-type file routing, channel file routing,
// filesystem fallback path, API destinations (production, staging, first
// declared), email destinations by visibility, sentinel fallback.
func (r *Resolver) ResolveDestination(req models.PublishRequest, channel config.ChannelConfig) string {
	if channel.Adapter == config.AdapterFilesystem {
		return r.resolveFilesystem(req, channel)
	}

	if dest, ok := resolveAPIDestination(channel.Destinations); ok {
		return dest
	}

	if channel.Adapter == config.AdapterSMTP {
		if dest, ok := resolveEmailDestination(req.Visibility, channel.Destinations); ok {
			return dest
		}
	}

	r.logger.Warn().
		Str("channel", string(req.Channel)).
		Msg("could not determine destination, using default")
	return fmt.Sprintf("%s://default", req.Channel)
}

// resolveFilesystem picks a directory for filesystem deliveries: the
// artifact-type routing table first, then the channel's own routing, then a
// per-channel directory under the default base path.
func (r *Resolver) resolveFilesystem(req models.PublishRequest, channel config.ChannelConfig) string {
	if routing, ok := r.fileRouting[req.ArtifactType]; ok {
		return joinRouting(routing)
	}

	if channel.FileRouting != nil {
		return joinRouting(*channel.FileRouting)
	}

	return filepath.Join(defaultBasePath, string(req.Channel))
}

func joinRouting(routing config.FileRouting) string {
	base := routing.BasePath
	if base == "" {
		base = defaultBasePath
	}
	return filepath.Join(base, routing.Subdirectory)
}

// resolveAPIDestination selects a URL-bearing destination: production first,
// then staging, then the first declared by name.
func resolveAPIDestination(destinations map[string]config.Destination) (string, bool) {
	if len(destinations) == 0 {
		return "", false
	}

	if dest, ok := destinations["production"]; ok && dest.URL != "" {
		return dest.URL, true
	}
	if dest, ok := destinations["staging"]; ok && dest.URL != "" {
		return dest.URL, true
	}

	names := make([]string, 0, len(destinations))
	for name := range destinations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if url := destinations[name].URL; url != "" {
			return url, true
		}
	}

	return "", false
}

// resolveEmailDestination selects a recipient keyed by visibility level,
// falling back to the internal destination.
func resolveEmailDestination(visibility models.VisibilityLevel, destinations map[string]config.Destination) (string, bool) {
	if dest, ok := destinations[string(visibility)]; ok && dest.To != "" {
		return dest.To, true
	}
	if dest, ok := destinations["internal"]; ok && dest.To != "" {
		return dest.To, true
	}
	return "", false
}
