package routing

import (
	"testing"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/models"
)

func newResolver(fileRouting map[string]config.FileRouting) *Resolver {
	cfg := config.DefaultConfig()
	if fileRouting != nil {
		cfg.FileRouting = fileRouting
	}
	return NewResolver(cfg)
}

func TestResolveFilesystemArtifactTypeRouting(t *testing.T) {
	resolver := newResolver(map[string]config.FileRouting{
		"marketing_output": {BasePath: "vault", Subdirectory: "marketing"},
	})

	req := models.PublishRequest{
		ArtifactType: "marketing_output",
		Channel:      models.ChannelNotesVault,
	}
	channel := config.ChannelConfig{
		Adapter:     config.AdapterFilesystem,
		FileRouting: &config.FileRouting{BasePath: "vault", Subdirectory: "default"},
	}

	// Artifact-type routing wins over the channel's own routing.
	if got := resolver.ResolveDestination(req, channel); got != "vault/marketing" {
		t.Errorf("expected vault/marketing, got %q", got)
	}
}

func TestResolveFilesystemChannelRouting(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{
		ArtifactType: "executive_output",
		Channel:      models.ChannelNotesVault,
	}
	channel := config.ChannelConfig{
		Adapter:     config.AdapterFilesystem,
		FileRouting: &config.FileRouting{BasePath: "vault", Subdirectory: "published"},
	}

	if got := resolver.ResolveDestination(req, channel); got != "vault/published" {
		t.Errorf("expected vault/published, got %q", got)
	}
}

func TestResolveFilesystemFallback(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{
		ArtifactType: "executive_output",
		Channel:      models.ChannelFilesystem,
	}
	channel := config.ChannelConfig{Adapter: config.AdapterFilesystem}

	if got := resolver.ResolveDestination(req, channel); got != "vault/filesystem" {
		t.Errorf("expected vault/filesystem, got %q", got)
	}
}

func TestResolveAPIPrefersProduction(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{Channel: models.ChannelWebsite}
	channel := config.ChannelConfig{
		Adapter: config.AdapterAPI,
		Destinations: map[string]config.Destination{
			"production": {URL: "https://example.com/api"},
			"staging":    {URL: "https://staging.example.com/api"},
		},
	}

	if got := resolver.ResolveDestination(req, channel); got != "https://example.com/api" {
		t.Errorf("expected production url, got %q", got)
	}
}

func TestResolveAPIFallsBackToStaging(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{Channel: models.ChannelWebsite}
	channel := config.ChannelConfig{
		Adapter: config.AdapterAPI,
		Destinations: map[string]config.Destination{
			"staging": {URL: "https://staging.example.com/api"},
		},
	}

	if got := resolver.ResolveDestination(req, channel); got != "https://staging.example.com/api" {
		t.Errorf("expected staging url, got %q", got)
	}
}

func TestResolveAPIFirstDeclared(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{Channel: models.ChannelCMS}
	channel := config.ChannelConfig{
		Adapter: config.AdapterAPI,
		Destinations: map[string]config.Destination{
			"preview": {URL: "https://preview.example.com/api"},
		},
	}

	if got := resolver.ResolveDestination(req, channel); got != "https://preview.example.com/api" {
		t.Errorf("expected preview url, got %q", got)
	}
}

func TestResolveEmailByVisibility(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{
		Channel:    models.ChannelEmail,
		Visibility: models.VisibilityRestricted,
	}
	channel := config.ChannelConfig{
		Adapter: config.AdapterSMTP,
		Destinations: map[string]config.Destination{
			"restricted": {To: "leadership@example.com"},
			"internal":   {To: "team@example.com"},
		},
	}

	if got := resolver.ResolveDestination(req, channel); got != "leadership@example.com" {
		t.Errorf("expected leadership@example.com, got %q", got)
	}
}

func TestResolveEmailInternalDefault(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{
		Channel:    models.ChannelEmail,
		Visibility: models.VisibilityExternal,
	}
	channel := config.ChannelConfig{
		Adapter: config.AdapterSMTP,
		Destinations: map[string]config.Destination{
			"internal": {To: "team@example.com"},
		},
	}

	if got := resolver.ResolveDestination(req, channel); got != "team@example.com" {
		t.Errorf("expected team@example.com, got %q", got)
	}
}

func TestResolveSentinelFallback(t *testing.T) {
	resolver := newResolver(nil)

	req := models.PublishRequest{Channel: models.ChannelChat}
	channel := config.ChannelConfig{Adapter: config.AdapterWebhook}

	// Resolution degrades to a sentinel rather than failing.
	if got := resolver.ResolveDestination(req, channel); got != "chat://default" {
		t.Errorf("expected chat://default, got %q", got)
	}
}
