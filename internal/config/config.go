// Package config handles publish gate configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Adapter kinds selectable per channel.
const (
	AdapterFilesystem = "filesystem"
	AdapterAPI        = "api"
	AdapterWebhook    = "webhook"
	AdapterSMTP       = "smtp"
)

// Ledger backends selectable for audit storage.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure for the publish gate.
type Config struct {
	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Audit controls the append-only ledger.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Defaults are global fallbacks consulted when no specific rule applies.
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`

	// Channels maps channel names to their delivery configuration.
	Channels map[string]ChannelConfig `yaml:"channels" mapstructure:"channels"`

	// VisibilityRules maps visibility levels to channel allow/deny lists.
	VisibilityRules map[string]VisibilityRule `yaml:"visibility_rules" mapstructure:"visibility_rules"`

	// ApprovalMatrix maps "channel:visibility" keys to whether human
	// sign-off is mandatory.
	ApprovalMatrix map[string]bool `yaml:"approval_matrix" mapstructure:"approval_matrix"`

	// FileRouting maps artifact types to filesystem routing overrides.
	FileRouting map[string]FileRouting `yaml:"file_routing" mapstructure:"file_routing"`

	// Rollback controls reversal of prior deliveries.
	Rollback RollbackConfig `yaml:"rollback" mapstructure:"rollback"`

	// ScheduledPublishing controls deferred delivery requests.
	ScheduledPublishing ScheduledPublishingConfig `yaml:"scheduled_publishing" mapstructure:"scheduled_publishing"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`
}

// AuditConfig contains audit ledger settings.
type AuditConfig struct {
	// Enabled toggles ledger writes. Disabling audit is a logged no-op
	// on append, not an error.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Backend selects the ledger store (jsonl, sqlite).
	Backend string `yaml:"backend" mapstructure:"backend"`

	// LogFile is the JSONL ledger path.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	// DBPath is the SQLite ledger path.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// DefaultsConfig contains global fallback settings.
type DefaultsConfig struct {
	// HumanApprovalRequired applies when the approval matrix has no entry
	// for a channel:visibility pair. The restrictive default is deliberate.
	HumanApprovalRequired bool `yaml:"human_approval_required" mapstructure:"human_approval_required"`
}

// ChannelConfig contains delivery settings for one channel.
type ChannelConfig struct {
	// Enabled gates all deliveries to this channel.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Adapter selects the delivery strategy (filesystem, api, webhook, smtp).
	Adapter string `yaml:"adapter" mapstructure:"adapter"`

	// Destinations maps named endpoints to their targets.
	Destinations map[string]Destination `yaml:"destinations" mapstructure:"destinations"`

	// FileRouting is the channel's default filesystem routing.
	FileRouting *FileRouting `yaml:"file_routing" mapstructure:"file_routing"`

	// OverwriteExisting allows filesystem deliveries to replace files.
	OverwriteExisting bool `yaml:"overwrite_existing" mapstructure:"overwrite_existing"`

	// Timeout bounds network calls made by the channel adapter.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Destination is one named endpoint within a channel.
type Destination struct {
	// URL is the endpoint for API-style channels.
	URL string `yaml:"url" mapstructure:"url"`

	// To is the recipient address for email-style channels.
	To string `yaml:"to" mapstructure:"to"`
}

// FileRouting locates filesystem deliveries.
type FileRouting struct {
	BasePath     string `yaml:"base_path" mapstructure:"base_path"`
	Subdirectory string `yaml:"subdirectory" mapstructure:"subdirectory"`
}

// VisibilityRule lists the channels a visibility level may or may not reach.
// Deny takes precedence over allow; "*" in the allow list means any channel.
type VisibilityRule struct {
	AllowedChannels    []string `yaml:"allowed_channels" mapstructure:"allowed_channels"`
	DisallowedChannels []string `yaml:"disallowed_channels" mapstructure:"disallowed_channels"`
}

// RollbackConfig contains rollback settings.
type RollbackConfig struct {
	// Enabled gates all rollback operations globally.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ScheduledPublishingConfig contains deferred-delivery settings.
type ScheduledPublishingConfig struct {
	// Enabled permits requests carrying a future scheduled_for timestamp.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Audit: AuditConfig{
			Enabled: true,
			Backend: BackendJSONL,
			LogFile: "vault/publish_audit.log.jsonl",
			DBPath:  "vault/publish_audit.db",
		},
		Defaults: DefaultsConfig{
			HumanApprovalRequired: true,
		},
		Channels:        map[string]ChannelConfig{},
		VisibilityRules: map[string]VisibilityRule{},
		ApprovalMatrix:  map[string]bool{},
		FileRouting:     map[string]FileRouting{},
		Rollback: RollbackConfig{
			Enabled: true,
		},
		ScheduledPublishing: ScheduledPublishingConfig{
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Audit.Backend {
	case BackendJSONL, BackendSQLite:
	default:
		return fmt.Errorf("audit.backend must be one of %s, %s", BackendJSONL, BackendSQLite)
	}

	if c.Audit.Backend == BackendJSONL && c.Audit.LogFile == "" {
		return fmt.Errorf("audit.log_file is required for the jsonl backend")
	}
	if c.Audit.Backend == BackendSQLite && c.Audit.DBPath == "" {
		return fmt.Errorf("audit.db_path is required for the sqlite backend")
	}

	for name, channel := range c.Channels {
		switch channel.Adapter {
		case AdapterFilesystem, AdapterAPI, AdapterWebhook, AdapterSMTP:
		case "":
			return fmt.Errorf("channels.%s.adapter is required", name)
		default:
			return fmt.Errorf("channels.%s.adapter must be one of filesystem, api, webhook, smtp", name)
		}
		if channel.Timeout < 0 {
			return fmt.Errorf("channels.%s.timeout must not be negative", name)
		}
	}

	for key := range c.ApprovalMatrix {
		if !strings.Contains(key, ":") {
			return fmt.Errorf("approval_matrix key %q must have the form channel:visibility", key)
		}
	}

	return nil
}

// Channel returns the configuration for the named channel, if present.
func (c *Config) Channel(name string) (ChannelConfig, bool) {
	channel, ok := c.Channels[name]
	return channel, ok
}

// ChannelEnabled reports whether the named channel exists and is enabled.
func (c *Config) ChannelEnabled(name string) bool {
	channel, ok := c.Channels[name]
	return ok && channel.Enabled
}
