package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publish.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
audit:
  enabled: true
  backend: jsonl
  log_file: /tmp/audit.jsonl
defaults:
  human_approval_required: true
rollback:
  enabled: true
channels:
  website:
    enabled: true
    adapter: api
    destinations:
      production:
        url: https://example.com/api/stories
      staging:
        url: https://staging.example.com/api/stories
  notes-vault:
    enabled: true
    adapter: filesystem
    overwrite_existing: true
    file_routing:
      base_path: vault
      subdirectory: published
  email:
    enabled: false
    adapter: smtp
    destinations:
      internal:
        to: team@example.com
visibility_rules:
  restricted:
    allowed_channels: [email]
    disallowed_channels: [website, chat]
  public:
    allowed_channels: ["*"]
approval_matrix:
  "website:public": true
  "notes-vault:internal": false
file_routing:
  marketing_output:
    base_path: vault
    subdirectory: marketing
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %q", cfg.Logging.Level)
	}

	website, ok := cfg.Channel("website")
	if !ok {
		t.Fatal("expected website channel")
	}
	if website.Adapter != AdapterAPI {
		t.Errorf("expected api adapter, got %q", website.Adapter)
	}
	if got := website.Destinations["production"].URL; got != "https://example.com/api/stories" {
		t.Errorf("unexpected production url %q", got)
	}

	vault, ok := cfg.Channel("notes-vault")
	if !ok {
		t.Fatal("expected notes-vault channel")
	}
	if vault.FileRouting == nil || vault.FileRouting.BasePath != "vault" {
		t.Errorf("unexpected notes-vault file routing: %+v", vault.FileRouting)
	}

	if cfg.ChannelEnabled("email") {
		t.Error("email channel should be disabled")
	}
	if !cfg.ChannelEnabled("website") {
		t.Error("website channel should be enabled")
	}
	if cfg.ChannelEnabled("crm") {
		t.Error("unconfigured channel should not report enabled")
	}

	restricted := cfg.VisibilityRules["restricted"]
	if len(restricted.DisallowedChannels) != 2 {
		t.Errorf("expected 2 disallowed channels, got %v", restricted.DisallowedChannels)
	}

	if !cfg.ApprovalMatrix["website:public"] {
		t.Error("expected approval required for website:public")
	}
	if cfg.ApprovalMatrix["notes-vault:internal"] {
		t.Error("expected no approval required for notes-vault:internal")
	}

	routing, ok := cfg.FileRouting["marketing_output"]
	if !ok || routing.Subdirectory != "marketing" {
		t.Errorf("unexpected marketing_output routing: %+v", routing)
	}
}

func TestLoadDefaults(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(writeConfigFile(t, "audit:\n  enabled: true\n"))

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Defaults.HumanApprovalRequired {
		t.Error("expected restrictive approval default")
	}
	if cfg.Audit.Backend != BackendJSONL {
		t.Errorf("expected jsonl backend default, got %q", cfg.Audit.Backend)
	}
	if !cfg.Rollback.Enabled {
		t.Error("expected rollback enabled by default")
	}
}

func TestValidateRejectsBadAdapter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels["website"] = ChannelConfig{Enabled: true, Adapter: "teleport"}

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown adapter")
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Backend = "parchment"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown backend")
	}
}

func TestValidateRejectsBadMatrixKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApprovalMatrix["website"] = true

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for malformed approval matrix key")
	}
}
