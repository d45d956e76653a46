package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/models"
)

func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.VisibilityRules = map[string]config.VisibilityRule{
		"restricted": {
			AllowedChannels:    []string{"email"},
			DisallowedChannels: []string{"website", "chat"},
		},
		"public": {
			AllowedChannels: []string{"*"},
		},
		"internal": {
			AllowedChannels:    []string{"chat", "notes-vault", "chat"},
			DisallowedChannels: []string{"website"},
		},
	}
	cfg.ApprovalMatrix = map[string]bool{
		"website:public":       true,
		"notes-vault:internal": false,
		"filesystem:internal":  true,
	}
	cfg.Defaults.HumanApprovalRequired = true
	return cfg
}

func TestCheckVisibilityAllowed(t *testing.T) {
	eval := NewEvaluator(newTestConfig())

	tests := []struct {
		name       string
		channel    models.Channel
		visibility models.VisibilityLevel
		want       bool
	}{
		{"restricted denies website", models.ChannelWebsite, models.VisibilityRestricted, false},
		{"restricted denies chat", models.ChannelChat, models.VisibilityRestricted, false},
		{"restricted allows email", models.ChannelEmail, models.VisibilityRestricted, true},
		{"restricted omits cms", models.ChannelCMS, models.VisibilityRestricted, false},
		{"public wildcard allows any", models.ChannelCRM, models.VisibilityPublic, true},
		{"internal allows notes-vault", models.ChannelNotesVault, models.VisibilityInternal, true},
		{"internal denies website", models.ChannelWebsite, models.VisibilityInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eval.CheckVisibilityAllowed(tt.channel, tt.visibility))
		})
	}
}

func TestCheckVisibilityDenyPrecedence(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VisibilityRules = map[string]config.VisibilityRule{
		"external": {
			AllowedChannels:    []string{"website", "*"},
			DisallowedChannels: []string{"website"},
		},
	}
	eval := NewEvaluator(cfg)

	// Deny wins even when the channel also appears in the allow list.
	assert.False(t, eval.CheckVisibilityAllowed(models.ChannelWebsite, models.VisibilityExternal))
	assert.True(t, eval.CheckVisibilityAllowed(models.ChannelCMS, models.VisibilityExternal))
}

func TestCheckVisibilityPermissiveDefault(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VisibilityRules = map[string]config.VisibilityRule{}
	eval := NewEvaluator(cfg)

	// No rule for the level means allowed. Deliberately permissive.
	assert.True(t, eval.CheckVisibilityAllowed(models.ChannelWebsite, models.VisibilityRestricted))
}

func TestRequiresApproval(t *testing.T) {
	eval := NewEvaluator(newTestConfig())

	assert.True(t, eval.RequiresApproval(models.ChannelWebsite, models.VisibilityPublic, false))
	assert.False(t, eval.RequiresApproval(models.ChannelNotesVault, models.VisibilityInternal, false))
	assert.True(t, eval.RequiresApproval(models.ChannelFilesystem, models.VisibilityInternal, false))

	// Missing matrix entry falls back to the restrictive global default.
	assert.True(t, eval.RequiresApproval(models.ChannelCRM, models.VisibilityExternal, false))
}

func TestRequiresApprovalShortCircuit(t *testing.T) {
	eval := NewEvaluator(newTestConfig())

	// Prior approval wins regardless of the matrix.
	for _, channel := range models.AllChannels {
		for _, visibility := range models.AllVisibilityLevels {
			assert.False(t, eval.RequiresApproval(channel, visibility, true),
				"approved request should never require approval (%s:%s)", channel, visibility)
		}
	}
}

func TestRequiresApprovalPermissiveGlobalDefault(t *testing.T) {
	cfg := newTestConfig()
	cfg.Defaults.HumanApprovalRequired = false
	eval := NewEvaluator(cfg)

	assert.False(t, eval.RequiresApproval(models.ChannelCRM, models.VisibilityExternal, false))
}

func TestMatrixEntry(t *testing.T) {
	eval := NewEvaluator(newTestConfig())

	required, ok := eval.MatrixEntry(models.ChannelNotesVault, models.VisibilityInternal)
	assert.True(t, ok)
	assert.False(t, required)

	_, ok = eval.MatrixEntry(models.ChannelCRM, models.VisibilityExternal)
	assert.False(t, ok)
}

func TestMatrixKey(t *testing.T) {
	assert.Equal(t, "website:public", MatrixKey(models.ChannelWebsite, models.VisibilityPublic))
}
