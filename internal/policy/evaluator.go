// Package policy decides visibility legality and approval requirements for
// publish requests from declarative configuration.
package policy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
	"github.com/distgate/distgate/internal/models"
)

// Evaluator answers policy questions from configuration. Both operations are
// pure functions of configuration and input and are safe for concurrent use.
type Evaluator struct {
	rules           map[string]config.VisibilityRule
	matrix          map[string]bool
	defaultApproval bool
	logger          zerolog.Logger
}

// NewEvaluator creates an evaluator over the given configuration.
func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{
		rules:           cfg.VisibilityRules,
		matrix:          cfg.ApprovalMatrix,
		defaultApproval: cfg.Defaults.HumanApprovalRequired,
		logger:          logging.Component("policy"),
	}
}

// CheckVisibilityAllowed reports whether content at the given visibility
// level may be delivered to the channel. Deny takes precedence over allow.
// A visibility level with no configured rule is allowed; the permissive
// default is deliberate and logged as a warning.
func (e *Evaluator) CheckVisibilityAllowed(channel models.Channel, visibility models.VisibilityLevel) bool {
	rule, ok := e.rules[string(visibility)]
	if !ok {
		e.logger.Warn().
			Str("visibility", string(visibility)).
			Msg("no visibility rules defined, allowing by default")
		return true
	}

	for _, denied := range rule.DisallowedChannels {
		if denied == string(channel) {
			e.logger.Debug().
				Str("channel", string(channel)).
				Str("visibility", string(visibility)).
				Msg("channel is disallowed for visibility level")
			return false
		}
	}

	for _, allowed := range rule.AllowedChannels {
		if allowed == "*" || allowed == string(channel) {
			return true
		}
	}

	e.logger.Debug().
		Str("channel", string(channel)).
		Str("visibility", string(visibility)).
		Msg("channel not in allowed list for visibility level")
	return false
}

// RequiresApproval reports whether human sign-off is needed for the
// channel/visibility pair. Prior approval short-circuits the matrix. A pair
// with no matrix entry falls back to the global default, which is
// approval-required unless configured otherwise.
func (e *Evaluator) RequiresApproval(channel models.Channel, visibility models.VisibilityLevel, alreadyApproved bool) bool {
	if alreadyApproved {
		return false
	}

	key := MatrixKey(channel, visibility)
	if required, ok := e.matrix[key]; ok {
		return required
	}

	return e.defaultApproval
}

// MatrixEntry returns the approval matrix entry for the pair and whether one
// exists. Callers use this to distinguish an explicit matrix grant from the
// global default.
func (e *Evaluator) MatrixEntry(channel models.Channel, visibility models.VisibilityLevel) (bool, bool) {
	required, ok := e.matrix[MatrixKey(channel, visibility)]
	return required, ok
}

// MatrixKey builds the approval matrix lookup key for a channel/visibility pair.
func MatrixKey(channel models.Channel, visibility models.VisibilityLevel) string {
	return fmt.Sprintf("%s:%s", channel, visibility)
}
