// Package gate implements the publish orchestrator and rollback coordinator.
// The orchestrator is the state machine tying request validation, policy
// evaluation, routing, adapter invocation, and the audit ledger together:
// every request that passes validation terminates in exactly one ledger
// append, whatever the outcome.
package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/adapters"
	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/ledger"
	"github.com/distgate/distgate/internal/logging"
	"github.com/distgate/distgate/internal/models"
	"github.com/distgate/distgate/internal/policy"
	"github.com/distgate/distgate/internal/routing"
)

// Gate errors.
var (
	ErrRollbackDisabled = errors.New("rollback is disabled by configuration")
)

// Approval labels recorded on audit entries. A human sign-off is "approved";
// an explicit matrix grant is "auto_approved"; the global default letting a
// request through without sign-off is "system_approved".
const (
	approvalHuman  = "approved"
	approvalAuto   = "auto_approved"
	approvalSystem = "system_approved"
)

// Orchestrator processes publish and rollback requests synchronously
// end-to-end. It holds no mutable state of its own; the ledger is the only
// shared resource, so one Orchestrator is safe for concurrent use.
type Orchestrator struct {
	cfg      *config.Config
	policy   *policy.Evaluator
	resolver *routing.Resolver
	registry *adapters.Registry
	ledger   ledger.Ledger
	logger   zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New creates an orchestrator over the given configuration and ledger.
func New(cfg *config.Config, led ledger.Ledger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		policy:   policy.NewEvaluator(cfg),
		resolver: routing.NewResolver(cfg),
		registry: adapters.NewRegistry(cfg),
		ledger:   led,
		logger:   logging.Component("gate"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Publish runs one request through the full pipeline and returns the audit
// record it produced. A validation failure returns an error and writes
// nothing; every other outcome, including denials and delivery failures, is
// returned as a record that has already been appended to the ledger. A ledger
// write failure propagates: an unaudited publish is a correctness violation.
func (o *Orchestrator) Publish(ctx context.Context, req models.PublishRequest) (*models.PublishRecord, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	logger := o.logger.With().
		Str("artifact_id", req.ArtifactID).
		Str("channel", string(req.Channel)).
		Str("visibility", string(req.Visibility)).
		Logger()

	decision := o.decide(req, logger)

	if !decision.Approved {
		record := o.buildRecord(req, decision, models.PublishStatusFailed, decision.DenialReason)
		logger.Info().
			Str("record_id", record.RecordID).
			Str("reason", decision.DenialReason).
			Msg("publish denied")
		return record, o.append(ctx, record)
	}

	if decision.ScheduledFor != nil {
		record := o.buildRecord(req, decision, models.PublishStatusScheduled, "")
		record.PublishedAt = decision.ScheduledFor.UTC()
		logger.Info().
			Str("record_id", record.RecordID).
			Time("scheduled_for", *decision.ScheduledFor).
			Msg("publish scheduled")
		return record, o.append(ctx, record)
	}

	record := o.deliver(ctx, req, decision, logger)
	return record, o.append(ctx, record)
}

// decide runs the policy and routing stages and produces the transient
// decision the record is built from.
func (o *Orchestrator) decide(req models.PublishRequest, logger zerolog.Logger) models.PublishDecision {
	decision := models.PublishDecision{
		Channel:        req.Channel,
		ApprovalStatus: models.ApprovalStatusDenied,
	}

	channelCfg, ok := o.cfg.Channel(string(req.Channel))
	if !ok {
		decision.DenialReason = fmt.Sprintf("channel %s is not configured", req.Channel)
		return decision
	}
	if !channelCfg.Enabled {
		decision.DenialReason = fmt.Sprintf("channel %s is disabled", req.Channel)
		return decision
	}

	if !o.policy.CheckVisibilityAllowed(req.Channel, req.Visibility) {
		decision.DenialReason = fmt.Sprintf("visibility %s is not allowed for channel %s", req.Visibility, req.Channel)
		return decision
	}

	if o.policy.RequiresApproval(req.Channel, req.Visibility, req.HumanApproved) {
		decision.RequiresHumanApproval = true
		decision.ApprovalStatus = models.ApprovalStatusPending
		decision.DenialReason = fmt.Sprintf("human approval required for %s", policy.MatrixKey(req.Channel, req.Visibility))
		return decision
	}

	decision.Approved = true
	decision.ApprovalStatus = models.ApprovalStatusApproved
	decision.Destination = o.resolver.ResolveDestination(req, channelCfg)

	if req.ScheduledFor != nil && req.ScheduledFor.After(o.now()) {
		if !o.cfg.ScheduledPublishing.Enabled {
			decision.Approved = false
			decision.ApprovalStatus = models.ApprovalStatusDenied
			decision.DenialReason = "scheduled publishing is disabled"
			return decision
		}
		scheduled := req.ScheduledFor.UTC()
		decision.ScheduledFor = &scheduled
	}

	logger.Debug().
		Str("destination", decision.Destination).
		Msg("publish approved by policy")
	return decision
}

// deliver invokes the channel adapter for an approved, immediate request and
// builds the terminal record. Adapter faults become failed records, never
// escaping errors.
func (o *Orchestrator) deliver(ctx context.Context, req models.PublishRequest, decision models.PublishDecision, logger zerolog.Logger) *models.PublishRecord {
	adapter, err := o.registry.ForChannel(string(req.Channel))
	if err != nil {
		return o.buildRecord(req, decision, models.PublishStatusFailed, err.Error())
	}

	ok, err := adapter.Publish(ctx, req.SourceFile, decision.Destination, req.Metadata)
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("adapter failed to publish")
		return o.buildRecord(req, decision, models.PublishStatusFailed, err.Error())
	case !ok:
		logger.Warn().Msg("adapter declined to publish")
		return o.buildRecord(req, decision, models.PublishStatusFailed,
			fmt.Sprintf("delivery to %s failed", decision.Destination))
	}

	record := o.buildRecord(req, decision, models.PublishStatusPublished, "")
	logger.Info().
		Str("record_id", record.RecordID).
		Str("destination", decision.Destination).
		Msg("published")
	return record
}

// buildRecord converts a decision into the permanent audit entry.
func (o *Orchestrator) buildRecord(req models.PublishRequest, decision models.PublishDecision, status models.PublishStatus, errorMessage string) *models.PublishRecord {
	approvedBy, approval := o.approvalFor(req, decision)

	return &models.PublishRecord{
		RecordID:     o.newID(),
		PublishedAt:  o.now().UTC(),
		ArtifactID:   req.ArtifactID,
		ArtifactType: req.ArtifactType,
		SourceFile:   req.SourceFile,
		Channel:      req.Channel,
		Visibility:   string(req.Visibility),
		Destination:  decision.Destination,
		ApprovedBy:   approvedBy,
		Approval:     approval,
		Status:       status,
		ErrorMessage: errorMessage,
		CanRollback:  status == models.PublishStatusPublished && req.Channel.SupportsRollback(),
		Metadata:     req.Metadata,
	}
}

// approvalFor labels who let the request through. Denied-for-missing-approval
// records carry the pending status so a later resubmission is traceable.
func (o *Orchestrator) approvalFor(req models.PublishRequest, decision models.PublishDecision) (approvedBy, approval string) {
	if decision.RequiresHumanApproval {
		return "", string(models.ApprovalStatusPending)
	}
	if !decision.Approved {
		return "", string(models.ApprovalStatusDenied)
	}
	if req.HumanApproved {
		approvedBy = req.ApprovedBy
		if approvedBy == "" {
			approvedBy = "human"
		}
		return approvedBy, approvalHuman
	}
	if _, ok := o.policy.MatrixEntry(req.Channel, req.Visibility); ok {
		return "system", approvalAuto
	}
	return "system", approvalSystem
}

// append writes the record to the ledger. Failures propagate to the caller.
func (o *Orchestrator) append(ctx context.Context, record *models.PublishRecord) error {
	if err := o.ledger.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to record publish action: %w", err)
	}
	return nil
}

// PublishAll processes a batch of requests in order. Each request is
// independent: a failure on one does not stop the rest. Records are returned
// for every request that produced one; per-request errors are joined.
func (o *Orchestrator) PublishAll(ctx context.Context, reqs []models.PublishRequest) ([]*models.PublishRecord, error) {
	records := make([]*models.PublishRecord, 0, len(reqs))
	var errs []error

	for _, req := range reqs {
		record, err := o.Publish(ctx, req)
		if err != nil {
			o.logger.Error().
				Err(err).
				Str("artifact_id", req.ArtifactID).
				Msg("batch publish entry failed")
			errs = append(errs, fmt.Errorf("artifact %s: %w", req.ArtifactID, err))
		}
		if record != nil {
			records = append(records, record)
		}
	}

	return records, errors.Join(errs...)
}

// CanPublish is a convenience pre-check: the channel must be enabled and the
// visibility level allowed to reach it. It does not consult the approval
// matrix; an approvable request still passes.
func (o *Orchestrator) CanPublish(channel models.Channel, visibility models.VisibilityLevel) bool {
	if !o.cfg.ChannelEnabled(string(channel)) {
		return false
	}
	return o.policy.CheckVisibilityAllowed(channel, visibility)
}

// ValidateRequest fails fast on a malformed request, before any policy or
// I/O work. Invalid requests never produce a ledger entry.
func ValidateRequest(req models.PublishRequest) error {
	var errs models.ValidationErrors

	if req.ArtifactID == "" {
		errs.AddMessage("artifact_id", "is required")
	}
	if req.ArtifactType == "" {
		errs.AddMessage("artifact_type", "is required")
	}
	if req.SourceFile == "" {
		errs.AddMessage("source_file", "is required")
	} else if _, err := os.Stat(req.SourceFile); err != nil {
		errs.AddMessage("source_file", fmt.Sprintf("does not exist: %s", req.SourceFile))
	}
	if req.Channel == "" {
		errs.AddMessage("channel", "is required")
	} else if !req.Channel.Valid() {
		errs.AddMessage("channel", fmt.Sprintf("unknown channel %q", req.Channel))
	}
	if req.Visibility == "" {
		errs.AddMessage("visibility", "is required")
	} else if !req.Visibility.Valid() {
		errs.AddMessage("visibility", fmt.Sprintf("unknown visibility level %q", req.Visibility))
	}

	return errs.Err()
}
