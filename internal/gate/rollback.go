package gate

import (
	"context"
	"fmt"

	"github.com/distgate/distgate/internal/ledger"
	"github.com/distgate/distgate/internal/models"
)

// Rollback reverses a prior delivery. Guard conditions (not rollbackable,
// already rolled back, adapter refusal) come back as structured results with
// Success=false, never as errors; errors are reserved for the disabled
// configuration, an unknown record id, and ledger write failures. Nothing is
// appended unless the reversal actually happened.
func (o *Orchestrator) Rollback(ctx context.Context, recordID, actor string) (*models.RollbackResult, error) {
	if !o.cfg.Rollback.Enabled {
		return nil, ErrRollbackDisabled
	}

	record, err := o.ledger.Lookup(ctx, recordID)
	if err != nil {
		return nil, err
	}

	result := &models.RollbackResult{
		RecordID:     recordID,
		Channel:      record.Channel,
		Destination:  record.Destination,
		RolledBackBy: actor,
	}

	if !record.CanRollback {
		result.ErrorMessage = fmt.Sprintf("rollback is not supported for channel %s", record.Channel)
		return result, nil
	}

	done, err := ledger.HasRollback(ctx, o.ledger, recordID)
	if err != nil {
		return nil, err
	}
	if done {
		result.ErrorMessage = fmt.Sprintf("record %s is already rolled back", recordID)
		return result, nil
	}

	adapter, err := o.registry.ForChannel(string(record.Channel))
	if err != nil {
		result.ErrorMessage = err.Error()
		return result, nil
	}

	metadata := map[string]string{
		"record_id":   recordID,
		"source_file": record.SourceFile,
	}
	ok, err := adapter.Rollback(ctx, record.Destination, metadata)
	switch {
	case err != nil:
		o.logger.Error().
			Err(err).
			Str("record_id", recordID).
			Msg("adapter failed to roll back")
		result.ErrorMessage = err.Error()
		return result, nil
	case !ok:
		result.ErrorMessage = fmt.Sprintf("rollback of %s at %s failed", recordID, record.Destination)
		return result, nil
	}

	now := o.now().UTC()
	entry := &models.PublishRecord{
		RecordID:     recordID + "-rollback",
		PublishedAt:  now,
		ArtifactID:   recordID,
		ArtifactType: models.ArtifactTypeRollback,
		SourceFile:   record.SourceFile,
		Channel:      record.Channel,
		Visibility:   record.Visibility,
		Destination:  record.Destination,
		ApprovedBy:   actor,
		Approval:     approvalHuman,
		Status:       models.PublishStatusRolledBack,
		RolledBack:   true,
		RolledBackAt: &now,
		RolledBackBy: actor,
		Metadata:     map[string]string{"original_record_id": recordID},
	}
	if err := o.append(ctx, entry); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("record_id", recordID).
		Str("rolled_back_by", actor).
		Msg("rolled back")

	result.Success = true
	result.RolledBackAt = now
	return result, nil
}
