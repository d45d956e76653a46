// Package ledger provides the append-only audit store for publish and
// rollback actions. Records are immutable once appended: a rollback is a
// second, linked entry, never an in-place edit.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/distgate/distgate/internal/config"
	"github.com/distgate/distgate/internal/logging"
	"github.com/distgate/distgate/internal/models"
)

// Ledger errors.
var (
	ErrRecordNotFound = errors.New("publish record not found")
)

// Ledger is the append-only audit store. Append must be atomic with respect
// to concurrent appends; reads may run concurrently with appends but never
// observe a partial record.
type Ledger interface {
	// Append writes one record as a single atomic unit. It never mutates
	// or removes prior entries.
	Append(ctx context.Context, record *models.PublishRecord) error

	// Lookup returns the record with the given id, or ErrRecordNotFound.
	Lookup(ctx context.Context, recordID string) (*models.PublishRecord, error)

	// List returns records in append order, honoring limit and offset
	// (zero limit means no limit).
	List(ctx context.Context, limit, offset int) ([]*models.PublishRecord, error)

	// ListByChannel returns records for a channel in append order.
	ListByChannel(ctx context.Context, channel models.Channel, limit int) ([]*models.PublishRecord, error)

	// ListByArtifact returns all records for an artifact id. Rollback
	// entries carry the original record id as their artifact id, so a
	// delivery's reversal is discoverable here.
	ListByArtifact(ctx context.Context, artifactID string) ([]*models.PublishRecord, error)

	// Close releases underlying resources.
	Close() error
}

// Open creates the ledger backend selected by the audit configuration.
// When auditing is disabled a no-op ledger is returned.
func Open(cfg config.AuditConfig) (Ledger, error) {
	if !cfg.Enabled {
		return NewNopStore(), nil
	}

	switch cfg.Backend {
	case config.BackendJSONL:
		return NewJSONLStore(cfg.LogFile)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// HasRollback reports whether a rollback entry referencing the record id has
// been appended.
func HasRollback(ctx context.Context, l Ledger, recordID string) (bool, error) {
	entries, err := l.ListByArtifact(ctx, recordID)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.IsRollbackEntry() && entry.OriginalRecordID() == recordID {
			return true, nil
		}
	}
	return false, nil
}

// NopStore is the ledger used when auditing is disabled: appends are logged
// no-ops and every read sees an empty history.
type NopStore struct{}

// NewNopStore creates a disabled ledger.
func NewNopStore() *NopStore {
	return &NopStore{}
}

// Append logs that the record was skipped.
func (s *NopStore) Append(ctx context.Context, record *models.PublishRecord) error {
	logger := logging.Component("ledger")
	logger.Debug().
		Str("record_id", record.RecordID).
		Msg("audit logging is disabled, skipping record")
	return nil
}

// Lookup always reports not found.
func (s *NopStore) Lookup(ctx context.Context, recordID string) (*models.PublishRecord, error) {
	return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
}

// List returns an empty history.
func (s *NopStore) List(ctx context.Context, limit, offset int) ([]*models.PublishRecord, error) {
	return nil, nil
}

// ListByChannel returns an empty history.
func (s *NopStore) ListByChannel(ctx context.Context, channel models.Channel, limit int) ([]*models.PublishRecord, error) {
	return nil, nil
}

// ListByArtifact returns an empty history.
func (s *NopStore) ListByArtifact(ctx context.Context, artifactID string) ([]*models.PublishRecord, error) {
	return nil, nil
}

// Close is a no-op.
func (s *NopStore) Close() error {
	return nil
}

// Ensure NopStore implements Ledger
var _ Ledger = (*NopStore)(nil)
