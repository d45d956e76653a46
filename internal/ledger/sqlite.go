package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/distgate/distgate/internal/models"
)

// SQLiteStore is the database-backed ledger. The table is insert-only:
// Append issues INSERTs and nothing ever issues UPDATE or DELETE, so the
// append-only invariant holds at the schema usage level.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite ledger at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger database path is required")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// NewSQLiteStoreInMemory opens an in-memory ledger, used in tests.
func NewSQLiteStoreInMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publish_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL,
			published_at TEXT NOT NULL,
			artifact_id TEXT NOT NULL,
			artifact_type TEXT NOT NULL,
			source_file TEXT NOT NULL,
			channel TEXT NOT NULL,
			visibility TEXT NOT NULL,
			destination TEXT NOT NULL,
			approved_by TEXT NOT NULL,
			approval_status TEXT NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			can_rollback INTEGER NOT NULL DEFAULT 0,
			rolled_back INTEGER NOT NULL DEFAULT 0,
			rolled_back_at TEXT,
			rolled_back_by TEXT NOT NULL DEFAULT '',
			metadata_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_records_record_id ON publish_records(record_id)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_records_artifact_id ON publish_records(artifact_id)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_records_channel ON publish_records(channel)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure ledger schema: %w", err)
		}
	}

	return nil
}

// Append inserts one record. A failed insert propagates: an unaudited
// publish is a correctness violation.
func (s *SQLiteStore) Append(ctx context.Context, record *models.PublishRecord) error {
	var metadataJSON sql.NullString
	if len(record.Metadata) > 0 {
		b, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal record metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(b), Valid: true}
	}

	var rolledBackAt sql.NullString
	if record.RolledBackAt != nil {
		rolledBackAt = sql.NullString{String: record.RolledBackAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publish_records (
			record_id, published_at, artifact_id, artifact_type, source_file,
			channel, visibility, destination, approved_by, approval_status,
			status, error_message, can_rollback, rolled_back, rolled_back_at,
			rolled_back_by, metadata_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.RecordID,
		record.PublishedAt.UTC().Format(time.RFC3339),
		record.ArtifactID,
		record.ArtifactType,
		record.SourceFile,
		string(record.Channel),
		record.Visibility,
		record.Destination,
		record.ApprovedBy,
		record.Approval,
		string(record.Status),
		record.ErrorMessage,
		boolToInt(record.CanRollback),
		boolToInt(record.RolledBack),
		rolledBackAt,
		record.RolledBackBy,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert publish record: %w", err)
	}

	return nil
}

// Lookup returns the record with the given id as appended.
func (s *SQLiteStore) Lookup(ctx context.Context, recordID string) (*models.PublishRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM publish_records
		WHERE record_id = ?
		ORDER BY id
		LIMIT 1
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish record: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	return records[0], nil
}

// List returns records in append order.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*models.PublishRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM publish_records
		ORDER BY id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByChannel returns records for a channel in append order.
func (s *SQLiteStore) ListByChannel(ctx context.Context, channel models.Channel, limit int) ([]*models.PublishRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM publish_records
		WHERE channel = ?
		ORDER BY id
		LIMIT ?
	`, string(channel), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByArtifact returns all records for an artifact id.
func (s *SQLiteStore) ListByArtifact(ctx context.Context, artifactID string) ([]*models.PublishRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM publish_records
		WHERE artifact_id = ?
		ORDER BY id
	`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `
	SELECT
		record_id, published_at, artifact_id, artifact_type, source_file,
		channel, visibility, destination, approved_by, approval_status,
		status, error_message, can_rollback, rolled_back, rolled_back_at,
		rolled_back_by, metadata_json
`

func scanRecords(rows *sql.Rows) ([]*models.PublishRecord, error) {
	var records []*models.PublishRecord
	for rows.Next() {
		record, err := scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publish records: %w", err)
	}
	return records, nil
}

func scanRecordFromRows(rows *sql.Rows) (*models.PublishRecord, error) {
	var record models.PublishRecord
	var publishedAt string
	var channel string
	var status string
	var canRollback int
	var rolledBack int
	var rolledBackAt sql.NullString
	var metadataJSON sql.NullString

	if err := rows.Scan(
		&record.RecordID,
		&publishedAt,
		&record.ArtifactID,
		&record.ArtifactType,
		&record.SourceFile,
		&channel,
		&record.Visibility,
		&record.Destination,
		&record.ApprovedBy,
		&record.Approval,
		&status,
		&record.ErrorMessage,
		&canRollback,
		&rolledBack,
		&rolledBackAt,
		&record.RolledBackBy,
		&metadataJSON,
	); err != nil {
		return nil, fmt.Errorf("failed to scan publish record: %w", err)
	}

	record.Channel = models.Channel(channel)
	record.Status = models.PublishStatus(status)
	record.CanRollback = canRollback != 0
	record.RolledBack = rolledBack != 0

	parsed, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse published_at: %w", err)
	}
	record.PublishedAt = parsed

	if rolledBackAt.Valid && rolledBackAt.String != "" {
		at, err := time.Parse(time.RFC3339, rolledBackAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rolled_back_at: %w", err)
		}
		record.RolledBackAt = &at
	}

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record metadata: %w", err)
		}
	}

	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements Ledger
var _ Ledger = (*SQLiteStore)(nil)
