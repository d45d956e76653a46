package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/distgate/distgate/internal/logging"
	"github.com/distgate/distgate/internal/models"
)

// JSONLStore is the file-backed ledger: one JSON object per line in an
// append-only file. A mutex serializes writers so concurrent appends never
// interleave partial records; each line is written with a single Write call.
type JSONLStore struct {
	path   string
	logger zerolog.Logger

	mu sync.Mutex
	f  *os.File
}

// NewJSONLStore opens (creating if needed) the JSONL ledger at path.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}

	return &JSONLStore{
		path:   path,
		logger: logging.Component("ledger"),
		f:      f,
	}, nil
}

// Append writes the record as one line. A failed append propagates: an
// unaudited publish is a correctness violation.
func (s *JSONLStore) Append(ctx context.Context, record *models.PublishRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return fmt.Errorf("ledger is closed")
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}

	s.logger.Info().
		Str("record_id", record.RecordID).
		Str("channel", string(record.Channel)).
		Str("status", string(record.Status)).
		Msg("appended publish record")
	return nil
}

// Lookup scans the history for the record with the given id.
func (s *JSONLStore) Lookup(ctx context.Context, recordID string) (*models.PublishRecord, error) {
	records, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.RecordID == recordID {
			return record, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
}

// List returns records in append order.
func (s *JSONLStore) List(ctx context.Context, limit, offset int) ([]*models.PublishRecord, error) {
	records, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if offset >= len(records) {
			return nil, nil
		}
		records = records[offset:]
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

// ListByChannel returns records for a channel in append order.
func (s *JSONLStore) ListByChannel(ctx context.Context, channel models.Channel, limit int) ([]*models.PublishRecord, error) {
	records, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []*models.PublishRecord
	for _, record := range records {
		if record.Channel == channel {
			filtered = append(filtered, record)
			if limit > 0 && len(filtered) == limit {
				break
			}
		}
	}
	return filtered, nil
}

// ListByArtifact returns all records for an artifact id.
func (s *JSONLStore) ListByArtifact(ctx context.Context, artifactID string) ([]*models.PublishRecord, error) {
	records, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []*models.PublishRecord
	for _, record := range records {
		if record.ArtifactID == artifactID {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// Close closes the underlying file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// scan reads the full history from disk. The file is opened fresh per read
// so readers see every fully-written line without coordinating with the
// writer. Malformed lines are skipped with a warning; unknown fields in
// well-formed lines are ignored for forward compatibility.
func (s *JSONLStore) scan(ctx context.Context) ([]*models.PublishRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	var records []*models.PublishRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record models.PublishRecord
		if err := json.Unmarshal(line, &record); err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed ledger entry")
			continue
		}
		records = append(records, &record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	return records, nil
}

// Ensure JSONLStore implements Ledger
var _ Ledger = (*JSONLStore)(nil)
