package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/distgate/distgate/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStoreInMemory()
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteAppendLookup(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	record := testRecord("pub-1", models.ChannelCMS)
	record.Metadata = map[string]string{"source_file": record.SourceFile}
	if err := store.Append(ctx, record); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.Lookup(ctx, "pub-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Channel != models.ChannelCMS {
		t.Errorf("expected cms channel, got %q", got.Channel)
	}
	if !got.CanRollback {
		t.Error("expected can_rollback to round-trip")
	}
	if got.Metadata["source_file"] != record.SourceFile {
		t.Errorf("expected metadata to round-trip, got %v", got.Metadata)
	}
	if !got.PublishedAt.Equal(record.PublishedAt) {
		t.Errorf("expected published_at %s, got %s", record.PublishedAt, got.PublishedAt)
	}

	if _, err := store.Lookup(ctx, "pub-missing"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestSQLiteRollbackTimestampRoundTrip(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	at := time.Now().UTC().Truncate(time.Second)
	record := testRecord("pub-1", models.ChannelWebsite)
	record.RecordID = "pub-1-rollback"
	record.ArtifactID = "pub-1"
	record.ArtifactType = models.ArtifactTypeRollback
	record.Status = models.PublishStatusRolledBack
	record.RolledBack = true
	record.RolledBackAt = &at
	record.RolledBackBy = "operator"

	if err := store.Append(ctx, record); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.Lookup(ctx, "pub-1-rollback")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !got.RolledBack {
		t.Error("expected rolled_back flag to round-trip")
	}
	if got.RolledBackAt == nil || !got.RolledBackAt.Equal(at) {
		t.Errorf("expected rolled_back_at %s, got %v", at, got.RolledBackAt)
	}
	if got.RolledBackBy != "operator" {
		t.Errorf("expected rolled_back_by operator, got %q", got.RolledBackBy)
	}
	if !got.IsRollbackEntry() {
		t.Error("expected rollback entry type to round-trip")
	}
}

func TestSQLiteListFilters(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := store.Append(ctx, testRecord(fmt.Sprintf("web-%d", i), models.ChannelWebsite)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := store.Append(ctx, testRecord("email-0", models.ChannelEmail)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	all, err := store.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 records, got %d", len(all))
	}

	page, err := store.List(ctx, 2, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records in page, got %d", len(page))
	}
	if page[0].RecordID != "web-3" {
		t.Errorf("expected page to start at web-3, got %s", page[0].RecordID)
	}

	website, err := store.ListByChannel(ctx, models.ChannelWebsite, 3)
	if err != nil {
		t.Fatalf("ListByChannel failed: %v", err)
	}
	if len(website) != 3 {
		t.Errorf("expected 3 website records with limit, got %d", len(website))
	}

	byArtifact, err := store.ListByArtifact(ctx, "story-email-0")
	if err != nil {
		t.Fatalf("ListByArtifact failed: %v", err)
	}
	if len(byArtifact) != 1 {
		t.Errorf("expected 1 record for artifact, got %d", len(byArtifact))
	}
}
