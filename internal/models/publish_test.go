package models

import (
	"testing"
	"time"
)

func TestChannelSupportsRollback(t *testing.T) {
	reversible := map[Channel]bool{
		ChannelWebsite:    true,
		ChannelCMS:        true,
		ChannelCRM:        false,
		ChannelChat:       false,
		ChannelEmail:      false,
		ChannelNotesVault: true,
		ChannelFilesystem: true,
	}

	for channel, want := range reversible {
		if got := channel.SupportsRollback(); got != want {
			t.Errorf("SupportsRollback(%s) = %v, want %v", channel, got, want)
		}
	}
}

func TestChannelValid(t *testing.T) {
	for _, channel := range AllChannels {
		if !channel.Valid() {
			t.Errorf("expected %s to be valid", channel)
		}
	}
	if Channel("carrier-pigeon").Valid() {
		t.Error("expected unknown channel to be invalid")
	}
}

func TestPublishRequestApproveReturnsCopy(t *testing.T) {
	original := PublishRequest{
		ArtifactID:   "story-1",
		ArtifactType: "marketing_output",
		SourceFile:   "/tmp/story-1.md",
		Channel:      ChannelWebsite,
		Visibility:   VisibilityPublic,
		RequestedBy:  "system",
	}

	now := time.Now().UTC()
	approved := original.Approve("alice", now)

	if original.HumanApproved {
		t.Error("original request was mutated by Approve")
	}
	if !approved.HumanApproved {
		t.Error("approved copy should carry HumanApproved")
	}
	if approved.ApprovedBy != "alice" {
		t.Errorf("expected approver alice, got %q", approved.ApprovedBy)
	}
	if !approved.ApprovedAt.Equal(now) {
		t.Errorf("expected ApprovedAt %v, got %v", now, approved.ApprovedAt)
	}
}

func TestPublishRequestSchedule(t *testing.T) {
	req := PublishRequest{ArtifactID: "story-1", Channel: ChannelWebsite}
	now := time.Now().UTC()

	scheduled, err := req.Schedule(now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if scheduled.ScheduledFor == nil {
		t.Fatal("scheduled copy should carry ScheduledFor")
	}
	if req.ScheduledFor != nil {
		t.Error("original request was mutated by Schedule")
	}

	if _, err := req.Schedule(now.Add(-time.Hour), now); err == nil {
		t.Error("expected error scheduling in the past")
	}
}

func TestPublishRecordRollbackLinkage(t *testing.T) {
	entry := PublishRecord{
		RecordID:     "pub-1-rollback",
		ArtifactType: ArtifactTypeRollback,
		Metadata:     map[string]string{"original_record_id": "pub-1"},
	}
	if !entry.IsRollbackEntry() {
		t.Error("expected rollback entry")
	}
	if got := entry.OriginalRecordID(); got != "pub-1" {
		t.Errorf("expected original record id pub-1, got %q", got)
	}

	plain := PublishRecord{RecordID: "pub-2", ArtifactType: "marketing_output"}
	if plain.IsRollbackEntry() {
		t.Error("ordinary record misidentified as rollback entry")
	}
	if plain.OriginalRecordID() != "" {
		t.Error("ordinary record should have no original record id")
	}
}
