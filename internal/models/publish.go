// Package models defines the domain types for the publish gate.
package models

import (
	"fmt"
	"time"
)

// Channel identifies a delivery destination kind.
type Channel string

const (
	ChannelWebsite    Channel = "website"
	ChannelCMS        Channel = "cms"
	ChannelCRM        Channel = "crm"
	ChannelChat       Channel = "chat"
	ChannelEmail      Channel = "email"
	ChannelNotesVault Channel = "notes-vault"
	ChannelFilesystem Channel = "filesystem"
)

// AllChannels lists every known channel.
var AllChannels = []Channel{
	ChannelWebsite,
	ChannelCMS,
	ChannelCRM,
	ChannelChat,
	ChannelEmail,
	ChannelNotesVault,
	ChannelFilesystem,
}

// Valid reports whether the channel is a known destination kind.
func (c Channel) Valid() bool {
	for _, known := range AllChannels {
		if c == known {
			return true
		}
	}
	return false
}

// SupportsRollback reports whether deliveries to this channel can be reversed.
// Chat and email deliveries cannot be unsent; this is a fixed property of the
// channel, not a runtime decision.
func (c Channel) SupportsRollback() bool {
	switch c {
	case ChannelWebsite, ChannelCMS, ChannelNotesVault, ChannelFilesystem:
		return true
	default:
		return false
	}
}

// VisibilityLevel describes who may see a delivered artifact.
type VisibilityLevel string

const (
	VisibilityPublic     VisibilityLevel = "public"
	VisibilityExternal   VisibilityLevel = "external"
	VisibilityInternal   VisibilityLevel = "internal"
	VisibilityRestricted VisibilityLevel = "restricted"
)

// AllVisibilityLevels lists every known visibility level.
var AllVisibilityLevels = []VisibilityLevel{
	VisibilityPublic,
	VisibilityExternal,
	VisibilityInternal,
	VisibilityRestricted,
}

// Valid reports whether the visibility level is known.
func (v VisibilityLevel) Valid() bool {
	for _, known := range AllVisibilityLevels {
		if v == known {
			return true
		}
	}
	return false
}

// ApprovalStatus tracks the human-approval state of a publish request.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusDenied    ApprovalStatus = "denied"
	ApprovalStatusCancelled ApprovalStatus = "cancelled"
)

// PublishStatus is the terminal outcome recorded for a publish attempt.
type PublishStatus string

const (
	PublishStatusPublished  PublishStatus = "published"
	PublishStatusScheduled  PublishStatus = "scheduled"
	PublishStatusFailed     PublishStatus = "failed"
	PublishStatusRolledBack PublishStatus = "rolled_back"
)

// ArtifactTypeRollback marks ledger entries that record a reversal rather
// than a delivery.
const ArtifactTypeRollback = "rollback"

// PublishRequest describes one delivery attempt for an already-rendered
// artifact. Requests are value objects: approving or scheduling produces a
// new request rather than mutating an existing one.
type PublishRequest struct {
	// ArtifactID uniquely identifies the artifact being published.
	ArtifactID string `json:"artifact_id"`

	// ArtifactType is the free-form artifact kind (e.g. "marketing_output").
	ArtifactType string `json:"artifact_type"`

	// SourceFile is the path to the rendered output file.
	SourceFile string `json:"source_file"`

	// Channel is the target destination kind.
	Channel Channel `json:"channel"`

	// Visibility is the audience restriction for the delivery.
	Visibility VisibilityLevel `json:"visibility"`

	// HumanApproved indicates a human has explicitly signed off.
	HumanApproved bool `json:"human_approved"`

	// ApprovedBy identifies the approver when HumanApproved is set.
	ApprovedBy string `json:"approved_by,omitempty"`

	// ApprovedAt is when approval was granted.
	ApprovedAt time.Time `json:"approved_at,omitzero"`

	// ScheduledFor defers delivery to a future time when non-nil.
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`

	// Metadata carries free-form context for the delivery.
	Metadata map[string]string `json:"metadata,omitempty"`

	// RequestedBy identifies who asked for the publish.
	RequestedBy string `json:"requested_by"`

	// RequestedAt is when the request was created.
	RequestedAt time.Time `json:"requested_at,omitzero"`
}

// Approve returns a copy of the request with human approval attached.
func (r PublishRequest) Approve(approvedBy string, now time.Time) PublishRequest {
	r.HumanApproved = true
	r.ApprovedBy = approvedBy
	r.ApprovedAt = now.UTC()
	return r
}

// Schedule returns a copy of the request deferred to the given time. The
// time must be in the future relative to now.
func (r PublishRequest) Schedule(at time.Time, now time.Time) (PublishRequest, error) {
	if !at.After(now) {
		return PublishRequest{}, fmt.Errorf("scheduled time must be in the future: %s", at.Format(time.RFC3339))
	}
	utc := at.UTC()
	r.ScheduledFor = &utc
	return r, nil
}

// PublishDecision is the outcome of policy evaluation for one request. It is
// transient: decisions feed record construction and are not persisted.
type PublishDecision struct {
	// Approved indicates the request may proceed to delivery.
	Approved bool `json:"approved"`

	// Channel is the destination the request was routed to.
	Channel Channel `json:"channel"`

	// Destination is the concrete target (path, URL, address).
	Destination string `json:"destination"`

	// DenialReason explains a denial; empty when approved.
	DenialReason string `json:"denial_reason,omitempty"`

	// ScheduledFor carries the deferred delivery time, if any.
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`

	// RequiresHumanApproval indicates the approval matrix demands sign-off.
	RequiresHumanApproval bool `json:"requires_human_approval"`

	// ApprovalStatus is the approval state at decision time.
	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

// PublishRecord is the permanent audit entry for one publish or rollback
// action. Once appended to the ledger a record is never edited in place; a
// rollback is a second, linked record.
type PublishRecord struct {
	RecordID     string        `json:"record_id"`
	PublishedAt  time.Time     `json:"published_at"`
	ArtifactID   string        `json:"artifact_id"`
	ArtifactType string        `json:"artifact_type"`
	SourceFile   string        `json:"source_file"`
	Channel      Channel       `json:"channel"`
	Visibility   string        `json:"visibility"`
	Destination  string        `json:"destination"`
	ApprovedBy   string        `json:"approved_by"`
	Approval     string        `json:"approval_status"`
	Status       PublishStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CanRollback  bool          `json:"can_rollback"`
	RolledBack   bool          `json:"rolled_back"`
	RolledBackAt *time.Time    `json:"rolled_back_at,omitempty"`
	RolledBackBy string        `json:"rolled_back_by,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsRollbackEntry reports whether the record documents a reversal of an
// earlier delivery.
func (r *PublishRecord) IsRollbackEntry() bool {
	return r.ArtifactType == ArtifactTypeRollback
}

// OriginalRecordID returns the id of the delivery a rollback entry reverses,
// or empty for ordinary records.
func (r *PublishRecord) OriginalRecordID() string {
	if !r.IsRollbackEntry() {
		return ""
	}
	return r.Metadata["original_record_id"]
}

// RollbackResult reports the outcome of a rollback attempt.
type RollbackResult struct {
	Success      bool      `json:"success"`
	RecordID     string    `json:"record_id"`
	Channel      Channel   `json:"channel"`
	Destination  string    `json:"destination"`
	RolledBackAt time.Time `json:"rolled_back_at"`
	RolledBackBy string    `json:"rolled_back_by"`
	ErrorMessage string    `json:"error_message,omitempty"`
}
