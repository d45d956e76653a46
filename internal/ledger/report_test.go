package ledger

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/distgate/distgate/internal/models"
)

func TestSummarize(t *testing.T) {
	var records []*models.PublishRecord
	for i := 0; i < 12; i++ {
		record := testRecord(fmt.Sprintf("pub-%d", i), models.ChannelWebsite)
		if i%3 == 0 {
			record.Channel = models.ChannelChat
			record.Status = models.PublishStatusFailed
		}
		records = append(records, record)
	}

	summary := Summarize(records)

	if summary.Total != 12 {
		t.Errorf("expected total 12, got %d", summary.Total)
	}
	if summary.ByChannel[models.ChannelWebsite] != 8 {
		t.Errorf("expected 8 website records, got %d", summary.ByChannel[models.ChannelWebsite])
	}
	if summary.ByChannel[models.ChannelChat] != 4 {
		t.Errorf("expected 4 chat records, got %d", summary.ByChannel[models.ChannelChat])
	}
	if summary.ByStatus[models.PublishStatusFailed] != 4 {
		t.Errorf("expected 4 failed records, got %d", summary.ByStatus[models.PublishStatusFailed])
	}
	if len(summary.Recent) != recentActions {
		t.Errorf("expected %d recent records, got %d", recentActions, len(summary.Recent))
	}
	if summary.Recent[len(summary.Recent)-1].RecordID != "pub-11" {
		t.Errorf("expected recent to end at pub-11, got %s", summary.Recent[len(summary.Recent)-1].RecordID)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	records := []*models.PublishRecord{
		testRecord("pub-1", models.ChannelWebsite),
		testRecord("pub-2", models.ChannelFilesystem),
	}
	summary := Summarize(records)

	out := summary.Markdown(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"# Publish Audit Report",
		"Generated: 2026-08-28T12:00:00Z",
		"Total publish actions: 2",
		"- website: 1",
		"- filesystem: 1",
		"- published: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	// Recent actions are newest first.
	first := strings.Index(out, "story-pub-2")
	second := strings.Index(out, "story-pub-1")
	if first == -1 || second == -1 || first > second {
		t.Errorf("expected newest-first recent actions:\n%s", out)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.Total != 0 {
		t.Errorf("expected empty summary, got total %d", summary.Total)
	}
	out := summary.Markdown(time.Now())
	if !strings.Contains(out, "Total publish actions: 0") {
		t.Errorf("expected zero-count report:\n%s", out)
	}
}
