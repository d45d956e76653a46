package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/distgate/distgate/internal/models"
)

// recentActions caps how many entries the report shows.
const recentActions = 10

// Summary aggregates ledger history for reporting.
type Summary struct {
	Total     int
	ByChannel map[models.Channel]int
	ByStatus  map[models.PublishStatus]int
	Recent    []*models.PublishRecord
}

// Summarize builds a Summary over the given records.
func Summarize(records []*models.PublishRecord) Summary {
	summary := Summary{
		Total:     len(records),
		ByChannel: make(map[models.Channel]int),
		ByStatus:  make(map[models.PublishStatus]int),
	}

	for _, record := range records {
		summary.ByChannel[record.Channel]++
		summary.ByStatus[record.Status]++
	}

	start := len(records) - recentActions
	if start < 0 {
		start = 0
	}
	summary.Recent = records[start:]

	return summary
}

// Markdown renders the summary as a human-readable audit report.
func (s Summary) Markdown(now time.Time) string {
	var b strings.Builder

	b.WriteString("# Publish Audit Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.UTC().Format(time.RFC3339))

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "Total publish actions: %d\n\n", s.Total)

	b.WriteString("## By Channel\n")
	for _, channel := range sortedChannels(s.ByChannel) {
		fmt.Fprintf(&b, "- %s: %d\n", channel, s.ByChannel[channel])
	}

	b.WriteString("\n## By Status\n")
	for _, status := range sortedStatuses(s.ByStatus) {
		fmt.Fprintf(&b, "- %s: %d\n", status, s.ByStatus[status])
	}

	b.WriteString("\n## Recent Actions\n\n")
	for i := len(s.Recent) - 1; i >= 0; i-- {
		record := s.Recent[i]
		fmt.Fprintf(&b, "- %s: %s -> %s (%s)\n",
			record.PublishedAt.UTC().Format(time.RFC3339),
			record.ArtifactID,
			record.Channel,
			record.Status,
		)
	}

	return b.String()
}

func sortedChannels(counts map[models.Channel]int) []models.Channel {
	channels := make([]models.Channel, 0, len(counts))
	for channel := range counts {
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

func sortedStatuses(counts map[models.PublishStatus]int) []models.PublishStatus {
	statuses := make([]models.PublishStatus, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	return statuses
}
