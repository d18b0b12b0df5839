package notify

import (
	"fmt"

	"github.com/oshokin/gfs-monitor/internal/domain/cycle"
)

// Title is shared by every monitor notification.
const Title = "📡 GFS 0.25° watch"

// startTemplates holds the per-hour wording of "cycle started" messages.
// Every template receives the hour label and the day.
//
//nolint:gochecknoglobals // Read-only lookup table.
var startTemplates = map[cycle.Hour]string{
	cycle.Hour00: "🌙 Transfer started for the overnight run **%sz** of %s.",
	cycle.Hour06: "🌅 Transfer started for the morning run **%sz** of %s.",
	cycle.Hour12: "☀️ Transfer started for the midday run **%sz** of %s.",
	cycle.Hour18: "🌆 Transfer started for the evening run **%sz** of %s.",
}

// defaultStartTemplate is used for hours missing from startTemplates.
const defaultStartTemplate = "🚀 Transfer started for cycle **%sz** of %s."

// completeTemplate is the "cycle complete" wording.
const completeTemplate = "✅ Cycle complete! Cycle **%sz** of %s is ready."

// StartedMessage returns the notification for a cycle whose first files appeared.
func StartedMessage(id cycle.Identity) Message {
	template, ok := startTemplates[id.Hour]
	if !ok {
		template = defaultStartTemplate
	}

	return Message{
		Title:    Title,
		Body:     fmt.Sprintf(template, id.Hour.Label(), id.Date.String()),
		Severity: SeverityInfo,
	}
}

// CompletedMessage returns the notification for a cycle whose marker file exists.
func CompletedMessage(id cycle.Identity) Message {
	return Message{
		Title:    Title,
		Body:     fmt.Sprintf(completeTemplate, id.Hour.Label(), id.Date.String()),
		Severity: SeveritySuccess,
	}
}

// TestMessage returns the message sent by the notify-test command.
func TestMessage() Message {
	return Message{
		Title:    Title,
		Body:     "🧪 Notification system test",
		Severity: SeverityInfo,
	}
}
