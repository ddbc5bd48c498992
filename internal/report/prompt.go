// Package report は外部生成AIサービスによるイベント報告書の生成を提供する。
package report

import (
	"fmt"
	"strings"

	"github.com/hitoshi/eventman/internal/model"
)

// 報告書に記載する主催者情報。
const (
	sponsoringOrganization = "Event Management Team"
	contactName            = "Admin User"
	contactPhone           = "123-456-7890"
	contactEmail           = "admin@eventapp.com"
	defaultDuration        = "Not specified"
)

// promptDateLayout は報告書内の開催日時の表示形式。
const promptDateLayout = "January 2, 2006 3:04 PM"

// buildPrompt はイベントのスナップショットから報告書生成プロンプトを組み立てる。
// 同一イベント状態に対して常に同一のプロンプトを生成する。
func buildPrompt(event *model.Event, duration string) string {
	if strings.TrimSpace(duration) == "" {
		duration = defaultDuration
	}

	date := event.Date.Format(promptDateLayout)
	participantsCount := len(event.Participants)

	var sb strings.Builder

	sb.WriteString("Generate a detailed Post-Event Summary Report for the following event as plain text, ")
	sb.WriteString("without using any formatting symbols like asterisks or bold markers. ")
	sb.WriteString("Use line breaks and indentation for structure.\n\n")

	sb.WriteString("Post-Event Summary Report\n\n")

	sb.WriteString("Event Details:\n")
	sb.WriteString(fmt.Sprintf("Name of Event: %s\n", event.Title))
	sb.WriteString(fmt.Sprintf("Date of Event: %s\n", date))
	sb.WriteString(fmt.Sprintf("Location of Event: %s\n", event.Location))
	sb.WriteString(fmt.Sprintf("Number of Persons Attending: %d\n", participantsCount))
	sb.WriteString(fmt.Sprintf("Total Capacity: %d\n", event.Capacity))
	sb.WriteString(fmt.Sprintf("Sponsoring Organization(s): %s\n", sponsoringOrganization))
	sb.WriteString(fmt.Sprintf("Contact Name: %s\n", contactName))
	sb.WriteString(fmt.Sprintf("Telephone Number: %s\n", contactPhone))
	sb.WriteString(fmt.Sprintf("E-mail: %s\n\n", contactEmail))

	sb.WriteString("Event Summary:\n\n")
	sb.WriteString(fmt.Sprintf(
		"On %s, %s hosted the event %q at %s. The event focused on %s and was attended by %d participants out of a total capacity of %d. The event lasted for %s.\n\n",
		date, sponsoringOrganization, event.Title, event.Location,
		event.Description, participantsCount, event.Capacity, duration,
	))

	sb.WriteString("Key Highlights:\n")
	sb.WriteString("Participant Engagement: The event fostered active participation, with attendees sharing insights and ideas related to the event's objectives.\n")
	sb.WriteString("Collaborative Discussion: A detailed discussion took place regarding objectives and outcomes.\n")
	sb.WriteString("Attendee Feedback: The active participation suggests a positive level of engagement.\n\n")

	sb.WriteString("Assessment and Actionable Outcomes:\n\n")
	sb.WriteString("Summarize the event's success by highlighting its impact, participant satisfaction, and any actionable outcomes or future steps planned. ")
	sb.WriteString("Include recommendations based on the event data, such as improving attendance or defining clear objectives if applicable.\n\n")

	sb.WriteString("Conclusion:\n\n")
	sb.WriteString("Provide a concise conclusion summarizing the event's success and areas for improvement, ensuring the tone is professional and the structure follows the example of a formal event summary report.\n")

	return sb.String()
}
