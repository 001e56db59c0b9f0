// Package chat drives the pre-visit symptom interview: a transcript kept per
// browsing session, relayed turn by turn to the completion endpoint until it
// returns a finished report.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/internal/viewmodel"
)

const (
	AuthorUser      = "user"
	AuthorAssistant = "assistant"

	ImagePrompt    = "Please analyze the attached image and describe any visible medical symptoms or issues."
	FailureMessage = "I apologize, but the message failed to send. Please try again."
	NoResponse     = "No response"

	StatusComplete = "complete"
)

type Message struct {
	ID             string               `json:"id"`
	Author         string               `json:"author"`
	Text           string               `json:"text"`
	Time           string               `json:"time"`
	AttachmentURLs []string             `json:"attachmentUrls"`
	ReportData     *store.ReportPayload `json:"reportData,omitempty"`
}

// Session is the persisted interview state.
type Session struct {
	Messages []Message           `json:"messages"`
	Report   *store.ReportPayload `json:"report"`
	Complete bool                `json:"isComplete"`
}

// Attachment is an uploaded file forwarded to the completion endpoint. Its bytes
// are never written to the session.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// HistoryEntry is one prior turn in the shape the completion endpoint expects.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func newMessage(author, text string, now time.Time, attachments []string) Message {
	if attachments == nil {
		attachments = []string{}
	}
	return Message{
		ID:             uuid.NewString(),
		Author:         author,
		Text:           text,
		Time:           viewmodel.ClockTime(now),
		AttachmentURLs: attachments,
	}
}

func history(messages []Message) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		role := AuthorAssistant
		if m.Author == AuthorUser {
			role = AuthorUser
		}
		out = append(out, HistoryEntry{Role: role, Content: m.Text})
	}
	return out
}
