package types

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single conversation entry. Immutable once created.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// PendingConfirmation exists only while the assistant has asked the user to
// disambiguate a destination change. At most one per session.
type PendingConfirmation struct {
	DetectedDestination string    `json:"detected_destination"`
	CurrentDestination  string    `json:"current_destination"`
	OriginalQuestion    string    `json:"original_question"`
	CreatedAt           time.Time `json:"created_at"`
}

// Session holds the mutable per-conversation state. CurrentDestination is either
// a well-formed "Ciudad, País"/"Ciudad" value or nil, never the empty string.
type Session struct {
	ID                 uuid.UUID            `json:"id"`
	Messages           []Message            `json:"messages"`
	CurrentDestination *string              `json:"current_destination,omitempty"`
	Pending            *PendingConfirmation `json:"pending_confirmation,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// SessionStats summarizes a session for the stats endpoint.
type SessionStats struct {
	Exists            bool       `json:"exists"`
	MessageCount      int        `json:"message_count"`
	UserMessages      int        `json:"user_messages"`
	AssistantMessages int        `json:"assistant_messages"`
	LastMessage       *time.Time `json:"last_message,omitempty"`
}
