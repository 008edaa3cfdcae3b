package domain

import "time"

// ChatMessage is an immutable chat event as seen by every hub
// subscriber, including its own sender.
type ChatMessage struct {
	UserEmail string `json:"user_email"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewChatMessage stamps a chat event with the current wall clock
// in RFC 3339, the interchange format used on the wire.
func NewChatMessage(email, username, content string) ChatMessage {
	return ChatMessage{
		UserEmail: email,
		Username:  username,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
