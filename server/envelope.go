package server

import (
	"encoding/json"

	"chat-relay/domain"
)

// Inbound frame tags. The tag selects how the rest of the frame is
// interpreted; exactly one variant per frame.
const (
	frameAuth  = "auth"
	frameChat  = "chat"
	frameJoin  = "join"
	frameLeave = "leave"
)

// Outbound statuses.
const (
	statusAuthenticated = "authenticated"
	statusError         = "error"
	statusMessage       = "message"
)

// ClientEnvelope is the tagged inbound protocol frame.
//
//	auth:  {"type":"auth","email":...,"password":...}
//	chat:  {"type":"chat","content":...}
//	join:  {"type":"join"}
//	leave: {"type":"leave"}
type ClientEnvelope struct {
	Type     string `json:"type"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Content  string `json:"content,omitempty"`
}

// ServerEnvelope is the outbound protocol frame. Exactly one of
// Message and Info is meaningful for a given status.
type ServerEnvelope struct {
	Status  string              `json:"status"`
	Message *domain.ChatMessage `json:"message,omitempty"`
	Info    string              `json:"info,omitempty"`
}

func parseClientEnvelope(payload []byte) (ClientEnvelope, error) {
	var envelope ClientEnvelope
	err := json.Unmarshal(payload, &envelope)
	return envelope, err
}

func authenticatedEnvelope(displayName string) ServerEnvelope {
	return ServerEnvelope{Status: statusAuthenticated, Info: "Welcome, " + displayName + "!"}
}

func errorEnvelope(info string) ServerEnvelope {
	return ServerEnvelope{Status: statusError, Info: info}
}

func messageEnvelope(message domain.ChatMessage) ServerEnvelope {
	return ServerEnvelope{Status: statusMessage, Message: &message}
}
