package services

import (
	"context"
	"log/slog"
	"time"

	"chat-relay/domain"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
)

type IChatService interface {
	PostMessage(ctx context.Context, cmd PostMessageCommand) domain.ChatMessage
	RecentMessages(limit int) ([]repositories.DiskMessage, error)
}

// PostMessageCommand carries an authenticated sender's intent to
// publish one chat message.
type PostMessageCommand struct {
	UserID   string
	Email    string
	Username string
	Content  string
}

const (
	// Bounds for the recent-fetch read path. No further pagination
	// is offered.
	DefaultRecentLimit = 100
	MaxRecentLimit     = 500
)

// ChatService is the fan-in side of the relay: censor, persist,
// broadcast. A persistence failure is logged and swallowed; the
// broadcast still happens.
type ChatService struct {
	log               *slog.Logger
	hub               *runtime.Hub
	messageRepository repositories.IMessageRepository
	moderator         moderation.Moderator
}

func NewChatService(log *slog.Logger, hub *runtime.Hub,
	repo repositories.IMessageRepository, moderator moderation.Moderator) *ChatService {
	return &ChatService{log: log, hub: hub, messageRepository: repo, moderator: moderator}
}

// PostMessage runs one message through censor → store → publish and
// returns the broadcast event.
func (s *ChatService) PostMessage(_ context.Context, cmd PostMessageCommand) domain.ChatMessage {
	censored := s.moderator.Censor(cmd.Content)
	at := time.Now().UTC()

	message := domain.ChatMessage{
		UserEmail: cmd.Email,
		Username:  cmd.Username,
		Content:   censored,
		Timestamp: at.Format(time.RFC3339),
	}

	if _, err := s.messageRepository.StoreMessage(repositories.DiskMessage{
		UserID:    cmd.UserID,
		UserEmail: cmd.Email,
		Username:  cmd.Username,
		Content:   censored,
		CreatedAt: at,
	}); err != nil {
		s.log.Error("Failed to persist message", "user_id", cmd.UserID, "err", err)
	}

	s.hub.Publish(message)
	return message
}

// RecentMessages returns the newest messages in chronological order,
// clamped to [1, MaxRecentLimit] with DefaultRecentLimit for zero or
// negative input.
func (s *ChatService) RecentMessages(limit int) ([]repositories.DiskMessage, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.messageRepository.RecentMessages(limit)
}
