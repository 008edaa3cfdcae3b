package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"chat-relay/repositories"
)

type messageResponse struct {
	ID        uint64 `json:"id"`
	UserEmail string `json:"user_email"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type messagesResponse struct {
	Status   string            `json:"status"`
	Messages []messageResponse `json:"messages"`
}

// handleGetMessages serves the bounded most-recent fetch: newest
// messages, oldest first, limit defaulted and capped by the service.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.respond(w, http.StatusBadRequest, apiResponse{
				Status:  "error",
				Message: "limit must be an integer",
			})
			return
		}
		limit = parsed
	}

	messages, err := s.chatService.RecentMessages(limit)
	if err != nil {
		s.log.Error("Failed to fetch messages", "err", err)
		s.respond(w, http.StatusInternalServerError, messagesResponse{
			Status:   "error",
			Messages: []messageResponse{},
		})
		return
	}

	s.respond(w, http.StatusOK, messagesResponse{
		Status:   "success",
		Messages: toMessageResponses(messages),
	})
}

func toMessageResponses(messages []repositories.DiskMessage) []messageResponse {
	return lo.Map(messages, func(item repositories.DiskMessage, _ int) messageResponse {
		return messageResponse{
			ID:        item.ID,
			UserEmail: item.UserEmail,
			Username:  item.Username,
			Content:   item.Content,
			Timestamp: item.CreatedAt.Format(time.RFC3339),
		}
	})
}
