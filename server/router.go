// Package server exposes the relay over HTTP: a small user-directory
// API, a bounded message-history read, and the WebSocket endpoint that
// hands accepted sockets to the per-connection protocol engine.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"chat-relay/runtime"
	"chat-relay/services"
)

type Server struct {
	log            *slog.Logger
	authService    services.IAuthService
	chatService    services.IChatService
	hub            *runtime.Hub
	upgrader       websocket.Upgrader
	authTimeout    time.Duration
	maxMessageSize int64
}

func NewServer(log *slog.Logger, authService services.IAuthService,
	chatService services.IChatService, hub *runtime.Hub,
	authTimeout time.Duration, maxMessageSize int64) *Server {
	return &Server{
		log:         log,
		authService: authService,
		chatService: chatService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from arbitrary hosts; origin
			// enforcement is left to surrounding infrastructure.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		authTimeout:    authTimeout,
		maxMessageSize: maxMessageSize,
	}
}

// Routes wires every endpoint onto a fresh router.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Hello, World!"))
	}).Methods("GET")
	router.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Status: OK"))
	}).Methods("GET")

	router.HandleFunc("/create_user", s.handleCreateUser).Methods("POST")
	router.HandleFunc("/login", s.handleLogin).Methods("POST")
	router.HandleFunc("/change_password", s.handleChangePassword).Methods("POST")
	router.HandleFunc("/delete_user", s.handleDeleteUser).Methods("POST")

	router.HandleFunc("/messages", s.handleGetMessages).Methods("GET")
	router.HandleFunc("/ws", s.handleWebSocket)

	return router
}
