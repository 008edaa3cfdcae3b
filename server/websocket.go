package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/runtime"
	"chat-relay/services"
)

const (
	// Per-write deadline on the socket.
	writeWait = 10 * time.Second

	// The peer must answer a ping within pongWait or the inbound
	// direction fails and tears the connection down.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// handleWebSocket upgrades the request and runs the connection engine.
// It returns only when the connection has terminated; every error is
// handled internally.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.handleConnection(conn)
}

// handleConnection owns one socket end to end: handshake, the two
// data-flow directions, and teardown.
//
// After the handshake, the socket splits into an outbound direction
// (hub subscription → socket writes) and an inbound direction (socket
// reads → persist + publish). The directions are raced: whichever
// stops first cancels the shared context, the context watcher closes
// the socket, and the closed socket unblocks whichever loop is still
// parked on it. The hub subscription is dropped exactly once on the
// way out.
func (s *Server) handleConnection(conn *websocket.Conn) {
	remote := conn.RemoteAddr().String()
	conn.SetReadLimit(s.maxMessageSize)

	sess, ok := s.handshake(conn, remote)
	if !ok {
		// Rejected: the error envelope is already written; close
		// the outbound side and stop.
		s.closeConn(conn, remote)
		return
	}
	s.log.Info("Connection authenticated", "remote", remote, "email", sess.email)

	subscription := s.hub.Subscribe()
	defer subscription.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Teardown watcher: the first direction to finish cancels ctx,
	// closing the socket unparks the other direction immediately.
	var once sync.Once
	closeOnce := func() { once.Do(func() { s.closeConn(conn, remote) }) }
	go func() {
		<-ctx.Done()
		closeOnce()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.outboundLoop(ctx, conn, subscription, remote)
	}()

	s.inboundLoop(ctx, conn, sess, remote)
	cancel()
	wg.Wait()
	closeOnce()
	s.log.Info("Connection closed", "remote", remote, "email", sess.email)
}

// handshake drives AwaitingAuth → Authenticated | Rejected. The first
// frame must arrive within authTimeout and must be a well-formed auth
// frame with valid credentials; anything else rejects the connection
// with a single error envelope.
func (s *Server) handshake(conn *websocket.Conn, remote string) (session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(s.authTimeout))

	_, payload, err := conn.ReadMessage()
	if err != nil {
		s.log.Warn("Handshake read failed", "remote", remote, "err", err)
		s.writeEnvelope(conn, errorEnvelope("First message must be authentication"))
		return session{}, false
	}

	envelope, err := parseClientEnvelope(payload)
	if err != nil || envelope.Type != frameAuth {
		s.log.Warn("Handshake frame was not auth", "remote", remote)
		s.writeEnvelope(conn, errorEnvelope("First message must be authentication"))
		return session{}, false
	}

	user, err := s.authService.Authenticate(envelope.Email, envelope.Password)
	if err != nil {
		s.log.Warn("Handshake authentication failed", "remote", remote, "email", envelope.Email)
		s.writeEnvelope(conn, errorEnvelope("Authentication failed: Invalid email or password"))
		return session{}, false
	}

	if !s.writeEnvelope(conn, authenticatedEnvelope(user.Name)) {
		return session{}, false
	}
	return newSession(user), true
}

// outboundLoop is the fan-out direction: every hub event published
// after the subscription began is wrapped in a message envelope and
// written to the socket, in publish order, self-echo included. Pings
// keep the peer's pong handler feeding the inbound read deadline.
func (s *Server) outboundLoop(ctx context.Context, conn *websocket.Conn,
	subscription *runtime.Subscription, remote string) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-subscription.C():
			if !s.writeEnvelope(conn, messageEnvelope(message)) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("Ping failed", "remote", remote, "err", err)
				return
			}
		}
	}
}

// inboundLoop is the fan-in direction: frames are processed strictly
// in arrival order. Post-handshake protocol errors are logged and
// skipped; only a transport failure ends the loop.
func (s *Server) inboundLoop(ctx context.Context, conn *websocket.Conn, sess session, remote string) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Read failed", "remote", remote, "err", err)
			} else {
				s.log.Debug("Peer disconnected", "remote", remote, "err", err)
			}
			return
		}

		envelope, err := parseClientEnvelope(payload)
		if err != nil {
			s.log.Warn("Failed to parse frame", "remote", remote, "err", err)
			continue
		}

		switch envelope.Type {
		case frameChat:
			s.chatService.PostMessage(ctx, services.PostMessageCommand{
				UserID:   sess.userID,
				Email:    sess.email,
				Username: sess.username,
				Content:  envelope.Content,
			})
		case frameJoin:
			s.log.Info("User joined the chat", "email", sess.email)
		case frameLeave:
			s.log.Info("User left the chat", "email", sess.email)
		case frameAuth:
			// Session is immutable once established.
			s.log.Warn("Ignoring auth frame on authenticated connection", "email", sess.email)
		default:
			s.log.Warn("Unknown frame type", "remote", remote, "type", envelope.Type)
		}
	}
}

// writeEnvelope marshals and writes one outbound frame under the write
// deadline. Reports whether the write succeeded.
func (s *Server) writeEnvelope(conn *websocket.Conn, envelope ServerEnvelope) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(envelope); err != nil {
		s.log.Debug("Write failed", "remote", conn.RemoteAddr().String(), "err", err)
		return false
	}
	return true
}

// closeConn sends a close frame and closes the socket. WriteControl
// and Close are the only write paths safe to run concurrently with the
// outbound loop, which is why the close frame goes through WriteControl.
func (s *Server) closeConn(conn *websocket.Conn, remote string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	if err := conn.Close(); err != nil {
		s.log.Debug("Close failed", "remote", remote, "err", err)
	}
}
