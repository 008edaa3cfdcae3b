package server

import "chat-relay/domain"

// session is the authenticated identity of one connection. It is built
// exactly once, at the end of a successful handshake, and stays
// immutable for the socket's lifetime; a later auth frame is ignored,
// never re-processed. It lives only in memory.
type session struct {
	userID   string
	email    string
	username string
}

func newSession(user domain.User) session {
	return session{userID: user.ID, email: user.Email, username: user.Name}
}
