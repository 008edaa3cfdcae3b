package server

import (
	"encoding/json"
	"net/http"

	stderrors "errors"

	"chat-relay/errors"
)

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type deleteUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		s.log.Warn("User creation failed", "email", req.Email, "err", err)
		s.respond(w, statusForUserError(err), apiResponse{
			Status:  "error",
			Message: "Failed to create user: " + err.Error(),
		})
		return
	}

	s.respond(w, http.StatusOK, apiResponse{
		Status:  "success",
		Message: "User created successfully",
		Token:   string(token),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		s.respond(w, http.StatusUnauthorized, apiResponse{
			Status:  "error",
			Message: "Invalid email or password",
		})
		return
	}

	s.respond(w, http.StatusOK, apiResponse{
		Status:  "success",
		Message: "Login successful",
		Token:   string(token),
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.authService.ChangePassword(req.Email, req.OldPassword, req.NewPassword); err != nil {
		s.respond(w, statusForUserError(err), apiResponse{
			Status:  "error",
			Message: "Failed to change password: " + err.Error(),
		})
		return
	}

	s.respond(w, http.StatusOK, apiResponse{
		Status:  "success",
		Message: "Password changed successfully",
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.authService.DeleteUser(req.Email, req.Password); err != nil {
		s.respond(w, statusForUserError(err), apiResponse{
			Status:  "error",
			Message: "Failed to delete user: " + err.Error(),
		})
		return
	}

	s.respond(w, http.StatusOK, apiResponse{
		Status:  "success",
		Message: "User deleted successfully",
	})
}

func statusForUserError(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrInvalidPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respond(w, http.StatusBadRequest, apiResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Failed to encode response", "err", err)
	}
}
