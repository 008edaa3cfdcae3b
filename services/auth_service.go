package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(username, email, password string) (Token, error)
	Login(email, password string) (Token, error)
	Authenticate(email, password string) (domain.User, error)
	ChangePassword(email, oldPassword, newPassword string) error
	DeleteUser(email, password string) error
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenIssuer
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenIssuer) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

// Register validates, hashes and persists a new user, then issues the
// initial session token. Validation runs before any expensive
// cryptographic work.
func (s *AuthService) Register(username, email, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository
	// unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(username, email, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if email is taken
	}

	token, err := s.tokens.Issue(userID, email)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Authenticate verifies raw credentials and returns the matching user.
// This is the lookup the WebSocket handshake relies on. Failures
// collapse to ErrInvalidCredentials to prevent user enumeration.
func (s *AuthService) Authenticate(email, password string) (domain.User, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, errors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) ChangePassword(email, oldPassword, newPassword string) error {
	user, err := s.Authenticate(email, oldPassword)
	if err != nil {
		return err
	}

	valReq := auth.RegisterRequest{
		Username: user.Name,
		Email:    email,
		Password: newPassword,
	}
	if err := auth.ValidateRegister(valReq); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}
	return s.userRepository.UpdatePassword(email, hashedPassword)
}

func (s *AuthService) DeleteUser(email, password string) error {
	if _, err := s.Authenticate(email, password); err != nil {
		return err
	}
	return s.userRepository.DeleteUser(email)
}
