package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/roomie/internal/model"
)

const minPasswordLen = 8

type AuthService struct {
	users      UserRepository
	rooms      RoomRepository
	sessions   SessionRepository
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthService(users UserRepository, rooms RoomRepository, sessions SessionRepository, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		rooms:      rooms,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger.With("component", "auth_service"),
	}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalid)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalid, minPasswordLen)
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s", ErrConflict, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(email, name, string(hash))
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the credentials and starts a session. The session selects
// the user's first room, if any.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	u, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("compare password: %w", err)
	}

	var roomID *int64
	rooms, err := s.rooms.ListForUser(u.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(rooms) > 0 {
		roomID = &rooms[0].ID
	}

	sess, err := s.sessions.Create(u.ID, roomID, s.sessionTTL)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return sess, u, nil
}

// Authenticate resolves a session token. Unknown or expired tokens return
// ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	sess, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(token)
}

// SwitchRoom points the session at roomID. The user must be a member.
func (s *AuthService) SwitchRoom(ctx context.Context, token string, userID, roomID int64) error {
	ok, err := s.rooms.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return s.sessions.SetRoom(token, roomID)
}
