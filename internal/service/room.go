package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/roomie/internal/model"
)

const minRoomPasswordLen = 4

type RoomService struct {
	rooms  RoomRepository
	logger *slog.Logger
}

func NewRoomService(rooms RoomRepository, logger *slog.Logger) *RoomService {
	return &RoomService{rooms: rooms, logger: logger.With("component", "room_service")}
}

// Create opens a new room named name and makes userID its first member.
func (s *RoomService) Create(ctx context.Context, userID int64, name, password string) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrInvalid)
	}
	if len(password) < minRoomPasswordLen {
		return nil, fmt.Errorf("%w: room password must be at least %d characters", ErrInvalid, minRoomPasswordLen)
	}

	existing, err := s.rooms.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: room %q", ErrConflict, name)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash room password: %w", err)
	}
	room, err := s.rooms.Create(name, string(hash), userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("room created", "room_id", room.ID, "user_id", userID)
	return room, nil
}

// Join adds userID to the room called name when password matches.
func (s *RoomService) Join(ctx context.Context, userID int64, name, password string) (*model.Room, error) {
	room, err := s.rooms.GetByName(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("room join rejected", "room_id", room.ID, "user_id", userID)
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("compare room password: %w", err)
	}

	if err := s.rooms.AddMember(room.ID, userID); err != nil {
		return nil, err
	}
	s.logger.Info("room joined", "room_id", room.ID, "user_id", userID)
	return room, nil
}

func (s *RoomService) ListForUser(ctx context.Context, userID int64) ([]model.Room, error) {
	rooms, err := s.rooms.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return rooms, nil
}

func (s *RoomService) Members(ctx context.Context, roomID int64) ([]model.RoomMember, error) {
	members, err := s.rooms.ListMembers(roomID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.RoomMember{}
	}
	return members, nil
}

// RequireMember returns ErrForbidden unless userID belongs to roomID.
func (s *RoomService) RequireMember(ctx context.Context, roomID, userID int64) error {
	ok, err := s.rooms.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
