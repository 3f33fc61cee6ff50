package service

import (
	"time"

	"github.com/dukerupert/roomie/internal/model"
)

// The interfaces below are satisfied by the SQLite stores in internal/store.

type ChoreRepository interface {
	Create(c model.Chore) (*model.Chore, error)
	GetByID(id int64) (*model.Chore, error)
	ListByRoom(roomID int64) ([]model.Chore, error)
	Update(c model.Chore) (*model.Chore, error)
	Delete(id int64) error
	Complete(choreID, memberID int64, at time.Time) (*model.CompletionRecord, error)
	ListRecords(choreID int64) ([]model.CompletionRecord, error)
	ListRecordsByRoom(roomID int64) ([]model.CompletionRecord, error)
	ListRecordsSince(roomID int64, since time.Time) ([]model.CompletionRecord, error)
}

type RoomRepository interface {
	Create(name, passwordHash string, createdBy int64) (*model.Room, error)
	GetByID(id int64) (*model.Room, error)
	GetByName(name string) (*model.Room, error)
	AddMember(roomID, userID int64) error
	IsMember(roomID, userID int64) (bool, error)
	ListMembers(roomID int64) ([]model.RoomMember, error)
	ListForUser(userID int64) ([]model.Room, error)
}

type UserRepository interface {
	Create(email, name, passwordHash string) (*model.User, error)
	GetByID(id int64) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
}

type SessionRepository interface {
	Create(userID int64, roomID *int64, ttl time.Duration) (*model.Session, error)
	GetByToken(token string) (*model.Session, error)
	SetRoom(token string, roomID int64) error
	Delete(token string) error
}
