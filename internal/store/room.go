package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/roomie/internal/model"
)

type RoomStore struct {
	db *sql.DB
}

func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db}
}

func scanRoom(scanner interface{ Scan(...any) error }) (*model.Room, error) {
	var r model.Room
	var createdBy sql.NullInt64
	err := scanner.Scan(&r.ID, &r.Name, &r.PasswordHash, &createdBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		r.CreatedBy = &createdBy.Int64
	}
	return &r, nil
}

func scanRoomMember(scanner interface{ Scan(...any) error }) (*model.RoomMember, error) {
	var m model.RoomMember
	err := scanner.Scan(&m.RoomID, &m.UserID, &m.Name, &m.Email, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const roomCols = `id, name, password_hash, created_by, created_at, updated_at`

// Create inserts a room and adds its creator as the first member.
func (s *RoomStore) Create(name, passwordHash string, createdBy int64) (*model.Room, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO rooms (name, password_hash, created_by) VALUES (?, ?, ?)`,
		name, passwordHash, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO room_members (room_id, user_id) VALUES (?, ?)`, id, createdBy); err != nil {
		return nil, fmt.Errorf("insert room member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit room: %w", err)
	}
	return s.GetByID(id)
}

func (s *RoomStore) GetByID(id int64) (*model.Room, error) {
	row := s.db.QueryRow(`SELECT `+roomCols+` FROM rooms WHERE id = ?`, id)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) GetByName(name string) (*model.Room, error) {
	row := s.db.QueryRow(`SELECT `+roomCols+` FROM rooms WHERE name = ?`, name)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room by name: %w", err)
	}
	return r, nil
}

// AddMember is a no-op when the user already belongs to the room.
func (s *RoomStore) AddMember(roomID, userID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO room_members (room_id, user_id) VALUES (?, ?)`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("insert room member: %w", err)
	}
	return nil
}

func (s *RoomStore) RemoveMember(roomID, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM room_members WHERE room_id = ? AND user_id = ?`, roomID, userID)
	if err != nil {
		return fmt.Errorf("delete room member: %w", err)
	}
	return nil
}

func (s *RoomStore) IsMember(roomID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM room_members WHERE room_id = ? AND user_id = ?`,
		roomID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check room member: %w", err)
	}
	return n > 0, nil
}

func (s *RoomStore) ListMembers(roomID int64) ([]model.RoomMember, error) {
	rows, err := s.db.Query(
		`SELECT rm.room_id, rm.user_id, u.name, u.email, rm.joined_at
		 FROM room_members rm
		 JOIN users u ON u.id = rm.user_id
		 WHERE rm.room_id = ?
		 ORDER BY u.name ASC, u.id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list room members: %w", err)
	}
	defer rows.Close()

	var members []model.RoomMember
	for rows.Next() {
		m, err := scanRoomMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *RoomStore) ListForUser(userID int64) ([]model.Room, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.name, r.password_hash, r.created_by, r.created_at, r.updated_at
		 FROM rooms r
		 JOIN room_members rm ON rm.room_id = r.id
		 WHERE rm.user_id = ?
		 ORDER BY r.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms for user: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *r)
	}
	return rooms, rows.Err()
}
