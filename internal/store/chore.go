package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// --- Chore methods ---

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var lastCompleted sql.NullString
	var createdBy sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.RoomID, &c.Title, &c.Kind, &c.FrequencyDays,
		&lastCompleted, &c.Area, &createdBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastCompleted.Valid && lastCompleted.String != "" {
		d, err := chore.ParseDate(lastCompleted.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_completed %q: %w", lastCompleted.String, err)
		}
		c.LastCompleted = &d
	}
	if createdBy.Valid {
		c.CreatedBy = &createdBy.Int64
	}
	c.AssignedMembers = []int64{}
	return &c, nil
}

const choreCols = `id, room_id, title, kind, frequency_days, last_completed, area, created_by, created_at, updated_at`

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: chore.FormatDate(*t), Valid: true}
}

func insertAssignees(tx *sql.Tx, choreID int64, members []int64) error {
	for i, m := range members {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO chore_assignees (chore_id, user_id, position) VALUES (?, ?, ?)`,
			choreID, m, i,
		); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return nil
}

// Create inserts c with its assigned members. A zero CreatedAt uses the
// current time.
func (s *ChoreStore) Create(c model.Chore) (*model.Chore, error) {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO chores (room_id, title, kind, frequency_days, last_completed, area, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RoomID, c.Title, c.Kind, c.FrequencyDays, nullDate(c.LastCompleted), c.Area,
		nullInt64(c.CreatedBy), createdAt, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := insertAssignees(tx, id, c.AssignedMembers); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}

	members, err := s.assignees(`WHERE chore_id = ?`, id)
	if err != nil {
		return nil, err
	}
	c.AssignedMembers = append(c.AssignedMembers, members[c.ID]...)
	return c, nil
}

// ListByRoom returns every chore in the room ordered by title, with assigned
// members in assignment order.
func (s *ChoreStore) ListByRoom(roomID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE room_id = ? ORDER BY title ASC, id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}

	members, err := s.assignees(`WHERE chore_id IN (SELECT id FROM chores WHERE room_id = ?)`, roomID)
	if err != nil {
		return nil, err
	}
	for i := range chores {
		chores[i].AssignedMembers = append(chores[i].AssignedMembers, members[chores[i].ID]...)
	}
	return chores, nil
}

func (s *ChoreStore) assignees(where string, arg any) (map[int64][]int64, error) {
	rows, err := s.db.Query(
		`SELECT chore_id, user_id FROM chore_assignees `+where+` ORDER BY chore_id, position`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var choreID, userID int64
		if err := rows.Scan(&choreID, &userID); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		out[choreID] = append(out[choreID], userID)
	}
	return out, rows.Err()
}

// Update replaces the editable fields of c and its assigned members.
// LastCompleted is left alone; it only moves through Complete.
func (s *ChoreStore) Update(c model.Chore) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE chores SET title = ?, kind = ?, frequency_days = ?, area = ?, updated_at = ? WHERE id = ?`,
		c.Title, c.Kind, c.FrequencyDays, c.Area, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chore_assignees WHERE chore_id = ?`, c.ID); err != nil {
		return nil, fmt.Errorf("clear assignees: %w", err)
	}
	if err := insertAssignees(tx, c.ID, c.AssignedMembers); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit chore: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanRecord(scanner interface{ Scan(...any) error }) (*model.CompletionRecord, error) {
	var r model.CompletionRecord
	var completedBy sql.NullInt64
	err := scanner.Scan(&r.ID, &r.ChoreID, &completedBy, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	if completedBy.Valid {
		r.CompletedBy = &completedBy.Int64
	}
	return &r, nil
}

const recordCols = `id, chore_id, completed_by, completed_at`

// Complete appends a completion record and advances last_completed to the
// completion day in one transaction. last_completed never moves backwards, so
// a back-dated completion is recorded without regressing the schedule.
func (s *ChoreStore) Complete(choreID, memberID int64, at time.Time) (*model.CompletionRecord, error) {
	at = at.UTC()
	day := chore.FormatDate(at)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO chore_records (chore_id, completed_by, completed_at) VALUES (?, ?, ?)`,
		choreID, memberID, at,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE chores SET last_completed = ?, updated_at = ?
		 WHERE id = ? AND (last_completed IS NULL OR last_completed <= ?)`,
		day, time.Now().UTC(), choreID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("update last completed: %w", err)
	}

	row := tx.QueryRow(`SELECT `+recordCols+` FROM chore_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit completion: %w", err)
	}
	return rec, nil
}

func (s *ChoreStore) listRecords(query string, args ...any) ([]model.CompletionRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var records []model.CompletionRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// ListRecords returns a chore's completion history, oldest first.
func (s *ChoreStore) ListRecords(choreID int64) ([]model.CompletionRecord, error) {
	return s.listRecords(
		`SELECT `+recordCols+` FROM chore_records WHERE chore_id = ? ORDER BY completed_at ASC, id ASC`,
		choreID,
	)
}

// ListRecordsByRoom returns the completion history of every chore in the room.
func (s *ChoreStore) ListRecordsByRoom(roomID int64) ([]model.CompletionRecord, error) {
	return s.listRecords(
		`SELECT r.id, r.chore_id, r.completed_by, r.completed_at
		 FROM chore_records r
		 JOIN chores c ON c.id = r.chore_id
		 WHERE c.room_id = ?
		 ORDER BY r.completed_at ASC, r.id ASC`,
		roomID,
	)
}

// ListRecordsSince returns the room's completions at or after since.
func (s *ChoreStore) ListRecordsSince(roomID int64, since time.Time) ([]model.CompletionRecord, error) {
	return s.listRecords(
		`SELECT r.id, r.chore_id, r.completed_by, r.completed_at
		 FROM chore_records r
		 JOIN chores c ON c.id = r.chore_id
		 WHERE c.room_id = ? AND r.completed_at >= ?
		 ORDER BY r.completed_at ASC, r.id ASC`,
		roomID, since.UTC(),
	)
}
