package model

import "time"

type ChoreKind string

const (
	ChoreKindPublic  ChoreKind = "public"
	ChoreKindPrivate ChoreKind = "private"
)

// Valid reports whether k is a known chore kind.
func (k ChoreKind) Valid() bool {
	return k == ChoreKindPublic || k == ChoreKindPrivate
}

type Chore struct {
	ID              int64      `json:"id"`
	RoomID          int64      `json:"room_id"`
	Title           string     `json:"title"`
	Kind            ChoreKind  `json:"kind"`
	FrequencyDays   int        `json:"frequency_days"`
	LastCompleted   *time.Time `json:"last_completed"`
	Area            string     `json:"area"`
	AssignedMembers []int64    `json:"assigned_members"`
	CreatedBy       *int64     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (c Chore) IsPublic() bool {
	return c.Kind != ChoreKindPrivate
}

type CompletionRecord struct {
	ID          int64     `json:"id"`
	ChoreID     int64     `json:"chore_id"`
	CompletedBy *int64    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}
