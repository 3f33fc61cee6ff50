package chore

import (
	"time"

	"github.com/dukerupert/roomie/internal/model"
)

type Status string

const (
	StatusDone    Status = "done"
	StatusOnTime  Status = "on_time"
	StatusOverdue Status = "overdue"
	StatusFuture  Status = "future"
)

// Color returns the tag presentation code renders for the status.
func (s Status) Color() string {
	switch s {
	case StatusOnTime:
		return "green"
	case StatusOverdue:
		return "red"
	case StatusDone:
		return "done"
	default:
		return "grey"
	}
}

// DueDate returns the day the chore's next occurrence is owed, measured from ref.
// A chore that was never completed is due on ref itself. The second return value
// is false when the chore has no usable frequency and therefore no due date.
func DueDate(c model.Chore, ref time.Time) (time.Time, bool) {
	if c.FrequencyDays <= 0 {
		return time.Time{}, false
	}
	if c.LastCompleted == nil {
		return Day(ref), true
	}
	return Day(*c.LastCompleted).AddDate(0, 0, c.FrequencyDays), true
}

// CompletedOn reports whether any record falls on the given day.
func CompletedOn(records []model.CompletionRecord, day time.Time) bool {
	day = Day(day)
	for _, r := range records {
		if Day(r.CompletedAt).Equal(day) {
			return true
		}
	}
	return false
}

// Classify determines the status of a chore on ref. records must be the chore's
// own completion history.
func Classify(c model.Chore, records []model.CompletionRecord, ref time.Time) Status {
	ref = Day(ref)

	if CompletedOn(records, ref) {
		return StatusDone
	}

	due, ok := DueDate(c, ref)
	if !ok {
		return StatusFuture
	}

	switch {
	case ref.Before(due):
		return StatusFuture
	case ref.Equal(due):
		return StatusOnTime
	default:
		return StatusOverdue
	}
}
