package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/roomie/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func weekly() model.Chore {
	return model.Chore{
		ID: 1, RoomID: 1, Title: "Take out trash",
		Kind:          model.ChoreKindPublic,
		FrequencyDays: 7,
		LastCompleted: ptr(date(2024, 1, 1)),
		CreatedAt:     time.Date(2023, 12, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestClassifyOnTime(t *testing.T) {
	if got := Classify(weekly(), nil, date(2024, 1, 8)); got != StatusOnTime {
		t.Errorf("status = %q, want %q", got, StatusOnTime)
	}
}

func TestClassifyOverdue(t *testing.T) {
	if got := Classify(weekly(), nil, date(2024, 1, 10)); got != StatusOverdue {
		t.Errorf("status = %q, want %q", got, StatusOverdue)
	}
}

func TestClassifyFuture(t *testing.T) {
	if got := Classify(weekly(), nil, date(2024, 1, 5)); got != StatusFuture {
		t.Errorf("status = %q, want %q", got, StatusFuture)
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	ref := time.Date(2024, 1, 8, 23, 59, 0, 0, time.UTC)
	if got := Classify(weekly(), nil, ref); got != StatusOnTime {
		t.Errorf("status = %q, want %q", got, StatusOnTime)
	}
}

func TestClassifyDoneSameDay(t *testing.T) {
	c := weekly()
	records := []model.CompletionRecord{
		{ID: 1, ChoreID: c.ID, CompletedBy: ptr(int64(2)), CompletedAt: time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)},
	}

	if got := Classify(c, records, date(2024, 1, 10)); got != StatusDone {
		t.Errorf("status = %q, want %q", got, StatusDone)
	}
	// A record on another day does not cover the reference date.
	if got := Classify(c, records, date(2024, 1, 11)); got != StatusOverdue {
		t.Errorf("status = %q, want %q", got, StatusOverdue)
	}
}

func TestClassifyNeverCompletedIsDue(t *testing.T) {
	c := weekly()
	c.LastCompleted = nil

	if got := Classify(c, nil, date(2024, 3, 3)); got != StatusOnTime {
		t.Errorf("status = %q, want %q", got, StatusOnTime)
	}
	due, ok := DueDate(c, date(2024, 3, 3))
	if !ok || !due.Equal(date(2024, 3, 3)) {
		t.Errorf("due = %v (%v), want 2024-03-03", due, ok)
	}
}

func TestClassifyInvalidFrequency(t *testing.T) {
	for _, freq := range []int{0, -3} {
		c := weekly()
		c.FrequencyDays = freq
		if got := Classify(c, nil, date(2024, 6, 1)); got != StatusFuture {
			t.Errorf("freq %d: status = %q, want %q", freq, got, StatusFuture)
		}
		if _, ok := DueDate(c, date(2024, 6, 1)); ok {
			t.Errorf("freq %d: expected no due date", freq)
		}
	}
}

func TestClassifyProperties(t *testing.T) {
	freqs := []int{1, 2, 3, 7, 14, 30}
	for _, freq := range freqs {
		c := weekly()
		c.FrequencyDays = freq
		due, _ := DueDate(c, date(2024, 1, 1))

		if got := Classify(c, nil, due); got != StatusOnTime {
			t.Errorf("freq %d: status at due = %q, want %q", freq, got, StatusOnTime)
		}
		for offset := 1; offset <= 10; offset++ {
			if got := Classify(c, nil, due.AddDate(0, 0, offset)); got != StatusOverdue {
				t.Errorf("freq %d: status at due+%d = %q, want %q", freq, offset, got, StatusOverdue)
			}
			if got := Classify(c, nil, due.AddDate(0, 0, -offset)); got != StatusFuture {
				t.Errorf("freq %d: status at due-%d = %q, want %q", freq, offset, got, StatusFuture)
			}
		}
	}
}

func TestStatusColor(t *testing.T) {
	tests := map[Status]string{
		StatusOnTime:  "green",
		StatusOverdue: "red",
		StatusFuture:  "grey",
		StatusDone:    "done",
	}
	for status, want := range tests {
		if got := status.Color(); got != want {
			t.Errorf("%s.Color() = %q, want %q", status, got, want)
		}
	}
}

func TestDayKeepsWallClockDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	got := Day(time.Date(2024, 1, 8, 1, 0, 0, 0, loc))
	if !got.Equal(date(2024, 1, 8)) {
		t.Errorf("Day = %v, want 2024-01-08", got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(date(2024, 2, 29)) {
		t.Errorf("got %v, want 2024-02-29", got)
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Error("expected error for malformed date")
	}
}
