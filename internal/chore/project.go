package chore

import (
	"iter"
	"slices"
	"time"

	"github.com/dukerupert/roomie/internal/model"
)

// Project yields every theoretical due date of c in [start, end), ascending.
// The cycle is anchored on the chore's next due date (or start if it was never
// completed) and aligned onto the window first, so an occurrence that lands
// inside the window is never skipped because the anchor lies outside it.
// The sequence is pure and may be ranged over any number of times.
func Project(c model.Chore, start, end time.Time) iter.Seq[time.Time] {
	start, end = Day(start), Day(end)
	freq := c.FrequencyDays

	return func(yield func(time.Time) bool) {
		if freq <= 0 || !start.Before(end) {
			return
		}

		base := start
		if c.LastCompleted != nil {
			base = Day(*c.LastCompleted).AddDate(0, 0, freq)
		}

		for d := align(base, start, freq); d.Before(end); d = d.AddDate(0, 0, freq) {
			if !yield(d) {
				return
			}
		}
	}
}

// align moves base by whole cycles to the earliest occurrence at or after start.
func align(base, start time.Time, freq int) time.Time {
	diff := daysBetween(start, base)
	if diff >= 0 {
		return base.AddDate(0, 0, -(diff/freq)*freq)
	}
	steps := (-diff + freq - 1) / freq
	return base.AddDate(0, 0, steps*freq)
}

// Occurrences collects Project into a slice.
func Occurrences(c model.Chore, start, end time.Time) []time.Time {
	return slices.Collect(Project(c, start, end))
}

// CountOccurrences reports how many times c falls due in the next days days,
// counting from today.
func CountOccurrences(c model.Chore, today time.Time, days int) int {
	return len(Occurrences(c, today, Day(today).AddDate(0, 0, days)))
}
