package chore

import "time"

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Clock supplies the current calendar day.
type Clock interface {
	Today() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Today() time.Time {
	return Day(time.Now().UTC())
}

// FixedClock always reports the same day. Used by tests and the CLI --date flag.
type FixedClock time.Time

func (c FixedClock) Today() time.Time {
	return Day(time.Time(c))
}

// Day truncates t to its calendar day. The wall-clock year, month and day of t
// are kept and the result is expressed as midnight UTC so day arithmetic is exact.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a Day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// daysBetween returns the number of whole days from a to b (negative if b is earlier).
func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// floorDiv divides rounding toward negative infinity. b must be positive.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
