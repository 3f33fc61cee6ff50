package chore

import (
	"slices"
	"time"

	"github.com/dukerupert/roomie/internal/model"
)

// DutyMember returns the member responsible for c on ref.
//
// Private chores belong to their single assignee. Public chores rotate through
// the assigned members ordered by id, advancing once every FrequencyDays since
// the chore was created. Completions do not move the rotation.
func DutyMember(c model.Chore, ref time.Time) (int64, bool) {
	if len(c.AssignedMembers) == 0 {
		return 0, false
	}
	if c.Kind == model.ChoreKindPrivate {
		return c.AssignedMembers[0], true
	}

	members := slices.Clone(c.AssignedMembers)
	slices.Sort(members)
	members = slices.Compact(members)

	cycle := 0
	if c.FrequencyDays > 0 {
		cycle = floorDiv(daysBetween(c.CreatedAt, ref), c.FrequencyDays)
	}

	n := len(members)
	return members[((cycle%n)+n)%n], true
}

// OnDuty reports whether member is the duty member for c on ref.
func OnDuty(c model.Chore, member int64, ref time.Time) bool {
	m, ok := DutyMember(c, ref)
	return ok && m == member
}

// VisibleTo reports whether member may see c: every public chore, and private
// chores assigned to them.
func VisibleTo(c model.Chore, member int64) bool {
	if c.IsPublic() {
		return true
	}
	return slices.Contains(c.AssignedMembers, member)
}
