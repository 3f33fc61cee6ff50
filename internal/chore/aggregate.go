package chore

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/dukerupert/roomie/internal/model"
)

// DefaultLookaheadDays is how far past today the calendar projects by default.
const DefaultLookaheadDays = 60

// DefaultStatsWindowDays is the trailing window for member contribution stats.
const DefaultStatsWindowDays = 30

// UnassignedArea groups private chores saved without an area label.
const UnassignedArea = "Unassigned area"

// State is a chore together with its completion history.
type State struct {
	Chore   model.Chore
	Records []model.CompletionRecord
}

// Item is a chore as it appears on a personal to-do list.
type Item struct {
	ChoreID int64           `json:"chore_id"`
	Title   string          `json:"title"`
	Kind    model.ChoreKind `json:"kind"`
	Area    string          `json:"area,omitempty"`
	Status  Status          `json:"status"`
	Color   string          `json:"color"`
	DueDate string          `json:"due_date,omitempty"`
	due     time.Time
}

type Todo struct {
	Today   []Item `json:"today"`
	Overdue []Item `json:"overdue"`
}

type CalendarEvent struct {
	ChoreID  int64  `json:"chore_id"`
	Date     string `json:"date"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
	Color    string `json:"color"`
	IsPublic bool   `json:"is_public"`
}

type CompletionStats struct {
	Percentage int `json:"percentage"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	Total      int `json:"total"`
}

type StatusCounts struct {
	Overdue int `json:"overdue"`
	OnTime  int `json:"on_time"`
	Future  int `json:"future"`
	Done    int `json:"done"`
	Total   int `json:"total"`
}

type Contribution struct {
	MemberID int64 `json:"member_id"`
	Count    int   `json:"count"`
}

// Upcoming is how often a chore falls due over a look-ahead window.
type Upcoming struct {
	ChoreID int64  `json:"chore_id"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
}

type RosterEntry struct {
	ChoreID  int64  `json:"chore_id"`
	Title    string `json:"title"`
	MemberID int64  `json:"member_id"`
}

type DashboardItem struct {
	ChoreID        int64           `json:"chore_id"`
	Title          string          `json:"title"`
	Kind           model.ChoreKind `json:"kind"`
	Status         Status          `json:"status"`
	Color          string          `json:"color"`
	DueDate        string          `json:"due_date,omitempty"`
	CompletedToday bool            `json:"completed_today"`
	Overdue        bool            `json:"overdue"`
}

type ListItem struct {
	ChoreID         int64   `json:"chore_id"`
	Title           string  `json:"title"`
	FrequencyDays   int     `json:"frequency_days"`
	LastCompleted   string  `json:"last_completed,omitempty"`
	DaysAgo         *int    `json:"days_ago,omitempty"`
	AssignedMembers []int64 `json:"assigned_members"`
	Status          Status  `json:"status"`
	Color           string  `json:"color"`
}

type Grouped struct {
	Public        []ListItem            `json:"public"`
	PrivateByArea map[string][]ListItem `json:"private_by_area"`
}

// CalendarWindow returns the default calendar range: the first day of today's
// month through lookahead days past today.
func CalendarWindow(today time.Time, lookahead int) (time.Time, time.Time) {
	today = Day(today)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, today.AddDate(0, 0, lookahead)
}

func newItem(s State, status Status, today time.Time) Item {
	it := Item{
		ChoreID: s.Chore.ID,
		Title:   s.Chore.Title,
		Kind:    s.Chore.Kind,
		Area:    s.Chore.Area,
		Status:  status,
		Color:   status.Color(),
	}
	if due, ok := DueDate(s.Chore, today); ok {
		it.due = due
		it.DueDate = FormatDate(due)
	}
	return it
}

func sortItems(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
}

// PersonalTodo lists the chores member is on duty for today, split into those
// due today and those overdue. Public chores without members appear on no list.
func PersonalTodo(states []State, member int64, today time.Time) Todo {
	today = Day(today)
	todo := Todo{Today: []Item{}, Overdue: []Item{}}

	for _, s := range states {
		if !VisibleTo(s.Chore, member) || !OnDuty(s.Chore, member, today) {
			continue
		}
		switch status := Classify(s.Chore, s.Records, today); status {
		case StatusOnTime:
			todo.Today = append(todo.Today, newItem(s, status, today))
		case StatusOverdue:
			todo.Overdue = append(todo.Overdue, newItem(s, status, today))
		}
	}

	sortItems(todo.Today)
	sortItems(todo.Overdue)
	return todo
}

// occurrenceStatus classifies a projected due date d as seen from today.
// Occurrences on or before the last completion are settled and report Done.
func occurrenceStatus(s State, d, today time.Time) Status {
	if CompletedOn(s.Records, d) {
		return StatusDone
	}
	if s.Chore.LastCompleted != nil && !d.After(Day(*s.Chore.LastCompleted)) {
		return StatusDone
	}
	switch d.Compare(today) {
	case 1:
		return StatusFuture
	case 0:
		return StatusOnTime
	default:
		return StatusOverdue
	}
}

// CalendarFeed projects every chore visible to member over [start, end) and
// treats each occurrence as its own due date relative to today. Settled
// occurrences are left out.
func CalendarFeed(states []State, member int64, today, start, end time.Time) []CalendarEvent {
	today = Day(today)
	events := []CalendarEvent{}

	for _, s := range states {
		if !VisibleTo(s.Chore, member) {
			continue
		}
		for d := range Project(s.Chore, start, end) {
			status := occurrenceStatus(s, d, today)
			if status == StatusDone {
				continue
			}
			events = append(events, CalendarEvent{
				ChoreID:  s.Chore.ID,
				Date:     FormatDate(d),
				Title:    s.Chore.Title,
				Status:   status,
				Color:    status.Color(),
				IsPublic: s.Chore.IsPublic(),
			})
		}
	}

	slices.SortStableFunc(events, func(a, b CalendarEvent) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return events
}

// Completion reports how much of the room is on track today. A chore counts as
// completed when it is done or not yet due.
func Completion(states []State, today time.Time) CompletionStats {
	total := len(states)
	if total == 0 {
		return CompletionStats{}
	}

	completed := 0
	for _, s := range states {
		switch Classify(s.Chore, s.Records, today) {
		case StatusDone, StatusFuture:
			completed++
		}
	}

	return CompletionStats{
		Percentage: completed * 100 / total,
		Completed:  completed,
		Pending:    total - completed,
		Total:      total,
	}
}

// Counts tallies chores by status on today.
func Counts(states []State, today time.Time) StatusCounts {
	var c StatusCounts
	for _, s := range states {
		switch Classify(s.Chore, s.Records, today) {
		case StatusOverdue:
			c.Overdue++
		case StatusOnTime:
			c.OnTime++
		case StatusFuture:
			c.Future++
		case StatusDone:
			c.Done++
		}
		c.Total++
	}
	return c
}

// MemberContributions counts completion records per member at or after since,
// highest count first. Records whose member was removed are skipped.
func MemberContributions(records []model.CompletionRecord, since time.Time) []Contribution {
	counts := make(map[int64]int)
	for _, r := range records {
		if r.CompletedBy == nil || r.CompletedAt.Before(since) {
			continue
		}
		counts[*r.CompletedBy]++
	}

	out := make([]Contribution, 0, len(counts))
	for id, n := range counts {
		out = append(out, Contribution{MemberID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// UpcomingLoad counts each chore's occurrences in [today, today+days), busiest
// first. Chores with no occurrence in the window are left out.
func UpcomingLoad(states []State, today time.Time, days int) []Upcoming {
	out := []Upcoming{}
	for _, s := range states {
		n := CountOccurrences(s.Chore, today, days)
		if n == 0 {
			continue
		}
		out = append(out, Upcoming{ChoreID: s.Chore.ID, Title: s.Chore.Title, Count: n})
	}
	slices.SortStableFunc(out, func(a, b Upcoming) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return out
}

// DutyRoster lists today's duty member for every public chore that has one.
func DutyRoster(states []State, today time.Time) []RosterEntry {
	roster := []RosterEntry{}
	for _, s := range states {
		if !s.Chore.IsPublic() {
			continue
		}
		m, ok := DutyMember(s.Chore, today)
		if !ok {
			continue
		}
		roster = append(roster, RosterEntry{ChoreID: s.Chore.ID, Title: s.Chore.Title, MemberID: m})
	}
	slices.SortStableFunc(roster, func(a, b RosterEntry) int {
		return cmp.Compare(a.Title, b.Title)
	})
	return roster
}

// Dashboard summarises every chore in the room on today.
func Dashboard(states []State, today time.Time) []DashboardItem {
	today = Day(today)
	type keyed struct {
		item DashboardItem
		due  time.Time
		has  bool
	}
	rows := make([]keyed, 0, len(states))

	for _, s := range states {
		status := Classify(s.Chore, s.Records, today)
		k := keyed{item: DashboardItem{
			ChoreID:        s.Chore.ID,
			Title:          s.Chore.Title,
			Kind:           s.Chore.Kind,
			Status:         status,
			Color:          status.Color(),
			CompletedToday: CompletedOn(s.Records, today),
			Overdue:        status == StatusOverdue,
		}}
		if due, ok := DueDate(s.Chore, today); ok {
			k.item.DueDate = FormatDate(due)
			k.due, k.has = due, true
		}
		rows = append(rows, k)
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		if a.has != b.has {
			if a.has {
				return -1
			}
			return 1
		}
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.item.Title, b.item.Title)
	})

	out := make([]DashboardItem, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out
}

// lastRecord returns the most recent completion in records.
func lastRecord(records []model.CompletionRecord) *model.CompletionRecord {
	var last *model.CompletionRecord
	for i := range records {
		if last == nil || records[i].CompletedAt.After(last.CompletedAt) {
			last = &records[i]
		}
	}
	return last
}

// GroupList arranges the room's chores for the list page: public chores first,
// private chores grouped by area. Items are ordered by title.
func GroupList(states []State, today time.Time) Grouped {
	today = Day(today)
	g := Grouped{Public: []ListItem{}, PrivateByArea: map[string][]ListItem{}}

	sorted := slices.Clone(states)
	slices.SortStableFunc(sorted, func(a, b State) int {
		return cmp.Compare(a.Chore.Title, b.Chore.Title)
	})

	for _, s := range sorted {
		status := Classify(s.Chore, s.Records, today)
		item := ListItem{
			ChoreID:         s.Chore.ID,
			Title:           s.Chore.Title,
			FrequencyDays:   s.Chore.FrequencyDays,
			AssignedMembers: s.Chore.AssignedMembers,
			Status:          status,
			Color:           status.Color(),
		}
		if item.AssignedMembers == nil {
			item.AssignedMembers = []int64{}
		}
		if last := lastRecord(s.Records); last != nil {
			days := daysBetween(last.CompletedAt, today)
			item.LastCompleted = FormatDate(last.CompletedAt)
			item.DaysAgo = &days
		}

		if s.Chore.IsPublic() {
			g.Public = append(g.Public, item)
			continue
		}
		area := s.Chore.Area
		if area == "" {
			area = UnassignedArea
		}
		g.PrivateByArea[area] = append(g.PrivateByArea[area], item)
	}
	return g
}
