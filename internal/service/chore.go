package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/roomie/internal/cache"
	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/model"
)

// ChoreInput carries the editable fields of a chore.
type ChoreInput struct {
	Title           string
	Kind            model.ChoreKind
	FrequencyDays   int
	LastCompleted   *time.Time
	Area            string
	AssignedMembers []int64
}

// DefaultCacheTTL bounds how long a computed view is kept when no ttl is set.
const DefaultCacheTTL = 5 * time.Minute

type ChoreOptions struct {
	CacheTTL        time.Duration
	LookaheadDays   int
	StatsWindowDays int
}

// ChoreService scopes every chore operation to a room and composes the
// repositories with the scheduling engine.
type ChoreService struct {
	chores ChoreRepository
	rooms  RoomRepository
	cache  cache.Store
	clock  chore.Clock
	logger *slog.Logger
	opts   ChoreOptions
}

// NewChoreService wires a ChoreService. A nil store caches in process; a nil
// clock reads the system clock.
func NewChoreService(chores ChoreRepository, rooms RoomRepository, store cache.Store, clock chore.Clock, logger *slog.Logger, opts ChoreOptions) *ChoreService {
	if store == nil {
		store = cache.NewMemory()
	}
	if clock == nil {
		clock = chore.SystemClock{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = chore.DefaultLookaheadDays
	}
	if opts.StatsWindowDays <= 0 {
		opts.StatsWindowDays = chore.DefaultStatsWindowDays
	}
	return &ChoreService{
		chores: chores,
		rooms:  rooms,
		cache:  store,
		clock:  clock,
		logger: logger.With("component", "chore_service"),
		opts:   opts,
	}
}

// Today is the reference date for every view.
func (s *ChoreService) Today() time.Time {
	return s.clock.Today()
}

// load returns the chore if it belongs to roomID.
func (s *ChoreService) load(roomID, id int64) (*model.Chore, error) {
	c, err := s.chores.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if c.RoomID != roomID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *ChoreService) requireMember(roomID, userID int64) error {
	ok, err := s.rooms.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *ChoreService) validate(roomID, actorID int64, in *ChoreInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Area = strings.TrimSpace(in.Area)
	if in.Kind == "" {
		in.Kind = model.ChoreKindPublic
	}

	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if in.FrequencyDays < 1 {
		return fmt.Errorf("%w: frequency_days must be at least 1", ErrInvalid)
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, in.Kind)
	}

	members := make([]int64, 0, len(in.AssignedMembers))
	for _, m := range in.AssignedMembers {
		if !slices.Contains(members, m) {
			members = append(members, m)
		}
	}
	in.AssignedMembers = members

	if in.Kind == model.ChoreKindPrivate {
		if in.Area == "" {
			return fmt.Errorf("%w: area is required for private chores", ErrInvalid)
		}
		if len(in.AssignedMembers) == 0 {
			in.AssignedMembers = []int64{actorID}
		}
		if len(in.AssignedMembers) != 1 || in.AssignedMembers[0] != actorID {
			return fmt.Errorf("%w: private chores are assigned to their owner only", ErrInvalid)
		}
	}

	for _, m := range in.AssignedMembers {
		ok, err := s.rooms.IsMember(roomID, m)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: member %d is not in this room", ErrInvalid, m)
		}
	}
	return nil
}

func (s *ChoreService) invalidate(ctx context.Context, roomID int64) {
	if err := s.cache.Invalidate(ctx, roomID); err != nil {
		s.logger.Warn("invalidate view cache", "room_id", roomID, "error", err)
	}
}

func (s *ChoreService) Create(ctx context.Context, roomID, actorID int64, in ChoreInput) (*model.Chore, error) {
	if err := s.requireMember(roomID, actorID); err != nil {
		return nil, err
	}
	if err := s.validate(roomID, actorID, &in); err != nil {
		return nil, err
	}

	c, err := s.chores.Create(model.Chore{
		RoomID:          roomID,
		Title:           in.Title,
		Kind:            in.Kind,
		FrequencyDays:   in.FrequencyDays,
		LastCompleted:   in.LastCompleted,
		Area:            in.Area,
		AssignedMembers: in.AssignedMembers,
		CreatedBy:       &actorID,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, roomID)
	s.logger.Info("chore created", "room_id", roomID, "chore_id", c.ID, "kind", c.Kind)
	return c, nil
}

// Update edits a chore. Private chores may only be edited by their owner.
func (s *ChoreService) Update(ctx context.Context, roomID, actorID, id int64, in ChoreInput) (*model.Chore, error) {
	existing, err := s.load(roomID, id)
	if err != nil {
		return nil, err
	}
	if !chore.VisibleTo(*existing, actorID) {
		return nil, ErrForbidden
	}
	if err := s.validate(roomID, actorID, &in); err != nil {
		return nil, err
	}

	existing.Title = in.Title
	existing.Kind = in.Kind
	existing.FrequencyDays = in.FrequencyDays
	existing.Area = in.Area
	existing.AssignedMembers = in.AssignedMembers

	c, err := s.chores.Update(*existing)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, roomID)
	return c, nil
}

func (s *ChoreService) Delete(ctx context.Context, roomID, id int64) error {
	if _, err := s.load(roomID, id); err != nil {
		return err
	}
	if err := s.chores.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx, roomID)
	return nil
}

func (s *ChoreService) Get(ctx context.Context, roomID, id int64) (*model.Chore, error) {
	return s.load(roomID, id)
}

func (s *ChoreService) List(ctx context.Context, roomID int64) ([]model.Chore, error) {
	chores, err := s.chores.ListByRoom(roomID)
	if err != nil {
		return nil, err
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	return chores, nil
}

// Records returns a chore's completion history, oldest first.
func (s *ChoreService) Records(ctx context.Context, roomID, id int64) ([]model.CompletionRecord, error) {
	if _, err := s.load(roomID, id); err != nil {
		return nil, err
	}
	records, err := s.chores.ListRecords(id)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.CompletionRecord{}
	}
	return records, nil
}

// Complete records that memberID did the chore at the given instant. The chore
// must belong to roomID and be visible to the member.
func (s *ChoreService) Complete(ctx context.Context, roomID, choreID, memberID int64, at time.Time) (*model.CompletionRecord, error) {
	c, err := s.load(roomID, choreID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(roomID, memberID); err != nil {
		return nil, err
	}
	if !chore.VisibleTo(*c, memberID) {
		return nil, ErrForbidden
	}

	rec, err := s.chores.Complete(choreID, memberID, at.UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, roomID)
	s.logger.Info("chore completed", "room_id", roomID, "chore_id", choreID, "member_id", memberID)
	return rec, nil
}

// states loads every chore in the room with its completion history.
func (s *ChoreService) states(roomID int64) ([]chore.State, error) {
	chores, err := s.chores.ListByRoom(roomID)
	if err != nil {
		return nil, err
	}
	records, err := s.chores.ListRecordsByRoom(roomID)
	if err != nil {
		return nil, err
	}

	byChore := make(map[int64][]model.CompletionRecord, len(chores))
	for _, r := range records {
		byChore[r.ChoreID] = append(byChore[r.ChoreID], r)
	}

	states := make([]chore.State, len(chores))
	for i, c := range chores {
		states[i] = chore.State{Chore: c, Records: byChore[c.ID]}
	}
	return states, nil
}

func visibleStates(states []chore.State, member int64) []chore.State {
	out := make([]chore.State, 0, len(states))
	for _, st := range states {
		if chore.VisibleTo(st.Chore, member) {
			out = append(out, st)
		}
	}
	return out
}

// cachedView serves a room view from the cache, computing and storing it on a
// miss. Cache failures are logged and the view is computed directly.
func cachedView[T any](ctx context.Context, s *ChoreService, roomID int64, view string, parts []any, compute func() (T, error)) (T, error) {
	gen, err := s.cache.Generation(ctx, roomID)
	if err != nil {
		s.logger.Warn("read cache generation", "room_id", roomID, "error", err)
		return compute()
	}
	key := cache.ViewKey(roomID, gen, view, parts...)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("read view cache", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("decode cached view", "key", key, "error", err)
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
			s.logger.Warn("write view cache", "key", key, "error", err)
		}
	}
	return v, nil
}

// Dashboard summarises the chores member can see.
func (s *ChoreService) Dashboard(ctx context.Context, roomID, memberID int64) ([]chore.DashboardItem, error) {
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "dashboard", []any{memberID, chore.FormatDate(today)}, func() ([]chore.DashboardItem, error) {
		states, err := s.states(roomID)
		if err != nil {
			return nil, err
		}
		return chore.Dashboard(visibleStates(states, memberID), today), nil
	})
}

func (s *ChoreService) Todo(ctx context.Context, roomID, memberID int64) (chore.Todo, error) {
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "todo", []any{memberID, chore.FormatDate(today)}, func() (chore.Todo, error) {
		states, err := s.states(roomID)
		if err != nil {
			return chore.Todo{}, err
		}
		return chore.PersonalTodo(states, memberID, today), nil
	})
}

// CalendarWindow is the default calendar range around today.
func (s *ChoreService) CalendarWindow() (time.Time, time.Time) {
	return chore.CalendarWindow(s.clock.Today(), s.opts.LookaheadDays)
}

// Calendar projects the member's visible chores over [start, end). Zero
// bounds fall back to CalendarWindow.
func (s *ChoreService) Calendar(ctx context.Context, roomID, memberID int64, start, end time.Time) ([]chore.CalendarEvent, error) {
	if start.IsZero() || end.IsZero() {
		defStart, defEnd := s.CalendarWindow()
		if start.IsZero() {
			start = defStart
		}
		if end.IsZero() {
			end = defEnd
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end is before start", ErrInvalid)
	}

	today := s.clock.Today()
	parts := []any{memberID, chore.FormatDate(today), chore.FormatDate(start), chore.FormatDate(end)}
	return cachedView(ctx, s, roomID, "calendar", parts, func() ([]chore.CalendarEvent, error) {
		states, err := s.states(roomID)
		if err != nil {
			return nil, err
		}
		return chore.CalendarFeed(states, memberID, today, start, end), nil
	})
}

func (s *ChoreService) Completion(ctx context.Context, roomID int64) (chore.CompletionStats, error) {
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "completion", []any{chore.FormatDate(today)}, func() (chore.CompletionStats, error) {
		states, err := s.states(roomID)
		if err != nil {
			return chore.CompletionStats{}, err
		}
		return chore.Completion(states, today), nil
	})
}

func (s *ChoreService) Counts(ctx context.Context, roomID int64) (chore.StatusCounts, error) {
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "counts", []any{chore.FormatDate(today)}, func() (chore.StatusCounts, error) {
		states, err := s.states(roomID)
		if err != nil {
			return chore.StatusCounts{}, err
		}
		return chore.Counts(states, today), nil
	})
}

// Contributions counts completions per member over the trailing windowDays.
// A non-positive window uses the configured default.
func (s *ChoreService) Contributions(ctx context.Context, roomID int64, windowDays int) ([]chore.Contribution, error) {
	if windowDays <= 0 {
		windowDays = s.opts.StatsWindowDays
	}
	today := s.clock.Today()
	since := today.AddDate(0, 0, -windowDays)

	return cachedView(ctx, s, roomID, "contributions", []any{windowDays, chore.FormatDate(today)}, func() ([]chore.Contribution, error) {
		records, err := s.chores.ListRecordsSince(roomID, since)
		if err != nil {
			return nil, err
		}
		return chore.MemberContributions(records, since), nil
	})
}

// Upcoming counts how often each chore falls due over the next days days. A
// non-positive window uses the configured calendar look-ahead.
func (s *ChoreService) Upcoming(ctx context.Context, roomID int64, days int) ([]chore.Upcoming, error) {
	if days <= 0 {
		days = s.opts.LookaheadDays
	}
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "upcoming", []any{days, chore.FormatDate(today)}, func() ([]chore.Upcoming, error) {
		states, err := s.states(roomID)
		if err != nil {
			return nil, err
		}
		return chore.UpcomingLoad(states, today, days), nil
	})
}

func (s *ChoreService) Roster(ctx context.Context, roomID int64) ([]chore.RosterEntry, error) {
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "roster", []any{chore.FormatDate(today)}, func() ([]chore.RosterEntry, error) {
		states, err := s.states(roomID)
		if err != nil {
			return nil, err
		}
		return chore.DutyRoster(states, today), nil
	})
}

// Grouped arranges the chores member can see for the list page.
func (s *ChoreService) Grouped(ctx context.Context, roomID, memberID int64) (chore.Grouped, error) {
	today := s.clock.Today()
	return cachedView(ctx, s, roomID, "grouped", []any{memberID, chore.FormatDate(today)}, func() (chore.Grouped, error) {
		states, err := s.states(roomID)
		if err != nil {
			return chore.Grouped{}, err
		}
		return chore.GroupList(visibleStates(states, memberID), today), nil
	})
}
