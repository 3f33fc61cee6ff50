package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/roomie/internal/cache"
	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/database"
	"github.com/dukerupert/roomie/internal/model"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/store"
)

var today = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ctx    context.Context
	chores *service.ChoreService
	rooms  *service.RoomService
	auth   *service.AuthService
	cache  *cache.Memory

	users   *store.UserStore
	roomDB  *store.RoomStore
	choreDB *store.ChoreStore

	alice, bob, carol *model.User
	room, otherRoom   *model.Room
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setup builds a room "101" with alice and bob, and a room "202" owned by
// carol.
func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := discardLogger()
	f := &fixture{
		ctx:     context.Background(),
		users:   store.NewUserStore(db),
		roomDB:  store.NewRoomStore(db),
		choreDB: store.NewChoreStore(db),
		cache:   cache.NewMemory(),
	}
	sessions := store.NewSessionStore(db)

	f.chores = service.NewChoreService(f.choreDB, f.roomDB, f.cache, chore.FixedClock(today), logger, service.ChoreOptions{CacheTTL: time.Minute})
	f.rooms = service.NewRoomService(f.roomDB, logger)
	f.auth = service.NewAuthService(f.users, f.roomDB, sessions, time.Hour, logger)

	f.alice, err = f.users.Create("alice@example.com", "Alice", "x")
	require.NoError(t, err)
	f.bob, err = f.users.Create("bob@example.com", "Bob", "x")
	require.NoError(t, err)
	f.carol, err = f.users.Create("carol@example.com", "Carol", "x")
	require.NoError(t, err)

	f.room, err = f.roomDB.Create("101", "x", f.alice.ID)
	require.NoError(t, err)
	require.NoError(t, f.roomDB.AddMember(f.room.ID, f.bob.ID))
	f.otherRoom, err = f.roomDB.Create("202", "x", f.carol.ID)
	require.NoError(t, err)
	return f
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
