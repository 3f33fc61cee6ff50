package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/roomie/internal/auth"
	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/database"
	"github.com/dukerupert/roomie/internal/model"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/store"
	"github.com/dukerupert/roomie/internal/websocket"
)

var today = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	authH  *AuthHandler
	roomH  *RoomHandler
	choreH *ChoreHandler

	authSvc *service.AuthService
	users   *store.UserStore
	roomDB  *store.RoomStore

	alice, bob, carol *model.User
	room, otherRoom   *model.Room
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		users:  store.NewUserStore(db),
		roomDB: store.NewRoomStore(db),
	}
	sessions := store.NewSessionStore(db)
	hub := websocket.NewHub(logger)

	env.authSvc = service.NewAuthService(env.users, env.roomDB, sessions, time.Hour, logger)
	roomSvc := service.NewRoomService(env.roomDB, logger)
	choreSvc := service.NewChoreService(store.NewChoreStore(db), env.roomDB, nil, chore.FixedClock(today), logger, service.ChoreOptions{})

	env.authH = NewAuthHandler(env.authSvc, roomSvc, logger)
	env.roomH = NewRoomHandler(roomSvc, env.authSvc, hub, logger)
	env.choreH = NewChoreHandler(choreSvc, hub, logger)

	env.alice = env.mustUser(t, "alice@example.com", "Alice")
	env.bob = env.mustUser(t, "bob@example.com", "Bob")
	env.carol = env.mustUser(t, "carol@example.com", "Carol")

	env.room, err = env.roomDB.Create("101", "x", env.alice.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := env.roomDB.AddMember(env.room.ID, env.bob.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	env.otherRoom, err = env.roomDB.Create("202", "x", env.carol.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return env
}

func (env *testEnv) mustUser(t *testing.T, email, name string) *model.User {
	t.Helper()
	u, err := env.authSvc.Register(context.Background(), email, name, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

// request builds a request carrying the caller's auth context.
func request(method, target, body string, userID, roomID int64) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID, RoomID: roomID})
	return req.WithContext(ctx)
}

func withID(req *http.Request, id int64) *http.Request {
	req.SetPathValue("id", strconv.FormatInt(id, 10))
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}
