package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/roomie/internal/auth"
	"github.com/dukerupert/roomie/internal/database"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/store"
)

type authFixture struct {
	auth     *service.AuthService
	rooms    *service.RoomService
	users    *store.UserStore
	roomDB   *store.RoomStore
	sessions *store.SessionStore
}

func setupAuthMiddlewareDB(t *testing.T) *authFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	f := &authFixture{
		users:    store.NewUserStore(db),
		roomDB:   store.NewRoomStore(db),
		sessions: store.NewSessionStore(db),
	}
	f.auth = service.NewAuthService(f.users, f.roomDB, f.sessions, time.Hour, logger)
	f.rooms = service.NewRoomService(f.roomDB, logger)
	return f
}

func (f *authFixture) handler(t *testing.T, next http.HandlerFunc) http.Handler {
	return RequireAuth(f.auth, f.rooms)(next)
}

func TestRequireAuthNoCookie(t *testing.T) {
	f := setupAuthMiddlewareDB(t)

	handler := f.handler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %q, want JSON error", rec.Body.String())
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	f := setupAuthMiddlewareDB(t)

	handler := f.handler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	f := setupAuthMiddlewareDB(t)

	u, _ := f.users.Create("alice@example.com", "Alice", "x")
	room, _ := f.roomDB.Create("101", "x", u.ID)
	sess, _ := f.sessions.Create(u.ID, &room.ID, time.Hour)

	var gotAC auth.AuthContext
	handler := f.handler(t, func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", gotAC.UserID, u.ID)
	}
	if gotAC.RoomID != room.ID {
		t.Errorf("RoomID = %d, want %d", gotAC.RoomID, room.ID)
	}
	if gotAC.Token != sess.Token {
		t.Errorf("Token = %q, want %q", gotAC.Token, sess.Token)
	}
}

func TestRequireAuthDropsRoomAfterLeaving(t *testing.T) {
	f := setupAuthMiddlewareDB(t)

	u, _ := f.users.Create("alice@example.com", "Alice", "x")
	room, _ := f.roomDB.Create("101", "x", u.ID)
	sess, _ := f.sessions.Create(u.ID, &room.ID, time.Hour)
	f.roomDB.RemoveMember(room.ID, u.ID)

	var roomID int64 = -1
	handler := f.handler(t, func(w http.ResponseWriter, r *http.Request) {
		roomID = auth.RoomID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if roomID != 0 {
		t.Errorf("RoomID = %d, want 0", roomID)
	}
}

func TestRequireRoom(t *testing.T) {
	handler := RequireRoom(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: 1})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	ctx = auth.WithAuth(context.Background(), auth.AuthContext{UserID: 1, RoomID: 2})
	req = httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequestLoggerRecordsCaller(t *testing.T) {
	f := setupAuthMiddlewareDB(t)
	u, _ := f.users.Create("alice@example.com", "Alice", "x")
	sess, _ := f.sessions.Create(u.ID, nil, time.Hour)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogger(logger)(f.handler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("POST", "/api/chores", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"method=POST", "path=/api/chores", "status=201", "bytes=2", "user_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}
