package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/roomie/internal/cache"
	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/config"
	"github.com/dukerupert/roomie/internal/handler"
	"github.com/dukerupert/roomie/internal/middleware"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/store"
	ws "github.com/dukerupert/roomie/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	roomH        *handler.RoomHandler
	choreH       *handler.ChoreHandler
	authSvc      *service.AuthService
	roomSvc      *service.RoomService
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

// New wires stores, services and handlers over db. viewCache may be nil, in
// which case views are cached in process. clock may be nil to use the system
// clock.
func New(db *sql.DB, cfg config.Config, viewCache cache.Store, clock chore.Clock, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	roomStore := store.NewRoomStore(db)
	sessionStore := store.NewSessionStore(db)
	choreStore := store.NewChoreStore(db)

	authSvc := service.NewAuthService(userStore, roomStore, sessionStore, cfg.SessionTTL, logger)
	roomSvc := service.NewRoomService(roomStore, logger)
	choreSvc := service.NewChoreService(choreStore, roomStore, viewCache, clock, logger, service.ChoreOptions{
		CacheTTL:        cfg.CacheTTL,
		LookaheadDays:   cfg.CalendarLookaheadDays,
		StatsWindowDays: cfg.StatsWindowDays,
	})

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(authSvc, roomSvc, logger.With("component", "auth")),
		roomH:        handler.NewRoomHandler(roomSvc, authSvc, hub, logger.With("component", "room")),
		choreH:       handler.NewChoreHandler(choreSvc, hub, logger.With("component", "chore")),
		authSvc:      authSvc,
		roomSvc:      roomSvc,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.authSvc, s.roomSvc)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP, authRateLimit, authRateWindow)
	return rl(h).ServeHTTP
}

// inRoom guards routes that act on the caller's current room.
func inRoom(h http.HandlerFunc) http.Handler {
	return middleware.RequireRoom(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Room routes
	mux.HandleFunc("GET /api/rooms", s.roomH.List)
	mux.HandleFunc("POST /api/rooms", s.roomH.Create)
	mux.HandleFunc("POST /api/rooms/join", s.rateLimitedHandler(s.roomH.Join))
	mux.HandleFunc("POST /api/rooms/{id}/switch", s.roomH.Switch)
	mux.Handle("GET /api/rooms/current/members", inRoom(s.roomH.Members))

	// Chore views
	mux.Handle("GET /api/chores/dashboard", inRoom(s.choreH.Dashboard))
	mux.Handle("GET /api/chores/todo", inRoom(s.choreH.Todo))
	mux.Handle("GET /api/chores/calendar", inRoom(s.choreH.Calendar))
	mux.Handle("GET /api/chores/completion", inRoom(s.choreH.Completion))
	mux.Handle("GET /api/chores/stats", inRoom(s.choreH.Stats))
	mux.Handle("GET /api/chores/contributions", inRoom(s.choreH.Contributions))
	mux.Handle("GET /api/chores/upcoming", inRoom(s.choreH.Upcoming))
	mux.Handle("GET /api/chores/roster", inRoom(s.choreH.Roster))
	mux.Handle("GET /api/chores/grouped", inRoom(s.choreH.Grouped))

	// Chore API routes
	mux.Handle("POST /api/chores", inRoom(s.choreH.Create))
	mux.Handle("GET /api/chores", inRoom(s.choreH.List))
	mux.Handle("GET /api/chores/{id}", inRoom(s.choreH.Get))
	mux.Handle("PUT /api/chores/{id}", inRoom(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", inRoom(s.choreH.Delete))
	mux.Handle("POST /api/chores/{id}/complete", inRoom(s.choreH.Complete))
	mux.Handle("GET /api/chores/{id}/records", inRoom(s.choreH.Records))

	// WebSocket
	mux.Handle("GET /ws", inRoom(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))
}
