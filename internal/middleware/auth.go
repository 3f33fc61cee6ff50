package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/roomie/internal/auth"
	"github.com/dukerupert/roomie/internal/model"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "roomie_session"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

type MembershipChecker interface {
	RequireMember(ctx context.Context, roomID, userID int64) error
}

// RequireAuth validates the session cookie and populates AuthContext. A
// session pointing at a room the user has since left is treated as having no
// room.
func RequireAuth(sessions Authenticator, rooms MembershipChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessions.Authenticate(r.Context(), cookie.Value)
			if err != nil || sess == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
				Token:     sess.Token,
			}
			if sess.RoomID != nil {
				if err := rooms.RequireMember(r.Context(), *sess.RoomID, sess.UserID); err == nil {
					ac.RoomID = *sess.RoomID
				}
			}

			reportCaller(r.Context(), ac)
			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoom rejects requests from users that have not selected a room.
func RequireRoom(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.HasRoom(r.Context()) {
			writeError(w, http.StatusForbidden, "join or select a room first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type callerSlotKey struct{}

func withCallerSlot(ctx context.Context, slot *auth.AuthContext) context.Context {
	return context.WithValue(ctx, callerSlotKey{}, slot)
}

func reportCaller(ctx context.Context, ac auth.AuthContext) {
	if slot, ok := ctx.Value(callerSlotKey{}).(*auth.AuthContext); ok {
		*slot = ac
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
