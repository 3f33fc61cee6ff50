package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/roomie/internal/auth"
	"github.com/dukerupert/roomie/internal/middleware"
	"github.com/dukerupert/roomie/internal/model"
	"github.com/dukerupert/roomie/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	rooms  *service.RoomService
	logger *slog.Logger
}

func NewAuthHandler(as *service.AuthService, rs *service.RoomService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: as, rooms: rs, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   *model.User `json:"user"`
	RoomID *int64      `json:"room_id"`
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	u, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sess, u, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to log in")
		return
	}

	setSessionCookie(w, r, sess)
	writeJSON(w, http.StatusOK, loginResponse{User: u, RoomID: sess.RoomID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok && ac.Token != "" {
		if err := h.auth.Logout(r.Context(), ac.Token); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
