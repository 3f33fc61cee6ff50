package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/roomie/internal/auth"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/websocket"
)

type RoomHandler struct {
	rooms  *service.RoomService
	auth   *service.AuthService
	out    broadcaster
	logger *slog.Logger
}

func NewRoomHandler(rs *service.RoomService, as *service.AuthService, hub *websocket.Hub, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{rooms: rs, auth: as, out: broadcaster{hub: hub}, logger: logger}
}

type roomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type currentRoomResponse struct {
	RoomID int64 `json:"room_id"`
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	rooms, err := h.rooms.ListForUser(r.Context(), ac.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":   rooms,
		"current": ac.RoomID,
	})
}

// Create opens a room and makes it the session's current room.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	room, err := h.rooms.Create(r.Context(), ac.UserID, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create room")
		return
	}
	if err := h.auth.SwitchRoom(r.Context(), ac.Token, ac.UserID, room.ID); err != nil {
		writeServiceError(w, h.logger, err, "failed to select room")
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// Join adds the caller to a room by name and password and selects it.
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	room, err := h.rooms.Join(r.Context(), ac.UserID, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to join room")
		return
	}
	if err := h.auth.SwitchRoom(r.Context(), ac.Token, ac.UserID, room.ID); err != nil {
		writeServiceError(w, h.logger, err, "failed to select room")
		return
	}

	h.out.broadcast(room.ID, websocket.NewMessage("member", "joined", ac.UserID, nil))
	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandler) Switch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.auth.SwitchRoom(r.Context(), ac.Token, ac.UserID, id); err != nil {
		writeServiceError(w, h.logger, err, "failed to switch room")
		return
	}

	writeJSON(w, http.StatusOK, currentRoomResponse{RoomID: id})
}

func (h *RoomHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.rooms.Members(r.Context(), auth.RoomID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}
