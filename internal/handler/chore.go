package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/roomie/internal/auth"
	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/model"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/websocket"
)

type ChoreHandler struct {
	chores *service.ChoreService
	out    broadcaster
	logger *slog.Logger
}

func NewChoreHandler(cs *service.ChoreService, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, out: broadcaster{hub: hub}, logger: logger}
}

type choreRequest struct {
	Title           string          `json:"title"`
	Kind            model.ChoreKind `json:"kind"`
	FrequencyDays   int             `json:"frequency_days"`
	LastCompleted   string          `json:"last_completed"`
	Area            string          `json:"area"`
	AssignedMembers []int64         `json:"assigned_members"`
}

func (req choreRequest) input() (service.ChoreInput, error) {
	in := service.ChoreInput{
		Title:           req.Title,
		Kind:            req.Kind,
		FrequencyDays:   req.FrequencyDays,
		Area:            req.Area,
		AssignedMembers: req.AssignedMembers,
	}
	if req.LastCompleted != "" {
		d, err := chore.ParseDate(req.LastCompleted)
		if err != nil {
			return in, err
		}
		in.LastCompleted = &d
	}
	return in, nil
}

type completeRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "last_completed must be YYYY-MM-DD")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	c, err := h.chores.Create(r.Context(), ac.RoomID, ac.UserID, in)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create chore")
		return
	}

	h.out.broadcast(ac.RoomID, websocket.NewMessage("chore", "created", c.ID, nil))
	writeJSON(w, http.StatusCreated, c)
}

// List returns the room's chores visible to the caller.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	chores, err := h.chores.List(r.Context(), ac.RoomID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list chores")
		return
	}

	visible := make([]model.Chore, 0, len(chores))
	for _, c := range chores {
		if chore.VisibleTo(c, ac.UserID) {
			visible = append(visible, c)
		}
	}
	writeJSON(w, http.StatusOK, visible)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	c, err := h.chores.Get(r.Context(), ac.RoomID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get chore")
		return
	}
	if !chore.VisibleTo(*c, ac.UserID) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "last_completed must be YYYY-MM-DD")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	c, err := h.chores.Update(r.Context(), ac.RoomID, ac.UserID, id, in)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update chore")
		return
	}

	h.out.broadcast(ac.RoomID, websocket.NewMessage("chore", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.chores.Delete(r.Context(), ac.RoomID, id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete chore")
		return
	}

	h.out.broadcast(ac.RoomID, websocket.NewMessage("chore", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Complete marks the chore done by the caller. The optional completed_at
// back-dates the completion; it defaults to now.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	at := time.Now()
	if req.CompletedAt != nil {
		at = *req.CompletedAt
	}

	ac, _ := auth.FromContext(r.Context())
	rec, err := h.chores.Complete(r.Context(), ac.RoomID, id, ac.UserID, at)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to complete chore")
		return
	}

	h.out.broadcast(ac.RoomID, websocket.NewMessage("chore", "completed", id, map[string]any{
		"member_id": ac.UserID,
	}))
	writeJSON(w, http.StatusCreated, rec)
}

func (h *ChoreHandler) Records(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	records, err := h.chores.Records(r.Context(), auth.RoomID(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ChoreHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	items, err := h.chores.Dashboard(r.Context(), ac.RoomID, ac.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ChoreHandler) Todo(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	todo, err := h.chores.Todo(r.Context(), ac.RoomID, ac.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load todo list")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// Calendar projects the caller's chores over [start, end). Either bound may be
// omitted to use the default window.
func (h *ChoreHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	var start, end time.Time
	if s := r.URL.Query().Get("start"); s != "" {
		d, err := chore.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = d
	}
	if s := r.URL.Query().Get("end"); s != "" {
		d, err := chore.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		end = d
	}

	ac, _ := auth.FromContext(r.Context())
	events, err := h.chores.Calendar(r.Context(), ac.RoomID, ac.UserID, start, end)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load calendar")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *ChoreHandler) Completion(w http.ResponseWriter, r *http.Request) {
	stats, err := h.chores.Completion(r.Context(), auth.RoomID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load completion")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ChoreHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.chores.Counts(r.Context(), auth.RoomID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// daysParam reads an optional positive ?days value; 0 means unset.
func daysParam(r *http.Request) (int, bool) {
	s := r.URL.Query().Get("days")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (h *ChoreHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	contributions, err := h.chores.Contributions(r.Context(), auth.RoomID(r.Context()), days)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load contributions")
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

func (h *ChoreHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	upcoming, err := h.chores.Upcoming(r.Context(), auth.RoomID(r.Context()), days)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load upcoming chores")
		return
	}
	writeJSON(w, http.StatusOK, upcoming)
}

func (h *ChoreHandler) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.chores.Roster(r.Context(), auth.RoomID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load roster")
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *ChoreHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	g, err := h.chores.Grouped(r.Context(), ac.RoomID, ac.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load chore list")
		return
	}
	writeJSON(w, http.StatusOK, g)
}
