package admin

import (
	"encoding/json"
	"net/http"

	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/registry"
)

// RoomView represents one room in status responses
type RoomView struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Host    string   `json:"host"`
	Players []string `json:"players"`
	Status  string   `json:"status"`
}

func roomViewFromModel(room model.Room) RoomView {
	return RoomView{
		ID:      int(room.ID),
		Name:    room.Name,
		Host:    room.Host,
		Players: room.Players,
		Status:  string(room.Status),
	}
}

// UserView represents one live session in status responses
type UserView struct {
	Username string `json:"username"`
	Presence string `json:"presence"`
}

type statusHandler struct {
	sessions *registry.SessionRegistry
	rooms    *registry.RoomRegistry
}

func newStatusHandler(sessions *registry.SessionRegistry, rooms *registry.RoomRegistry) *statusHandler {
	return &statusHandler{sessions: sessions, rooms: rooms}
}

// Rooms handles GET /status/rooms
func (h *statusHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.rooms.List()
	out := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomViewFromModel(room))
	}
	writeJSON(w, map[string]any{"rooms": out})
}

// Users handles GET /status/users
func (h *statusHandler) Users(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	out := make([]UserView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, UserView{
			Username: sess.Username,
			Presence: sess.Presence.String(),
		})
	}
	writeJSON(w, map[string]any{"users": out})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
