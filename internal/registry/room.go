package registry

import (
	"sync"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// firstRoomID is where the monotonic room counter starts
const firstRoomID model.RoomID = 100

// LeaveResult describes what a Leave call did to the room, so the caller can
// notify affected members outside the registry lock.
type LeaveResult struct {
	Room         model.Room // state after the removal; zero value if deleted
	Deleted      bool
	PromotedHost string // non-empty if the departing user was host and a member remains
}

// RoomRegistry is the process-wide room id -> room map
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[model.RoomID]*model.Room
	nextID model.RoomID
}

// NewRoomRegistry creates an empty room registry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[model.RoomID]*model.Room),
		nextID: firstRoomID,
	}
}

// Create allocates a room with the host as its only player
func (r *RoomRegistry) Create(host, name string) model.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := &model.Room{
		ID:      r.nextID,
		Name:    name,
		Host:    host,
		Players: []string{host},
		Status:  model.RoomStatusIdle,
	}
	r.nextID++
	r.rooms[room.ID] = room
	return *room
}

// Get returns a copy of the room
func (r *RoomRegistry) Get(id model.RoomID) (model.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return model.Room{}, false
	}
	return copyRoom(room), true
}

// Join appends a user to a room. The capacity check happens under the
// registry lock, so concurrent joins can never exceed MaxRoomPlayers.
func (r *RoomRegistry) Join(username string, id model.RoomID) (model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return model.Room{}, model.ErrRoomNotFound
	}
	if room.Status != model.RoomStatusIdle {
		return model.Room{}, model.ErrRoomPlaying
	}
	if room.Full() {
		return model.Room{}, model.ErrRoomFull
	}
	if room.HasPlayer(username) {
		return model.Room{}, model.ErrAlreadyInRoom
	}
	room.Players = append(room.Players, username)
	return copyRoom(room), nil
}

// Leave removes a user from a room. An emptied room is deleted; if the host
// departs with members remaining, the earliest-joined remaining player is
// promoted deterministically.
func (r *RoomRegistry) Leave(username string, id model.RoomID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return LeaveResult{}, model.ErrRoomNotFound
	}
	if !room.HasPlayer(username) {
		return LeaveResult{}, model.ErrNotInRoom
	}

	for i, p := range room.Players {
		if p == username {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}

	if len(room.Players) == 0 {
		delete(r.rooms, id)
		return LeaveResult{Deleted: true}, nil
	}

	var promoted string
	if room.Host == username {
		room.Host = room.Players[0]
		promoted = room.Host
	}
	return LeaveResult{Room: copyRoom(room), PromotedHost: promoted}, nil
}

// SetStatus transitions a room between idle and playing
func (r *RoomRegistry) SetStatus(id model.RoomID, status model.RoomStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Status = status
	return nil
}

// Delete removes a room outright, returning its final state. Used when a
// match process exits and the room's lifetime is over.
func (r *RoomRegistry) Delete(id model.RoomID) (model.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return model.Room{}, false
	}
	delete(r.rooms, id)
	return copyRoom(room), true
}

// ListIdle returns every idle room, for list_rooms
func (r *RoomRegistry) ListIdle() []model.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.Status == model.RoomStatusIdle {
			out = append(out, copyRoom(room))
		}
	}
	return out
}

// List returns every room regardless of status, for the admin API
func (r *RoomRegistry) List() []model.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, copyRoom(room))
	}
	return out
}

func copyRoom(room *model.Room) model.Room {
	out := *room
	out.Players = append([]string(nil), room.Players...)
	return out
}
