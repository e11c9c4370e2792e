package model

// RoomID is a monotonically assigned identifier for a lobby room
type RoomID int

// RoomStatus represents the lifecycle state of a room
type RoomStatus string

const (
	RoomStatusIdle    RoomStatus = "idle"    // Waiting for players / start_game
	RoomStatusPlaying RoomStatus = "playing" // A match is running for this room
)

// MaxRoomPlayers is the fixed capacity of a room (one match seat each)
const MaxRoomPlayers = 2

// Room is a pre-match grouping of up to two players.
// Invariants: Players is non-empty while the room exists, Host is always an
// element of Players, and len(Players) <= MaxRoomPlayers.
type Room struct {
	ID      RoomID
	Name    string
	Host    string
	Players []string // join order; Players[0] is promoted if the host leaves
	Status  RoomStatus
}

// HasPlayer reports whether the given user is a member of the room
func (r *Room) HasPlayer(username string) bool {
	for _, p := range r.Players {
		if p == username {
			return true
		}
	}
	return false
}

// Full reports whether the room has reached capacity
func (r *Room) Full() bool {
	return len(r.Players) >= MaxRoomPlayers
}
