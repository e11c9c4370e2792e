package model

import "fmt"

// PresenceKind enumerates what a logged-in user is currently doing
type PresenceKind int

const (
	PresenceOnline PresenceKind = iota
	PresenceInRoom
	PresenceInGame
)

// Presence is a tagged variant describing a session's current activity.
// The payload fields are only meaningful for the matching kind.
type Presence struct {
	Kind    PresenceKind
	RoomID  RoomID  // valid when Kind == PresenceInRoom
	MatchID MatchID // valid when Kind == PresenceInGame
}

// Online returns the presence of a user sitting in the lobby
func Online() Presence {
	return Presence{Kind: PresenceOnline}
}

// InRoom returns the presence of a user inside a room
func InRoom(roomID RoomID) Presence {
	return Presence{Kind: PresenceInRoom, RoomID: roomID}
}

// InGame returns the presence of a user playing a match
func InGame(matchID MatchID) Presence {
	return Presence{Kind: PresenceInGame, MatchID: matchID}
}

// String renders the wire form used by list_users ("online", "in_room_7", "in_game")
func (p Presence) String() string {
	switch p.Kind {
	case PresenceInRoom:
		return fmt.Sprintf("in_room_%d", p.RoomID)
	case PresenceInGame:
		return "in_game"
	default:
		return "online"
	}
}
