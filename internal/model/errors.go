package model

import "errors"

// Common errors used across the application. Wire-level reason strings are
// derived from these in the protocol package.
var (
	// Session errors
	ErrAlreadyLoggedIn = errors.New("user is already logged in")
	ErrSessionNotFound = errors.New("session not found")

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrRoomPlaying   = errors.New("room is playing")
	ErrRoomNotFull   = errors.New("room is not full")
	ErrAlreadyInRoom = errors.New("user is already in a room")
	ErrNotInRoom     = errors.New("user is not in a room")
	ErrNotRoomHost   = errors.New("user is not the room host")

	// Invite errors
	ErrUserNotOnline    = errors.New("user is not online")
	ErrUserBusy         = errors.New("user is busy")
	ErrCannotInviteSelf = errors.New("cannot invite yourself")

	// Credential errors
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")

	// Dependency errors
	ErrDependencyFailure = errors.New("dependency unavailable")
)
