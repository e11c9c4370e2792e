package protocol

import (
	"encoding/json"
	"errors"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// Status values for request/response replies
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Lobby request actions
const (
	ActionRegister   = "register"
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionListRooms  = "list_rooms"
	ActionListUsers  = "list_users"
	ActionCreateRoom = "create_room"
	ActionJoinRoom   = "join_room"
	ActionInvite     = "invite"
	ActionKickPlayer = "kick_player"
	ActionStartGame  = "start_game"
)

// Server push / game message types
const (
	TypeRoomUpdate     = "ROOM_UPDATE"
	TypeInviteReceived = "INVITE_RECEIVED"
	TypeGameStart      = "GAME_START"
	TypeKickedFromRoom = "KICKED_FROM_ROOM"
	TypePromotedToHost = "PROMOTED_TO_HOST"
	TypeRoomList       = "ROOM_LIST"
	TypeUserList       = "USER_LIST"
	TypeWelcome        = "WELCOME"
	TypeSnapshot       = "SNAPSHOT"
	TypeGameOver       = "GAME_OVER"
	TypeInput          = "INPUT"
	TypeForfeit        = "FORFEIT"
)

// Input actions accepted by the game service
const (
	InputMoveLeft  = "MOVE_LEFT"
	InputMoveRight = "MOVE_RIGHT"
	InputRotate    = "ROTATE"
	InputSoftDrop  = "SOFT_DROP"
	InputHardDrop  = "HARD_DROP"
)

// LobbyRequest is the envelope for every client-to-lobby message
type LobbyRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Credentials is the data payload of register and login
type Credentials struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// CreateRoomData is the data payload of create_room
type CreateRoomData struct {
	Name string `json:"name"`
}

// JoinRoomData is the data payload of join_room
type JoinRoomData struct {
	RoomID model.RoomID `json:"room_id"`
}

// TargetUserData is the data payload of invite and kick_player
type TargetUserData struct {
	TargetUser string `json:"target_user"`
}

// Ack is the generic reply envelope
type Ack struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// OK builds a success ack, optionally with a human-readable reason
func OK(reason string) Ack {
	return Ack{Status: StatusOK, Reason: reason}
}

// Error builds an error ack
func Error(reason string) Ack {
	return Ack{Status: StatusError, Reason: reason}
}

// CreateRoomReply acknowledges create_room
type CreateRoomReply struct {
	Ack
	RoomID model.RoomID `json:"room_id"`
	Name   string       `json:"name"`
}

// RoomSummary is one entry of a list_rooms reply
type RoomSummary struct {
	ID      model.RoomID `json:"id"`
	Name    string       `json:"name"`
	Host    string       `json:"host"`
	Players int          `json:"players"`
}

// ListRoomsReply answers list_rooms; it doubles as the ROOM_LIST push sent
// after a successful login (Type set only in the push form).
type ListRoomsReply struct {
	Type   string        `json:"type,omitempty"`
	Status Status        `json:"status"`
	Rooms  []RoomSummary `json:"rooms"`
}

// UserStatus is one entry of a list_users reply
type UserStatus struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

// ListUsersReply answers list_users; it doubles as the USER_LIST push.
type ListUsersReply struct {
	Type   string       `json:"type,omitempty"`
	Status Status       `json:"status"`
	Users  []UserStatus `json:"users"`
}

// RoomUpdate is pushed to every member when a room's composition changes
type RoomUpdate struct {
	Type    string       `json:"type"`
	RoomID  model.RoomID `json:"room_id"`
	Host    string       `json:"host"`
	Players []string     `json:"players"`
}

// InviteReceived is pushed to the target of an invite
type InviteReceived struct {
	Type     string       `json:"type"`
	FromUser string       `json:"from_user"`
	RoomID   model.RoomID `json:"room_id"`
}

// GameStart is pushed to both room members when their match is spawned
type GameStart struct {
	Type string `json:"type"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// KickedFromRoom is pushed to a member removed by the host
type KickedFromRoom struct {
	Type   string       `json:"type"`
	RoomID model.RoomID `json:"room_id"`
}

// PromotedToHost is pushed to the earliest-joined remaining member when the
// host leaves
type PromotedToHost struct {
	Type   string       `json:"type"`
	RoomID model.RoomID `json:"room_id"`
}

// Welcome is the first message a game service sends on each accepted seat
type Welcome struct {
	Type string `json:"type"`
	Role string `json:"role"` // "P1" or "P2"
	Seed int64  `json:"seed"`
}

// GameInput is a client-to-game message (INPUT or FORFEIT)
type GameInput struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
}

// Snapshot is the per-tick broadcast of both seats' state
type Snapshot struct {
	Type    string          `json:"type"`
	P1State model.SeatState `json:"p1_state"`
	P2State model.SeatState `json:"p2_state"`
}

// GameOver is the final message of a match
type GameOver struct {
	Type      string           `json:"type"`
	Winner    string           `json:"winner"`
	P1Results model.SeatResult `json:"p1_results"`
	P2Results model.SeatResult `json:"p2_results"`
}

// Persistence RPC collections and actions
const (
	CollectionUser    = "User"
	CollectionGameLog = "GameLog"

	DBActionCreate = "create"
	DBActionQuery  = "query"
	DBActionUpdate = "update"
)

// DBRequest is the persistence endpoint's request envelope
type DBRequest struct {
	Collection string          `json:"collection"`
	Action     string          `json:"action"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// DBUserData is the data payload of User create/query/update
type DBUserData struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Status   string `json:"status,omitempty"`
}

// DBGameLogQuery is the data payload of GameLog query
type DBGameLogQuery struct {
	UserID string `json:"userId,omitempty"`
}

// DBUser is the credential-free user view returned by a successful query
type DBUser struct {
	Username string `json:"username"`
}

// DBResponse is the persistence endpoint's response envelope
type DBResponse struct {
	Status Status          `json:"status"`
	Reason string          `json:"reason,omitempty"`
	User   *DBUser         `json:"user,omitempty"`
	Logs   []model.GameLog `json:"logs,omitempty"`
}

// Wire reason strings
const (
	ReasonMissingFields       = "missing_fields"
	ReasonInvalidCredentials  = "invalid_credentials"
	ReasonUserExists          = "user_exists"
	ReasonUserNotFound        = "user_not_found"
	ReasonAlreadyLoggedIn     = "already_logged_in"
	ReasonAlreadyInRoom       = "already_in_a_room"
	ReasonNotInRoom           = "not_in_a_room"
	ReasonRoomNotFound        = "room_not_found"
	ReasonRoomPlaying         = "room_is_playing"
	ReasonRoomFull            = "room_is_full"
	ReasonRoomNotFull         = "room_not_full"
	ReasonNotRoomHost         = "not_room_host"
	ReasonUserNotOnline       = "user_not_online"
	ReasonUserBusy            = "user_is_busy"
	ReasonCannotInviteSelf    = "cannot_invite_self"
	ReasonInvalidJSON         = "invalid_json_format"
	ReasonMustBeLoggedIn      = "must_be_logged_in"
	ReasonUnknownAction       = "unknown_action"
	ReasonGameSpawnFailed     = "server_failed_to_start_game"
	ReasonDependencyFailure   = "db_server_connection_error"
	ReasonDependencyNoAnswer  = "db_server_no_response"
	ReasonLoginSuccessful     = "login_successful"
	ReasonLogoutSuccessful    = "logout_successful"
	ReasonInviteSent          = "invite_sent"
	ReasonInternalServerError = "internal_server_error"
)

// Reason maps a domain error to its wire reason string.
func Reason(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingFields):
		return ReasonMissingFields
	case errors.Is(err, model.ErrInvalidCredentials):
		return ReasonInvalidCredentials
	case errors.Is(err, model.ErrUserExists):
		return ReasonUserExists
	case errors.Is(err, model.ErrUserNotFound):
		return ReasonUserNotFound
	case errors.Is(err, model.ErrAlreadyLoggedIn):
		return ReasonAlreadyLoggedIn
	case errors.Is(err, model.ErrAlreadyInRoom):
		return ReasonAlreadyInRoom
	case errors.Is(err, model.ErrNotInRoom):
		return ReasonNotInRoom
	case errors.Is(err, model.ErrRoomNotFound):
		return ReasonRoomNotFound
	case errors.Is(err, model.ErrRoomPlaying):
		return ReasonRoomPlaying
	case errors.Is(err, model.ErrRoomFull):
		return ReasonRoomFull
	case errors.Is(err, model.ErrRoomNotFull):
		return ReasonRoomNotFull
	case errors.Is(err, model.ErrNotRoomHost):
		return ReasonNotRoomHost
	case errors.Is(err, model.ErrUserNotOnline):
		return ReasonUserNotOnline
	case errors.Is(err, model.ErrUserBusy):
		return ReasonUserBusy
	case errors.Is(err, model.ErrCannotInviteSelf):
		return ReasonCannotInviteSelf
	case errors.Is(err, model.ErrDependencyFailure):
		return ReasonDependencyFailure
	default:
		return ReasonInternalServerError
	}
}
