package lobby

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
)

// handler owns one connection's request loop and its authentication state.
// username is empty until a login succeeds on this connection.
type handler struct {
	srv      *Server
	conn     *clientConn
	username string
	logger   *slog.Logger
}

func newHandler(srv *Server, conn *clientConn) *handler {
	return &handler{
		srv:    srv,
		conn:   conn,
		logger: srv.logger.With(slog.String("remote", conn.RemoteAddr())),
	}
}

// run reads requests until the connection dies, then runs the disconnect
// cascade
func (h *handler) run() {
	defer h.disconnect()

	for {
		var req protocol.LobbyRequest
		if err := h.conn.Read(&req); err != nil {
			if !errors.Is(err, protocol.ErrClosed) {
				h.logger.Warn("read failed", slog.String("error", err.Error()))
				h.reply(protocol.Error(protocol.ReasonInvalidJSON))
			}
			return
		}
		if !h.dispatch(req) {
			return
		}
	}
}

// dispatch handles one request; the false return means the connection is done
func (h *handler) dispatch(req protocol.LobbyRequest) bool {
	switch req.Action {
	case protocol.ActionRegister, protocol.ActionLogin:
		// pre-auth actions only; an authenticated connection gets the same
		// answer as for any action it cannot use
		if h.username != "" {
			h.reply(protocol.Error(protocol.ReasonUnknownAction))
			return true
		}
		if req.Action == protocol.ActionRegister {
			h.handleRegister(req.Data)
		} else {
			h.handleLogin(req.Data)
		}
	case protocol.ActionLogout:
		return h.handleLogout()
	case protocol.ActionListRooms:
		h.handleListRooms()
	case protocol.ActionListUsers:
		h.handleListUsers()
	case protocol.ActionCreateRoom:
		h.handleCreateRoom(req.Data)
	case protocol.ActionJoinRoom:
		h.handleJoinRoom(req.Data)
	case protocol.ActionInvite:
		h.handleInvite(req.Data)
	case protocol.ActionKickPlayer:
		h.handleKickPlayer(req.Data)
	case protocol.ActionStartGame:
		h.handleStartGame()
	default:
		h.reply(protocol.Error(protocol.ReasonUnknownAction))
	}
	return true
}

func (h *handler) reply(v any) {
	if err := h.conn.Push(v); err != nil {
		h.logger.Warn("reply failed", slog.String("error", err.Error()))
	}
}

func (h *handler) replyErr(err error) {
	h.reply(protocol.Error(protocol.Reason(err)))
}

// requireLogin acks an error and returns false when the connection has no
// authenticated user
func (h *handler) requireLogin() bool {
	if h.username == "" {
		h.reply(protocol.Error(protocol.ReasonMustBeLoggedIn))
		return false
	}
	return true
}

func (h *handler) handleRegister(data json.RawMessage) {
	var creds protocol.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		h.reply(protocol.Error(protocol.ReasonInvalidJSON))
		return
	}
	if creds.User == "" || creds.Pass == "" {
		h.reply(protocol.Error(protocol.ReasonMissingFields))
		return
	}

	resp, err := h.srv.db.CreateUser(creds.User, creds.Pass)
	if err != nil {
		h.logger.Error("persistence unreachable", slog.String("error", err.Error()))
		h.replyErr(err)
		return
	}
	h.reply(protocol.Ack{Status: resp.Status, Reason: resp.Reason})
}

func (h *handler) handleLogin(data json.RawMessage) {
	var creds protocol.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		h.reply(protocol.Error(protocol.ReasonInvalidJSON))
		return
	}
	if creds.User == "" || creds.Pass == "" {
		h.reply(protocol.Error(protocol.ReasonMissingFields))
		return
	}
	resp, err := h.srv.db.QueryUser(creds.User, creds.Pass)
	if err != nil {
		h.logger.Error("persistence unreachable", slog.String("error", err.Error()))
		h.replyErr(err)
		return
	}
	if resp.Status != protocol.StatusOK {
		h.reply(protocol.Ack{Status: resp.Status, Reason: resp.Reason})
		return
	}

	// One live session per account, first connection wins
	if err := h.srv.sessions.Register(creds.User, h.conn); err != nil {
		h.replyErr(err)
		return
	}
	h.username = creds.User
	h.logger.Info("user logged in", slog.String("username", h.username))

	if _, err := h.srv.db.UpdateUserStatus(h.username, model.Online().String()); err != nil {
		h.logger.Warn("failed to persist status", slog.String("error", err.Error()))
	}

	h.reply(protocol.OK(protocol.ReasonLoginSuccessful))
	h.reply(h.roomList(protocol.TypeRoomList))
	h.reply(h.userList(protocol.TypeUserList))
}

// handleLogout is terminal: the confirmation is the connection's last frame
func (h *handler) handleLogout() bool {
	if !h.requireLogin() {
		return true
	}
	h.logout()
	h.reply(protocol.OK(protocol.ReasonLogoutSuccessful))
	return false
}

// logout runs the shared teardown: leave any room, drop the session, persist
// the offline status. The connection itself stays open.
func (h *handler) logout() {
	username := h.username
	h.leaveCurrentRoom()
	h.srv.sessions.Remove(username)
	h.username = ""

	if _, err := h.srv.db.UpdateUserStatus(username, "offline"); err != nil {
		h.logger.Warn("failed to persist status", slog.String("error", err.Error()))
	}
	h.logger.Info("user logged out", slog.String("username", username))
}

// disconnect is the end-of-connection cascade
func (h *handler) disconnect() {
	if h.username != "" {
		h.logout()
	}
	_ = h.conn.Close()
}

func (h *handler) handleListRooms() {
	if !h.requireLogin() {
		return
	}
	h.reply(h.roomList(""))
}

func (h *handler) handleListUsers() {
	if !h.requireLogin() {
		return
	}
	h.reply(h.userList(""))
}

func (h *handler) roomList(pushType string) protocol.ListRoomsReply {
	rooms := h.srv.rooms.ListIdle()
	out := protocol.ListRoomsReply{
		Type:   pushType,
		Status: protocol.StatusOK,
		Rooms:  make([]protocol.RoomSummary, 0, len(rooms)),
	}
	for _, room := range rooms {
		out.Rooms = append(out.Rooms, protocol.RoomSummary{
			ID:      room.ID,
			Name:    room.Name,
			Host:    room.Host,
			Players: len(room.Players),
		})
	}
	return out
}

func (h *handler) userList(pushType string) protocol.ListUsersReply {
	sessions := h.srv.sessions.List()
	out := protocol.ListUsersReply{
		Type:   pushType,
		Status: protocol.StatusOK,
		Users:  make([]protocol.UserStatus, 0, len(sessions)),
	}
	for _, sess := range sessions {
		out.Users = append(out.Users, protocol.UserStatus{
			Username: sess.Username,
			Status:   sess.Presence.String(),
		})
	}
	return out
}

func (h *handler) handleCreateRoom(data json.RawMessage) {
	if !h.requireLogin() {
		return
	}
	var body protocol.CreateRoomData
	if err := json.Unmarshal(data, &body); err != nil {
		h.reply(protocol.Error(protocol.ReasonInvalidJSON))
		return
	}
	if body.Name == "" {
		body.Name = fmt.Sprintf("%s's Room", h.username)
	}
	if !h.presenceIs(model.PresenceOnline) {
		h.replyErr(model.ErrAlreadyInRoom)
		return
	}

	room := h.srv.rooms.Create(h.username, body.Name)
	h.srv.sessions.SetPresence(h.username, model.InRoom(room.ID))
	h.logger.Info("room created",
		slog.Int("room_id", int(room.ID)),
		slog.String("host", h.username))

	h.reply(protocol.CreateRoomReply{
		Ack:    protocol.OK(""),
		RoomID: room.ID,
		Name:   room.Name,
	})
	h.pushRoomUpdate(room)
}

func (h *handler) handleJoinRoom(data json.RawMessage) {
	if !h.requireLogin() {
		return
	}
	var body protocol.JoinRoomData
	if err := json.Unmarshal(data, &body); err != nil {
		h.reply(protocol.Error(protocol.ReasonInvalidJSON))
		return
	}
	if !h.presenceIs(model.PresenceOnline) {
		h.replyErr(model.ErrAlreadyInRoom)
		return
	}

	room, err := h.srv.rooms.Join(h.username, body.RoomID)
	if err != nil {
		h.replyErr(err)
		return
	}
	h.srv.sessions.SetPresence(h.username, model.InRoom(room.ID))
	h.logger.Info("user joined room",
		slog.String("username", h.username),
		slog.Int("room_id", int(room.ID)))

	h.reply(protocol.OK(""))
	h.pushRoomUpdate(room)
}

func (h *handler) handleInvite(data json.RawMessage) {
	if !h.requireLogin() {
		return
	}
	var body protocol.TargetUserData
	if err := json.Unmarshal(data, &body); err != nil {
		h.reply(protocol.Error(protocol.ReasonInvalidJSON))
		return
	}
	if body.TargetUser == "" {
		h.reply(protocol.Error(protocol.ReasonMissingFields))
		return
	}
	if body.TargetUser == h.username {
		h.replyErr(model.ErrCannotInviteSelf)
		return
	}

	roomID, ok := h.currentRoomID()
	if !ok {
		h.replyErr(model.ErrNotInRoom)
		return
	}

	target, ok := h.srv.sessions.Get(body.TargetUser)
	if !ok {
		h.replyErr(model.ErrUserNotOnline)
		return
	}
	if target.Presence.Kind != model.PresenceOnline {
		h.replyErr(model.ErrUserBusy)
		return
	}

	if err := target.Conn.Push(protocol.InviteReceived{
		Type:     protocol.TypeInviteReceived,
		FromUser: h.username,
		RoomID:   roomID,
	}); err != nil {
		h.logger.Warn("invite push failed", slog.String("error", err.Error()))
	}
	h.reply(protocol.OK(protocol.ReasonInviteSent))
}

func (h *handler) handleKickPlayer(data json.RawMessage) {
	if !h.requireLogin() {
		return
	}
	var body protocol.TargetUserData
	if err := json.Unmarshal(data, &body); err != nil {
		h.reply(protocol.Error(protocol.ReasonInvalidJSON))
		return
	}
	if body.TargetUser == "" {
		h.reply(protocol.Error(protocol.ReasonMissingFields))
		return
	}

	roomID, ok := h.currentRoomID()
	if !ok {
		h.replyErr(model.ErrNotInRoom)
		return
	}
	room, ok := h.srv.rooms.Get(roomID)
	if !ok {
		h.replyErr(model.ErrRoomNotFound)
		return
	}
	if room.Host != h.username {
		h.replyErr(model.ErrNotRoomHost)
		return
	}
	if body.TargetUser == h.username || !room.HasPlayer(body.TargetUser) {
		h.replyErr(model.ErrNotInRoom)
		return
	}

	result, err := h.srv.rooms.Leave(body.TargetUser, roomID)
	if err != nil {
		h.replyErr(err)
		return
	}
	h.srv.sessions.SetPresence(body.TargetUser, model.Online())

	if target, ok := h.srv.sessions.Get(body.TargetUser); ok {
		_ = target.Conn.Push(protocol.KickedFromRoom{
			Type:   protocol.TypeKickedFromRoom,
			RoomID: roomID,
		})
	}
	h.reply(protocol.OK(""))
	if !result.Deleted {
		h.pushRoomUpdate(result.Room)
	}
}

func (h *handler) handleStartGame() {
	if !h.requireLogin() {
		return
	}

	roomID, ok := h.currentRoomID()
	if !ok {
		h.replyErr(model.ErrNotInRoom)
		return
	}
	room, ok := h.srv.rooms.Get(roomID)
	if !ok {
		h.replyErr(model.ErrRoomNotFound)
		return
	}
	if room.Host != h.username {
		h.replyErr(model.ErrNotRoomHost)
		return
	}
	if room.Status != model.RoomStatusIdle {
		h.replyErr(model.ErrRoomPlaying)
		return
	}
	if !room.Full() {
		h.replyErr(model.ErrRoomNotFull)
		return
	}

	matchID := model.MatchID(uuid.NewString())
	match, err := h.srv.launcher.Launch(matchID, room.Players[0], room.Players[1])
	if err != nil {
		h.logger.Error("failed to spawn game service", slog.String("error", err.Error()))
		h.reply(protocol.Error(protocol.ReasonGameSpawnFailed))
		return
	}

	if err := h.srv.rooms.SetStatus(roomID, model.RoomStatusPlaying); err != nil {
		h.replyErr(err)
		return
	}
	for _, player := range room.Players {
		h.srv.sessions.SetPresence(player, model.InGame(matchID))
		if _, err := h.srv.db.UpdateUserStatus(player, model.InGame(matchID).String()); err != nil {
			h.logger.Warn("failed to persist status",
				slog.String("username", player),
				slog.String("error", err.Error()))
		}
	}
	go h.srv.watchMatch(roomID, match)

	h.logger.Info("match starting",
		slog.String("match_id", string(matchID)),
		slog.Int("room_id", int(roomID)),
		slog.Int("port", match.Port))

	start := protocol.GameStart{
		Type: protocol.TypeGameStart,
		Host: match.Host,
		Port: match.Port,
	}
	for _, player := range room.Players {
		if sess, ok := h.srv.sessions.Get(player); ok {
			if err := sess.Conn.Push(start); err != nil {
				h.logger.Warn("game start push failed",
					slog.String("username", player),
					slog.String("error", err.Error()))
			}
		}
	}
}

// presenceIs reports whether this user's presence has the given kind
func (h *handler) presenceIs(kind model.PresenceKind) bool {
	sess, ok := h.srv.sessions.Get(h.username)
	return ok && sess.Presence.Kind == kind
}

// currentRoomID resolves the room this user is sitting in
func (h *handler) currentRoomID() (model.RoomID, bool) {
	sess, ok := h.srv.sessions.Get(h.username)
	if !ok || sess.Presence.Kind != model.PresenceInRoom {
		return 0, false
	}
	return sess.Presence.RoomID, true
}

// leaveCurrentRoom removes the user from whichever room holds them,
// promoting a new host and notifying the remaining member as needed
func (h *handler) leaveCurrentRoom() {
	var roomID model.RoomID
	found := false
	if id, ok := h.currentRoomID(); ok {
		roomID, found = id, true
	} else {
		// presence may say in_game; scan for membership
		for _, room := range h.srv.rooms.List() {
			if room.HasPlayer(h.username) {
				roomID, found = room.ID, true
				break
			}
		}
	}
	if !found {
		return
	}

	result, err := h.srv.rooms.Leave(h.username, roomID)
	if err != nil {
		return
	}
	h.srv.sessions.SetPresence(h.username, model.Online())
	if result.Deleted {
		return
	}

	if result.PromotedHost != "" {
		if sess, ok := h.srv.sessions.Get(result.PromotedHost); ok {
			_ = sess.Conn.Push(protocol.PromotedToHost{
				Type:   protocol.TypePromotedToHost,
				RoomID: roomID,
			})
		}
	}
	h.pushRoomUpdate(result.Room)
}

// pushRoomUpdate notifies every member of the room's current composition
func (h *handler) pushRoomUpdate(room model.Room) {
	update := protocol.RoomUpdate{
		Type:    protocol.TypeRoomUpdate,
		RoomID:  room.ID,
		Host:    room.Host,
		Players: room.Players,
	}
	for _, player := range room.Players {
		if sess, ok := h.srv.sessions.Get(player); ok {
			if err := sess.Conn.Push(update); err != nil {
				h.logger.Warn("room update push failed",
					slog.String("username", player),
					slog.String("error", err.Error()))
			}
		}
	}
}
