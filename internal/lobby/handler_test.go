package lobby_test

import (
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/franbrizuelab/NPHW2/internal/launcher"
	"github.com/franbrizuelab/NPHW2/internal/lobby"
	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
	"github.com/franbrizuelab/NPHW2/internal/testutil"
)

// stubForwarder is an in-memory stand-in for the persistence service
type stubForwarder struct {
	mu       sync.Mutex
	users    map[string]string
	statuses map[string]string
}

func newStubForwarder() *stubForwarder {
	return &stubForwarder{
		users:    make(map[string]string),
		statuses: make(map[string]string),
	}
}

func (f *stubForwarder) CreateUser(username, password string) (*protocol.DBResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return &protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonUserExists}, nil
	}
	f.users[username] = password
	return &protocol.DBResponse{Status: protocol.StatusOK}, nil
}

func (f *stubForwarder) QueryUser(username, password string) (*protocol.DBResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pass, ok := f.users[username]; !ok || pass != password {
		return &protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonInvalidCredentials}, nil
	}
	return &protocol.DBResponse{Status: protocol.StatusOK, User: &protocol.DBUser{Username: username}}, nil
}

func (f *stubForwarder) UpdateUserStatus(username, status string) (*protocol.DBResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[username] = status
	return &protocol.DBResponse{Status: protocol.StatusOK}, nil
}

func (f *stubForwarder) status(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[username]
}

// stubLauncher hands out a fixed endpoint and lets tests end the match by
// closing its done channel
type stubLauncher struct {
	mu       sync.Mutex
	launched []model.MatchID
	done     chan struct{}
}

func newStubLauncher() *stubLauncher {
	return &stubLauncher{done: make(chan struct{})}
}

func (l *stubLauncher) Launch(id model.MatchID, p1, p2 string) (*launcher.Match, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched = append(l.launched, id)
	return &launcher.Match{ID: id, Host: "127.0.0.1", Port: 11001, Done: l.done}, nil
}

func (l *stubLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

// testClient drives one lobby connection
type testClient struct {
	t    *testing.T
	conn net.Conn
}

func (c *testClient) send(action string, data any) {
	c.t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			c.t.Fatalf("marshal request data: %v", err)
		}
		raw = b
	}
	if err := protocol.WriteJSON(c.conn, protocol.LobbyRequest{Action: action, Data: raw}); err != nil {
		c.t.Fatalf("send %s: %v", action, err)
	}
}

// next reads one frame
func (c *testClient) next() json.RawMessage {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var raw json.RawMessage
	if err := protocol.ReadJSON(c.conn, &raw); err != nil {
		c.t.Fatalf("read frame: %v", err)
	}
	return raw
}

// expect decodes the next frame into out, requiring the given push type
// (empty for untyped acks)
func (c *testClient) expect(wantType string, out any) {
	c.t.Helper()
	raw := c.next()
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		c.t.Fatalf("decode frame header: %v", err)
	}
	if header.Type != wantType {
		c.t.Fatalf("expected frame type %q, got %q (%s)", wantType, header.Type, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("decode frame: %v", err)
		}
	}
}

func (c *testClient) expectAck() protocol.Ack {
	c.t.Helper()
	var ack protocol.Ack
	c.expect("", &ack)
	return ack
}

// assertNoFrame fails if a frame arrives within the window
func (c *testClient) assertNoFrame(window time.Duration) {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(window))
	var raw json.RawMessage
	if err := protocol.ReadJSON(c.conn, &raw); err == nil {
		c.t.Fatalf("unexpected frame: %s", raw)
	}
}

type HandlerSuite struct {
	suite.Suite
	server   *lobby.Server
	db       *stubForwarder
	launcher *stubLauncher
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.db = newStubForwarder()
	s.launcher = newStubLauncher()
	s.server = lobby.NewServer(s.db, s.launcher, testutil.NopLogger())
	s.Require().NoError(s.server.Listen("127.0.0.1:0"))
	go func() {
		_ = s.server.Serve()
	}()
}

func (s *HandlerSuite) TearDownTest() {
	_ = s.server.Close()
}

func (s *HandlerSuite) dial() *testClient {
	conn, err := net.Dial("tcp", s.server.Addr())
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return &testClient{t: s.T(), conn: conn}
}

// loginAs registers and logs a fresh user in, consuming the post-login
// list pushes
func (s *HandlerSuite) loginAs(username string) *testClient {
	c := s.dial()
	creds := protocol.Credentials{User: username, Pass: "pw"}
	c.send(protocol.ActionRegister, creds)
	s.Equal(protocol.StatusOK, c.expectAck().Status)

	c.send(protocol.ActionLogin, creds)
	ack := c.expectAck()
	s.Require().Equal(protocol.StatusOK, ack.Status)
	s.Equal(protocol.ReasonLoginSuccessful, ack.Reason)

	c.expect(protocol.TypeRoomList, nil)
	c.expect(protocol.TypeUserList, nil)
	return c
}

func (s *HandlerSuite) TestRegisterDuplicate() {
	c := s.dial()
	creds := protocol.Credentials{User: "alice", Pass: "pw"}
	c.send(protocol.ActionRegister, creds)
	s.Equal(protocol.StatusOK, c.expectAck().Status)

	c.send(protocol.ActionRegister, creds)
	ack := c.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonUserExists, ack.Reason)
}

func (s *HandlerSuite) TestLoginWrongPassword() {
	c := s.dial()
	c.send(protocol.ActionRegister, protocol.Credentials{User: "alice", Pass: "pw"})
	c.expectAck()

	c.send(protocol.ActionLogin, protocol.Credentials{User: "alice", Pass: "nope"})
	ack := c.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonInvalidCredentials, ack.Reason)
}

func (s *HandlerSuite) TestSecondLoginRejected() {
	s.loginAs("alice")

	c2 := s.dial()
	c2.send(protocol.ActionLogin, protocol.Credentials{User: "alice", Pass: "pw"})
	ack := c2.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonAlreadyLoggedIn, ack.Reason)
}

func (s *HandlerSuite) TestRegisterWhileLoggedInRejected() {
	a := s.loginAs("alice")

	a.send(protocol.ActionRegister, protocol.Credentials{User: "mallory", Pass: "pw"})
	ack := a.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonUnknownAction, ack.Reason)

	a.send(protocol.ActionLogin, protocol.Credentials{User: "alice", Pass: "pw"})
	ack = a.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonUnknownAction, ack.Reason)
}

func (s *HandlerSuite) TestActionsRequireLogin() {
	c := s.dial()
	c.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	ack := c.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonMustBeLoggedIn, ack.Reason)
}

func (s *HandlerSuite) TestCreateJoinAndStart() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	s.Require().Equal(protocol.StatusOK, created.Status)
	s.Equal("Alpha", created.Name)
	s.GreaterOrEqual(int(created.RoomID), 100)
	a.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	s.Equal(protocol.StatusOK, b.expectAck().Status)

	var updateA, updateB protocol.RoomUpdate
	a.expect(protocol.TypeRoomUpdate, &updateA)
	b.expect(protocol.TypeRoomUpdate, &updateB)
	s.Equal([]string{"alice", "bob"}, updateA.Players)
	s.Equal("alice", updateA.Host)
	s.Equal(updateA, updateB)

	a.send(protocol.ActionStartGame, nil)
	var startA, startB protocol.GameStart
	a.expect(protocol.TypeGameStart, &startA)
	b.expect(protocol.TypeGameStart, &startB)
	s.Equal(startA, startB)
	s.Equal("127.0.0.1", startA.Host)
	s.Equal(11001, startA.Port)
	s.Equal(1, s.launcher.count())
	s.Equal("in_game", s.db.status("alice"))
}

func (s *HandlerSuite) TestCreateRoomDefaultsName() {
	a := s.loginAs("alice")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	s.Require().Equal(protocol.StatusOK, created.Status)
	s.Equal("alice's Room", created.Name)
	a.expect(protocol.TypeRoomUpdate, nil)
}

func (s *HandlerSuite) TestStartGameRequiresFullRoom() {
	a := s.loginAs("alice")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	a.expect("", nil)
	a.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionStartGame, nil)
	ack := a.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonRoomNotFull, ack.Reason)
	s.Equal(0, s.launcher.count())
}

func (s *HandlerSuite) TestStartGameRequiresHost() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	b.expectAck()
	a.expect(protocol.TypeRoomUpdate, nil)
	b.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionStartGame, nil)
	ack := b.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonNotRoomHost, ack.Reason)
}

func (s *HandlerSuite) TestJoinFullRoomRejected() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")
	c := s.loginAs("carol")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	b.expectAck()

	c.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	ack := c.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonRoomFull, ack.Reason)
}

func (s *HandlerSuite) TestInviteDeliveredToIdleUser() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionInvite, protocol.TargetUserData{TargetUser: "bob"})
	ack := a.expectAck()
	s.Require().Equal(protocol.StatusOK, ack.Status)
	s.Equal(protocol.ReasonInviteSent, ack.Reason)

	var invite protocol.InviteReceived
	b.expect(protocol.TypeInviteReceived, &invite)
	s.Equal("alice", invite.FromUser)
	s.Equal(created.RoomID, invite.RoomID)
}

func (s *HandlerSuite) TestInviteBusyUserRejected() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	// bob is busy hosting his own room
	b.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Beta"})
	b.expect("", nil)
	b.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	a.expect("", nil)
	a.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionInvite, protocol.TargetUserData{TargetUser: "bob"})
	ack := a.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonUserBusy, ack.Reason)

	b.assertNoFrame(200 * time.Millisecond)
}

func (s *HandlerSuite) TestInviteSelfRejected() {
	a := s.loginAs("alice")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	a.expect("", nil)
	a.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionInvite, protocol.TargetUserData{TargetUser: "alice"})
	ack := a.expectAck()
	s.Equal(protocol.StatusError, ack.Status)
	s.Equal(protocol.ReasonCannotInviteSelf, ack.Reason)
}

func (s *HandlerSuite) TestKickPlayer() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	b.expectAck()
	a.expect(protocol.TypeRoomUpdate, nil)
	b.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionKickPlayer, protocol.TargetUserData{TargetUser: "bob"})

	var kicked protocol.KickedFromRoom
	b.expect(protocol.TypeKickedFromRoom, &kicked)
	s.Equal(created.RoomID, kicked.RoomID)

	s.Equal(protocol.StatusOK, a.expectAck().Status)
	var update protocol.RoomUpdate
	a.expect(protocol.TypeRoomUpdate, &update)
	s.Equal([]string{"alice"}, update.Players)
}

func (s *HandlerSuite) TestHostDisconnectPromotesRemainingPlayer() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	b.expectAck()
	b.expect(protocol.TypeRoomUpdate, nil)

	s.Require().NoError(a.conn.Close())

	var promoted protocol.PromotedToHost
	b.expect(protocol.TypePromotedToHost, &promoted)
	s.Equal(created.RoomID, promoted.RoomID)

	var update protocol.RoomUpdate
	b.expect(protocol.TypeRoomUpdate, &update)
	s.Equal("bob", update.Host)
	s.Equal([]string{"bob"}, update.Players)
}

func (s *HandlerSuite) TestMatchExitReturnsPlayersToOnline() {
	a := s.loginAs("alice")
	b := s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	b.send(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: created.RoomID})
	b.expectAck()
	a.expect(protocol.TypeRoomUpdate, nil)
	b.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionStartGame, nil)
	a.expect(protocol.TypeGameStart, nil)
	b.expect(protocol.TypeGameStart, nil)

	// game process exits
	close(s.launcher.done)

	s.Require().Eventually(func() bool {
		sess, ok := s.server.Sessions().Get("bob")
		return ok && sess.Presence.Kind == model.PresenceOnline
	}, 3*time.Second, 10*time.Millisecond)

	_, stillThere := s.server.Rooms().Get(created.RoomID)
	s.False(stillThere)
	s.Equal("online", s.db.status("alice"))
}

func (s *HandlerSuite) TestLogoutIsTerminalAndFreesUsername() {
	a := s.loginAs("alice")

	a.send(protocol.ActionLogout, nil)
	ack := a.expectAck()
	s.Equal(protocol.StatusOK, ack.Status)
	s.Equal(protocol.ReasonLogoutSuccessful, ack.Reason)
	s.Equal("offline", s.db.status("alice"))

	// the server closes the connection after the confirmation
	_ = a.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var raw json.RawMessage
	s.Require().Error(protocol.ReadJSON(a.conn, &raw))

	// a fresh connection can log straight back in
	b := s.dial()
	b.send(protocol.ActionLogin, protocol.Credentials{User: "alice", Pass: "pw"})
	s.Equal(protocol.StatusOK, b.expectAck().Status)
	b.expect(protocol.TypeRoomList, nil)
	b.expect(protocol.TypeUserList, nil)
}

func (s *HandlerSuite) TestCloseDropsConnectedClients() {
	a := s.loginAs("alice")
	s.dial() // a second, never-authenticated connection

	done := make(chan struct{})
	go func() {
		_ = s.server.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.FailNow("close did not return while clients were connected")
	}

	// both clients see their connections dropped
	_ = a.conn.SetReadDeadline(time.Now().Add(time.Second))
	var raw json.RawMessage
	s.Require().Error(protocol.ReadJSON(a.conn, &raw))
}

func (s *HandlerSuite) TestListUsersShowsPresence() {
	a := s.loginAs("alice")
	s.loginAs("bob")

	a.send(protocol.ActionCreateRoom, protocol.CreateRoomData{Name: "Alpha"})
	var created protocol.CreateRoomReply
	a.expect("", &created)
	a.expect(protocol.TypeRoomUpdate, nil)

	a.send(protocol.ActionListUsers, nil)
	var users protocol.ListUsersReply
	a.expect("", &users)

	byName := map[string]string{}
	for _, u := range users.Users {
		byName[u.Username] = u.Status
	}
	s.Equal("online", byName["bob"])
	s.Contains(byName["alice"], "in_room_")
}
