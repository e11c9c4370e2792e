package db_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/db/memory"
	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
	"github.com/franbrizuelab/NPHW2/internal/testutil"
)

type ServerSuite struct {
	suite.Suite
	server *db.Server
	client *db.Client
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.server = db.NewServer(memory.New(), testutil.NopLogger())
	s.Require().NoError(s.server.Listen("127.0.0.1:0"))
	go func() {
		_ = s.server.Serve()
	}()

	s.client = db.NewClient(s.server.Addr(), 2*time.Second)
}

func (s *ServerSuite) TearDownTest() {
	_ = s.server.Close()
}

func (s *ServerSuite) TestRegisterAndLogin() {
	resp, err := s.client.CreateUser("alice", "secret")
	s.Require().NoError(err)
	s.Equal(protocol.StatusOK, resp.Status)

	resp, err = s.client.QueryUser("alice", "secret")
	s.Require().NoError(err)
	s.Equal(protocol.StatusOK, resp.Status)
	s.Require().NotNil(resp.User)
	s.Equal("alice", resp.User.Username)
}

func (s *ServerSuite) TestDuplicateRegistration() {
	resp, err := s.client.CreateUser("alice", "secret")
	s.Require().NoError(err)
	s.Equal(protocol.StatusOK, resp.Status)

	resp, err = s.client.CreateUser("alice", "other")
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)
	s.Equal(protocol.ReasonUserExists, resp.Reason)
}

func (s *ServerSuite) TestWrongPassword() {
	_, err := s.client.CreateUser("alice", "secret")
	s.Require().NoError(err)

	resp, err := s.client.QueryUser("alice", "wrong")
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)
	s.Equal(protocol.ReasonInvalidCredentials, resp.Reason)
}

func (s *ServerSuite) TestMissingFields() {
	resp, err := s.client.CreateUser("alice", "")
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)
	s.Equal(protocol.ReasonMissingFields, resp.Reason)
}

func (s *ServerSuite) TestUpdateStatus() {
	_, err := s.client.CreateUser("alice", "secret")
	s.Require().NoError(err)

	resp, err := s.client.UpdateUserStatus("alice", "online")
	s.Require().NoError(err)
	s.Equal(protocol.StatusOK, resp.Status)

	resp, err = s.client.UpdateUserStatus("nobody", "online")
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)
	s.Equal(protocol.ReasonUserNotFound, resp.Reason)
}

func (s *ServerSuite) TestGameLogRoundTrip() {
	log := model.GameLog{
		MatchID: "m1",
		Users:   []string{"alice", "bob"},
		Results: []model.SeatResult{
			{UserID: "alice", Score: 800, Lines: 4},
			{UserID: "bob", Score: 100, Lines: 0},
		},
		Winner: "P1",
	}

	resp, err := s.client.CreateGameLog(log)
	s.Require().NoError(err)
	s.Equal(protocol.StatusOK, resp.Status)

	resp, err = s.client.QueryGameLogs("alice")
	s.Require().NoError(err)
	s.Equal(protocol.StatusOK, resp.Status)
	s.Require().Len(resp.Logs, 1)
	s.Equal(log, resp.Logs[0])

	resp, err = s.client.QueryGameLogs("carol")
	s.Require().NoError(err)
	s.Empty(resp.Logs)
}

func (s *ServerSuite) TestUnknownCollection() {
	resp, err := s.client.Do(protocol.DBRequest{Collection: "Widget", Action: "create"})
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)
	s.Equal("unknown_collection", resp.Reason)
}

func (s *ServerSuite) TestMalformedUserData() {
	resp, err := s.client.Do(protocol.DBRequest{
		Collection: protocol.CollectionUser,
		Action:     protocol.DBActionCreate,
		Data:       json.RawMessage(`"not-an-object"`),
	})
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)
	s.Equal(protocol.ReasonInvalidJSON, resp.Reason)
}

func (s *ServerSuite) TestClientAgainstDeadAddress() {
	dead := db.NewClient("127.0.0.1:1", 200*time.Millisecond)
	_, err := dead.Do(protocol.DBRequest{Collection: protocol.CollectionUser, Action: protocol.DBActionQuery})
	s.Require().ErrorIs(err, model.ErrDependencyFailure)
}
