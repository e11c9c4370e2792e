package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *StoreSuite) TestCreateAndAuthenticate() {
	s.Require().NoError(s.store.CreateUser(s.ctx, "alice", "secret"))
	s.Require().NoError(s.store.Authenticate(s.ctx, "alice", "secret"))
}

func (s *StoreSuite) TestDuplicateUsernameRejected() {
	s.Require().NoError(s.store.CreateUser(s.ctx, "alice", "secret"))

	err := s.store.CreateUser(s.ctx, "alice", "other")
	s.Require().ErrorIs(err, model.ErrUserExists)
}

func (s *StoreSuite) TestWrongPasswordRejected() {
	s.Require().NoError(s.store.CreateUser(s.ctx, "alice", "secret"))

	err := s.store.Authenticate(s.ctx, "alice", "wrong")
	s.Require().ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *StoreSuite) TestUnknownUserRejected() {
	err := s.store.Authenticate(s.ctx, "nobody", "secret")
	s.Require().ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *StoreSuite) TestSetUserStatus() {
	s.Require().NoError(s.store.CreateUser(s.ctx, "alice", "secret"))
	s.Require().NoError(s.store.SetUserStatus(s.ctx, "alice", "online"))

	err := s.store.SetUserStatus(s.ctx, "nobody", "online")
	s.Require().ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestGameLogsFilterByParticipant() {
	logA := model.GameLog{MatchID: "m1", Users: []string{"alice", "bob"}, Winner: "P1"}
	logB := model.GameLog{MatchID: "m2", Users: []string{"carol", "dave"}, Winner: "P2"}
	s.Require().NoError(s.store.AppendGameLog(s.ctx, logA))
	s.Require().NoError(s.store.AppendGameLog(s.ctx, logB))

	all, err := s.store.GameLogs(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	aliceLogs, err := s.store.GameLogs(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(aliceLogs, 1)
	s.Equal("m1", aliceLogs[0].MatchID)

	none, err := s.store.GameLogs(s.ctx, "mallory")
	s.Require().NoError(err)
	s.Empty(none)
}
