package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// nopPusher is a Pusher that drops everything
type nopPusher struct{}

func (nopPusher) Push(v any) error { return nil }

type SessionRegistrySuite struct {
	suite.Suite
	registry *SessionRegistry
}

func TestSessionRegistrySuite(t *testing.T) {
	suite.Run(t, new(SessionRegistrySuite))
}

func (s *SessionRegistrySuite) SetupTest() {
	s.registry = NewSessionRegistry()
}

func (s *SessionRegistrySuite) TestRegisterAndGet() {
	s.Require().NoError(s.registry.Register("alice", nopPusher{}))

	sess, ok := s.registry.Get("alice")
	s.Require().True(ok)
	s.Equal("alice", sess.Username)
	s.Equal(model.PresenceOnline, sess.Presence.Kind)
}

func (s *SessionRegistrySuite) TestDuplicateLoginRejected() {
	s.Require().NoError(s.registry.Register("alice", nopPusher{}))

	err := s.registry.Register("alice", nopPusher{})
	s.Require().ErrorIs(err, model.ErrAlreadyLoggedIn)
}

func (s *SessionRegistrySuite) TestUsernameAppearsAtMostOnce() {
	// Concurrent registrations for the same username: exactly one wins.
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.registry.Register("bob", nopPusher{})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			s.ErrorIs(err, model.ErrAlreadyLoggedIn)
		}
	}
	s.Equal(1, won)
	s.Len(s.registry.List(), 1)
}

func (s *SessionRegistrySuite) TestRemoveIsAtomicPop() {
	s.Require().NoError(s.registry.Register("alice", nopPusher{}))

	sess, ok := s.registry.Remove("alice")
	s.Require().True(ok)
	s.Equal("alice", sess.Username)

	_, ok = s.registry.Remove("alice")
	s.False(ok)
}

func (s *SessionRegistrySuite) TestSetPresence() {
	s.Require().NoError(s.registry.Register("alice", nopPusher{}))

	s.registry.SetPresence("alice", model.InRoom(100))

	sess, _ := s.registry.Get("alice")
	s.Equal(model.PresenceInRoom, sess.Presence.Kind)
	s.Equal(model.RoomID(100), sess.Presence.RoomID)
	s.Equal("in_room_100", sess.Presence.String())
}

func (s *SessionRegistrySuite) TestSetPresenceOnMissingSessionIsNoop() {
	s.registry.SetPresence("ghost", model.InGame("m1"))
	_, ok := s.registry.Get("ghost")
	s.False(ok)
}

func (s *SessionRegistrySuite) TestList() {
	s.Require().NoError(s.registry.Register("alice", nopPusher{}))
	s.Require().NoError(s.registry.Register("bob", nopPusher{}))

	sessions := s.registry.List()
	s.Len(sessions, 2)
}
