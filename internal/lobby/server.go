// Package lobby implements the entry-point service: authentication, presence,
// rooms, invitations and match launching. One goroutine per accepted
// connection; all cross-connection state lives in the registries.
package lobby

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/franbrizuelab/NPHW2/internal/launcher"
	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
	"github.com/franbrizuelab/NPHW2/internal/registry"
)

// Forwarder is the lobby's view of the persistence service. Satisfied by
// db.Client.
type Forwarder interface {
	CreateUser(username, password string) (*protocol.DBResponse, error)
	QueryUser(username, password string) (*protocol.DBResponse, error)
	UpdateUserStatus(username, status string) (*protocol.DBResponse, error)
}

// Server is the lobby service
type Server struct {
	sessions *registry.SessionRegistry
	rooms    *registry.RoomRegistry
	db       Forwarder
	launcher launcher.Launcher
	logger   *slog.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[*clientConn]struct{}
	wg    sync.WaitGroup
}

// NewServer wires a lobby from its collaborators
func NewServer(db Forwarder, l launcher.Launcher, logger *slog.Logger) *Server {
	return &Server{
		sessions: registry.NewSessionRegistry(),
		rooms:    registry.NewRoomRegistry(),
		db:       db,
		launcher: l,
		logger:   logger,
		conns:    make(map[*clientConn]struct{}),
	}
}

// Sessions exposes the session registry for the admin API
func (s *Server) Sessions() *registry.SessionRegistry {
	return s.sessions
}

// Rooms exposes the room registry for the admin API
func (s *Server) Rooms() *registry.RoomRegistry {
	return s.rooms
}

// Listen binds the lobby's listening socket
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("lobby listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address; only valid after Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until the listener is closed
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		cc := newClientConn(conn)
		s.trackConn(cc)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrackConn(cc)
			h := newHandler(s, cc)
			h.run()
		}()
	}
}

func (s *Server) trackConn(cc *clientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[cc] = struct{}{}
}

func (s *Server) untrackConn(cc *clientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, cc)
}

// Close stops accepting, drops every live client connection, and waits for
// the handlers to unwind
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	for cc := range s.conns {
		_ = cc.Close()
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	return err
}

// watchMatch tears the room down once its game process exits: the room is
// deleted and every surviving member goes back to Online without any client
// action.
func (s *Server) watchMatch(roomID model.RoomID, match *launcher.Match) {
	<-match.Done

	room, ok := s.rooms.Delete(roomID)
	if !ok {
		return
	}
	s.logger.Info("match finished, room torn down",
		slog.String("match_id", string(match.ID)),
		slog.Int("room_id", int(roomID)))

	for _, player := range room.Players {
		if _, ok := s.sessions.Get(player); !ok {
			continue
		}
		s.sessions.SetPresence(player, model.Online())
		if _, err := s.db.UpdateUserStatus(player, model.Online().String()); err != nil {
			s.logger.Warn("failed to persist post-match status",
				slog.String("username", player),
				slog.String("error", err.Error()))
		}
	}
}
