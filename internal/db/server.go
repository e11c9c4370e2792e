package db

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
)

// requestTimeout bounds one request/response cycle against the store
const requestTimeout = 10 * time.Second

// Server is the persistence endpoint. Each accepted connection carries
// exactly one request and receives exactly one response.
type Server struct {
	store  Store
	logger *slog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer creates a persistence server over the given store
func NewServer(store Store, logger *slog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Listen binds the listening socket
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("database server listening", slog.String("addr", ln.Addr().String()))
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
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting and waits for in-flight requests
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	var req protocol.DBRequest
	if err := protocol.ReadJSON(conn, &req); err != nil {
		if errors.Is(err, protocol.ErrClosed) {
			return
		}
		s.logger.Warn("bad request", slog.String("error", err.Error()))
		s.respond(conn, protocol.DBResponse{
			Status: protocol.StatusError,
			Reason: protocol.ReasonInvalidJSON,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp := s.process(ctx, req)
	s.respond(conn, resp)
}

func (s *Server) respond(conn net.Conn, resp protocol.DBResponse) {
	if err := protocol.WriteJSON(conn, resp); err != nil {
		s.logger.Warn("failed to send response", slog.String("error", err.Error()))
	}
}

// process dispatches one request to the store
func (s *Server) process(ctx context.Context, req protocol.DBRequest) protocol.DBResponse {
	switch req.Collection {
	case protocol.CollectionUser:
		return s.processUser(ctx, req)
	case protocol.CollectionGameLog:
		return s.processGameLog(ctx, req)
	default:
		return protocol.DBResponse{Status: protocol.StatusError, Reason: "unknown_collection"}
	}
}

func (s *Server) processUser(ctx context.Context, req protocol.DBRequest) protocol.DBResponse {
	var data protocol.DBUserData
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonInvalidJSON}
		}
	}

	switch req.Action {
	case protocol.DBActionCreate:
		if data.Username == "" || data.Password == "" {
			return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonMissingFields}
		}
		if err := s.store.CreateUser(ctx, data.Username, data.Password); err != nil {
			return s.storeError(err)
		}
		s.logger.Info("registered new user", slog.String("username", data.Username))
		return protocol.DBResponse{Status: protocol.StatusOK}

	case protocol.DBActionQuery:
		if data.Username == "" || data.Password == "" {
			return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonMissingFields}
		}
		if err := s.store.Authenticate(ctx, data.Username, data.Password); err != nil {
			s.logger.Warn("login failed", slog.String("username", data.Username))
			return s.storeError(err)
		}
		s.logger.Info("login successful", slog.String("username", data.Username))
		return protocol.DBResponse{
			Status: protocol.StatusOK,
			User:   &protocol.DBUser{Username: data.Username},
		}

	case protocol.DBActionUpdate:
		if data.Username == "" || data.Status == "" {
			return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonMissingFields}
		}
		if err := s.store.SetUserStatus(ctx, data.Username, data.Status); err != nil {
			return s.storeError(err)
		}
		s.logger.Info("updated user status",
			slog.String("username", data.Username),
			slog.String("status", data.Status))
		return protocol.DBResponse{Status: protocol.StatusOK}

	default:
		return protocol.DBResponse{Status: protocol.StatusError, Reason: "unknown_action"}
	}
}

func (s *Server) processGameLog(ctx context.Context, req protocol.DBRequest) protocol.DBResponse {
	switch req.Action {
	case protocol.DBActionCreate:
		var log model.GameLog
		if len(req.Data) == 0 {
			return protocol.DBResponse{Status: protocol.StatusError, Reason: "missing_gamelog_data"}
		}
		if err := json.Unmarshal(req.Data, &log); err != nil {
			return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonInvalidJSON}
		}
		if err := s.store.AppendGameLog(ctx, log); err != nil {
			return s.storeError(err)
		}
		s.logger.Info("saved gamelog", slog.String("match_id", log.MatchID))
		return protocol.DBResponse{Status: protocol.StatusOK}

	case protocol.DBActionQuery:
		var query protocol.DBGameLogQuery
		if len(req.Data) > 0 {
			if err := json.Unmarshal(req.Data, &query); err != nil {
				return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonInvalidJSON}
			}
		}
		logs, err := s.store.GameLogs(ctx, query.UserID)
		if err != nil {
			return s.storeError(err)
		}
		return protocol.DBResponse{Status: protocol.StatusOK, Logs: logs}

	default:
		return protocol.DBResponse{Status: protocol.StatusError, Reason: "unknown_action"}
	}
}

func (s *Server) storeError(err error) protocol.DBResponse {
	switch {
	case errors.Is(err, model.ErrUserExists),
		errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrUserNotFound):
		return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.Reason(err)}
	default:
		s.logger.Error("store error", slog.String("error", err.Error()))
		return protocol.DBResponse{Status: protocol.StatusError, Reason: protocol.ReasonInternalServerError}
	}
}
