// Package memory is the default in-process implementation of the persistence
// store.
package memory

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/model"
)

type userRecord struct {
	passwordHash []byte
	status       string
}

// Store is an in-memory implementation of the db.Store interface
type Store struct {
	mu    sync.RWMutex
	users map[string]*userRecord
	logs  []model.GameLog
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		users: make(map[string]*userRecord),
	}
}

// Ensure Store implements the interface
var _ db.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return model.ErrUserExists
	}
	s.users[username] = &userRecord{passwordHash: hash, status: "offline"}
	return nil
}

func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	s.mu.RLock()
	rec, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)); err != nil {
		return model.ErrInvalidCredentials
	}
	return nil
}

func (s *Store) SetUserStatus(ctx context.Context, username, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[username]
	if !ok {
		return model.ErrUserNotFound
	}
	rec.status = status
	return nil
}

func (s *Store) AppendGameLog(ctx context.Context, log model.GameLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func (s *Store) GameLogs(ctx context.Context, userID string) ([]model.GameLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.GameLog, 0, len(s.logs))
	for _, log := range s.logs {
		if userID == "" || logLists(log, userID) {
			out = append(out, log)
		}
	}
	return out, nil
}

func logLists(log model.GameLog, userID string) bool {
	for _, u := range log.Users {
		if u == userID {
			return true
		}
	}
	return false
}
