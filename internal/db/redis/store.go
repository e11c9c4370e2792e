// Package redis is the Redis-backed implementation of the persistence store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/model"
)

// userRecord is the stored JSON shape of a user
type userRecord struct {
	PasswordHash string `json:"password_hash"`
	Status       string `json:"status"`
}

// Store is a Redis-backed implementation of the db.Store interface
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis store and verifies the connection
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ db.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	data, err := json.Marshal(userRecord{PasswordHash: string(hash), Status: "offline"})
	if err != nil {
		return err
	}

	// SETNX makes the duplicate check atomic
	ok, err := s.client.SetNX(ctx, userKey(username), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUserExists
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, username string) (*userRecord, error) {
	data, err := s.client.Get(ctx, userKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	rec, err := s.getUser(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.ErrInvalidCredentials
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return model.ErrInvalidCredentials
	}
	return nil
}

func (s *Store) SetUserStatus(ctx context.Context, username, status string) error {
	rec, err := s.getUser(ctx, username)
	if err != nil {
		return err
	}
	rec.Status = status

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey(username), data, 0).Err()
}

func (s *Store) AppendGameLog(ctx context.Context, log model.GameLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, gameLogsKey(), data).Err()
}

func (s *Store) GameLogs(ctx context.Context, userID string) ([]model.GameLog, error) {
	entries, err := s.client.LRange(ctx, gameLogsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.GameLog, 0, len(entries))
	for _, entry := range entries {
		var log model.GameLog
		if err := json.Unmarshal([]byte(entry), &log); err != nil {
			return nil, err
		}
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
