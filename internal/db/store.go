// Package db implements the persistence endpoint: a TCP request/response
// service over the framing transport, plus the one-shot client the lobby and
// game services use to reach it.
package db

import (
	"context"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// Store is the durable storage behind the persistence endpoint.
// Implementations own the storage format; passwords are hashed internally
// and never returned.
type Store interface {
	// CreateUser registers a new account. Fails with model.ErrUserExists on
	// a duplicate username.
	CreateUser(ctx context.Context, username, password string) error

	// Authenticate validates credentials. Fails with
	// model.ErrInvalidCredentials when the user is unknown or the password
	// does not match.
	Authenticate(ctx context.Context, username, password string) error

	// SetUserStatus records a presence string for the user. Fails with
	// model.ErrUserNotFound for unknown users.
	SetUserStatus(ctx context.Context, username, status string) error

	// AppendGameLog stores one immutable settlement record.
	AppendGameLog(ctx context.Context, log model.GameLog) error

	// GameLogs returns settlement records. An empty userID returns all logs;
	// otherwise only logs listing the user as a participant.
	GameLogs(ctx context.Context, userID string) ([]model.GameLog, error)
}
