package db

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
)

// Client talks to the persistence endpoint. Each call opens a fresh
// connection, sends one request and reads one response.
type Client struct {
	addr    string
	timeout time.Duration
}

// NewClient creates a persistence client for the given address
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Do performs one request/response exchange
func (c *Client) Do(req protocol.DBRequest) (*protocol.DBResponse, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDependencyFailure, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if err := protocol.WriteJSON(conn, req); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDependencyFailure, err)
	}

	var resp protocol.DBResponse
	if err := protocol.ReadJSON(conn, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDependencyFailure, err)
	}
	return &resp, nil
}

func (c *Client) doUser(action string, data protocol.DBUserData) (*protocol.DBResponse, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return c.Do(protocol.DBRequest{
		Collection: protocol.CollectionUser,
		Action:     action,
		Data:       payload,
	})
}

// CreateUser registers a new user record
func (c *Client) CreateUser(username, password string) (*protocol.DBResponse, error) {
	return c.doUser(protocol.DBActionCreate, protocol.DBUserData{
		Username: username,
		Password: password,
	})
}

// QueryUser checks the given credentials
func (c *Client) QueryUser(username, password string) (*protocol.DBResponse, error) {
	return c.doUser(protocol.DBActionQuery, protocol.DBUserData{
		Username: username,
		Password: password,
	})
}

// UpdateUserStatus persists a user's presence string
func (c *Client) UpdateUserStatus(username, status string) (*protocol.DBResponse, error) {
	return c.doUser(protocol.DBActionUpdate, protocol.DBUserData{
		Username: username,
		Status:   status,
	})
}

// CreateGameLog persists a finished match's settlement record
func (c *Client) CreateGameLog(log model.GameLog) (*protocol.DBResponse, error) {
	payload, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	return c.Do(protocol.DBRequest{
		Collection: protocol.CollectionGameLog,
		Action:     protocol.DBActionCreate,
		Data:       payload,
	})
}

// QueryGameLogs fetches settlement records, filtered by user when userID is
// non-empty
func (c *Client) QueryGameLogs(userID string) (*protocol.DBResponse, error) {
	payload, err := json.Marshal(protocol.DBGameLogQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	return c.Do(protocol.DBRequest{
		Collection: protocol.CollectionGameLog,
		Action:     protocol.DBActionQuery,
		Data:       payload,
	})
}
