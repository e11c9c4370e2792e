package lobby

import (
	"net"
	"sync"

	"github.com/franbrizuelab/NPHW2/internal/protocol"
	"github.com/franbrizuelab/NPHW2/internal/registry"
)

// clientConn wraps one accepted connection. Replies come from the owning
// handler goroutine while pushes arrive from other users' handlers, so every
// write goes through one mutex.
type clientConn struct {
	conn net.Conn

	mu sync.Mutex
}

var _ registry.Pusher = (*clientConn)(nil)

func newClientConn(conn net.Conn) *clientConn {
	return &clientConn{conn: conn}
}

// Push serializes v as one frame on the connection
func (c *clientConn) Push(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return protocol.WriteJSON(c.conn, v)
}

// Read decodes the next request frame. Only the handler goroutine reads.
func (c *clientConn) Read(req *protocol.LobbyRequest) error {
	return protocol.ReadJSON(c.conn, req)
}

func (c *clientConn) Close() error {
	return c.conn.Close()
}

func (c *clientConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
