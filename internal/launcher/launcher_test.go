package launcher

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindFreePortReturnsBindablePort(t *testing.T) {
	port, err := FindFreePort("127.0.0.1", 21001)
	require.NoError(t, err)
	require.GreaterOrEqual(t, port, 21001)

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	_ = ln.Close()
}

func TestFindFreePortSkipsOccupiedPort(t *testing.T) {
	// Occupy the base port so probing has to move past it
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	base := ln.Addr().(*net.TCPAddr).Port
	port, err := FindFreePort("127.0.0.1", base)
	require.NoError(t, err)
	require.Greater(t, port, base)
}
