// Package launcher spawns one game service process per match and tracks its
// lifetime.
package launcher

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strconv"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// maxPortProbes bounds the upward scan for a free port
const maxPortProbes = 200

// Match describes a spawned game service
type Match struct {
	ID   model.MatchID
	Host string
	Port int

	// Done is closed when the game process exits
	Done <-chan struct{}
}

// Launcher starts game services for rooms that are ready to play
type Launcher interface {
	Launch(id model.MatchID, p1, p2 string) (*Match, error)
}

// FindFreePort probes upward from base and returns the first port that can
// be bound on the given host
func FindFreePort(host string, base int) (int, error) {
	for port := base; port < base+maxPortProbes; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in [%d, %d)", base, base+maxPortProbes)
}

// ProcessLauncher runs each match as a child process of the lobby, invoking
// this same binary with the game subcommand
type ProcessLauncher struct {
	host     string
	basePort int
	logger   *slog.Logger
}

var _ Launcher = (*ProcessLauncher)(nil)

// NewProcessLauncher creates a launcher binding game services on host,
// probing ports upward from basePort
func NewProcessLauncher(host string, basePort int, logger *slog.Logger) *ProcessLauncher {
	return &ProcessLauncher{host: host, basePort: basePort, logger: logger}
}

// Launch picks a free port, spawns the game process and returns once the
// child is started. The returned Match's Done channel closes when the child
// exits.
func (l *ProcessLauncher) Launch(id model.MatchID, p1, p2 string) (*Match, error) {
	port, err := FindFreePort(l.host, l.basePort)
	if err != nil {
		return nil, err
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "game",
		"--port", strconv.Itoa(port),
		"--match-id", string(id),
		"--p1", p1,
		"--p2", p2,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	l.logger.Info("spawned game service",
		slog.String("match_id", string(id)),
		slog.Int("port", port),
		slog.Int("pid", cmd.Process.Pid))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			l.logger.Warn("game service exited with error",
				slog.String("match_id", string(id)),
				slog.String("error", err.Error()))
			return
		}
		l.logger.Info("game service exited", slog.String("match_id", string(id)))
	}()

	return &Match{ID: id, Host: l.host, Port: port, Done: done}, nil
}
