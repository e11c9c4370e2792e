// Package game runs one authoritative match between two connected players.
//
// The service moves through four phases: waiting for both seats to connect,
// running the fixed-tick loop, settling the result, then terminating. The
// loop goroutine is the only mutator of the engines; per-seat receiver
// goroutines forward decoded inputs over a shared channel.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/franbrizuelab/NPHW2/internal/dependencies/clock"
	"github.com/franbrizuelab/NPHW2/internal/dependencies/random"
	"github.com/franbrizuelab/NPHW2/internal/engine"
	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
)

// eventBuffer sizes the shared input channel; inputs past this are dropped
// at the sender rather than blocking a receiver goroutine
const eventBuffer = 64

// pollInterval bounds how long the loop sleeps between passes when no
// gravity step is due
const pollInterval = 10 * time.Millisecond

// Reporter persists a finished match's settlement record. Satisfied by
// db.Client.
type Reporter interface {
	CreateGameLog(log model.GameLog) (*protocol.DBResponse, error)
}

// Config carries everything a match needs
type Config struct {
	MatchID  model.MatchID
	P1       string
	P2       string
	Gravity  time.Duration
	Factory  engine.Factory
	Reporter Reporter
	Random   random.Random
	Clock    clock.Clock
	Logger   *slog.Logger
}

// seatEvent is one decoded message from a seat's receiver goroutine
type seatEvent struct {
	seat         model.Seat
	action       string
	forfeit      bool
	disconnected bool
}

// Service is one match instance
type Service struct {
	cfg  Config
	seed int64

	ln      net.Listener
	conns   [2]net.Conn
	engines [2]engine.Engine
	events  chan seatEvent
}

// New creates a match service. The engine seed is generated here so both
// seats receive it in their WELCOME.
func New(cfg Config) (*Service, error) {
	if cfg.P1 == "" || cfg.P2 == "" {
		return nil, fmt.Errorf("both player names are required")
	}
	if cfg.Gravity <= 0 {
		return nil, fmt.Errorf("gravity interval must be positive")
	}
	if cfg.Factory == nil {
		cfg.Factory = engine.NewEngine
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Service{
		cfg:    cfg,
		seed:   cfg.Random.Int63(),
		events: make(chan seatEvent, eventBuffer),
	}, nil
}

// Listen binds the match's listening socket
func (s *Service) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.cfg.Logger.Info("game service listening",
		slog.String("match_id", string(s.cfg.MatchID)),
		slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address; only valid after Listen
func (s *Service) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Run plays the match to completion: waits for both seats, runs the loop,
// settles, and closes everything down
func (s *Service) Run() error {
	defer s.close()

	if err := s.waitForSeats(); err != nil {
		return err
	}

	for seat := range s.engines {
		s.engines[seat] = s.cfg.Factory(s.seed)
	}
	for _, seat := range []model.Seat{model.SeatP1, model.SeatP2} {
		go s.receive(seat)
	}

	winner := s.runLoop()
	s.settle(winner)
	return nil
}

// waitForSeats accepts connections until both seats have been welcomed. A
// connection whose WELCOME cannot be delivered is dropped and its seat kept
// open.
func (s *Service) waitForSeats() error {
	for seat := model.SeatP1; int(seat) < len(s.conns); {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}

		welcome := protocol.Welcome{
			Type: protocol.TypeWelcome,
			Role: seat.Role(),
			Seed: s.seed,
		}
		if err := protocol.WriteJSON(conn, welcome); err != nil {
			s.cfg.Logger.Warn("dropping connection, welcome failed",
				slog.String("match_id", string(s.cfg.MatchID)),
				slog.String("error", err.Error()))
			_ = conn.Close()
			continue
		}

		s.cfg.Logger.Info("seat connected",
			slog.String("match_id", string(s.cfg.MatchID)),
			slog.String("role", seat.Role()))
		s.conns[seat] = conn
		seat++
	}
	return nil
}

// receive reads one seat's messages and forwards them to the loop. A read
// error of any kind counts as a disconnect.
func (s *Service) receive(seat model.Seat) {
	conn := s.conns[seat]
	for {
		var msg protocol.GameInput
		if err := protocol.ReadJSON(conn, &msg); err != nil {
			if !errors.Is(err, protocol.ErrClosed) {
				s.cfg.Logger.Warn("seat read error",
					slog.String("role", seat.Role()),
					slog.String("error", err.Error()))
			}
			s.events <- seatEvent{seat: seat, disconnected: true}
			return
		}

		switch msg.Type {
		case protocol.TypeForfeit:
			s.events <- seatEvent{seat: seat, forfeit: true}
			return
		case protocol.TypeInput:
			select {
			case s.events <- seatEvent{seat: seat, action: msg.Action}:
			default:
				// input flood; drop rather than stall the reader
			}
		default:
			// unknown message types are ignored
		}
	}
}

// runLoop is the authoritative match loop. It alone touches the engines.
// Every pass drains the queued inputs in arrival order before deciding
// whether a gravity step is due, so an input queued ahead of a tick boundary
// always lands before that tick. Returns the winner role, or DRAW.
func (s *Service) runLoop() string {
	lastTick := s.cfg.Clock.Now()

	for {
		if winner, done := s.drainInputs(); done {
			return winner
		}
		if winner, done := s.outcome(); done {
			return winner
		}

		if now := s.cfg.Clock.Now(); now.Sub(lastTick) >= s.cfg.Gravity {
			lastTick = now
			for _, e := range s.engines {
				if !e.Over() {
					e.Tick()
				}
			}
			// Snapshots go out only on tick boundaries so both seats see
			// the same sequence
			s.broadcastSnapshot()
			continue
		}
		time.Sleep(pollInterval)
	}
}

// drainInputs applies everything currently queued, FIFO. A disconnect or
// forfeit ends the match on the spot.
func (s *Service) drainInputs() (string, bool) {
	for {
		select {
		case ev := <-s.events:
			if ev.disconnected || ev.forfeit {
				s.cfg.Logger.Info("seat left the match",
					slog.String("match_id", string(s.cfg.MatchID)),
					slog.String("role", ev.seat.Role()),
					slog.Bool("forfeit", ev.forfeit))
				return ev.seat.Other().Role(), true
			}
			s.apply(ev)
		default:
			return "", false
		}
	}
}

// apply feeds one input action into its seat's engine. Inputs for a dead
// board are discarded.
func (s *Service) apply(ev seatEvent) {
	e := s.engines[ev.seat]
	if e.Over() {
		return
	}
	switch ev.action {
	case protocol.InputMoveLeft:
		e.MoveLeft()
	case protocol.InputMoveRight:
		e.MoveRight()
	case protocol.InputRotate:
		e.Rotate()
	case protocol.InputSoftDrop:
		e.SoftDrop()
	case protocol.InputHardDrop:
		e.HardDrop()
	}
}

// outcome inspects both boards. Both dead on the same tick is a draw.
func (s *Service) outcome() (string, bool) {
	o1 := s.engines[model.SeatP1].Over()
	o2 := s.engines[model.SeatP2].Over()
	switch {
	case o1 && o2:
		return model.WinnerDraw, true
	case o1:
		return model.SeatP2.Role(), true
	case o2:
		return model.SeatP1.Role(), true
	default:
		return "", false
	}
}

// broadcastSnapshot sends the identical authoritative state to both seats
func (s *Service) broadcastSnapshot() {
	snap := protocol.Snapshot{
		Type:    protocol.TypeSnapshot,
		P1State: s.engines[model.SeatP1].Snapshot(),
		P2State: s.engines[model.SeatP2].Snapshot(),
	}
	s.broadcast(snap)
}

// settle persists the settlement record and tells both seats the result.
// Persistence failure is logged but never blocks delivery of GAME_OVER.
func (s *Service) settle(winner string) {
	results := [2]model.SeatResult{}
	users := [2]string{s.cfg.P1, s.cfg.P2}
	for seat, e := range s.engines {
		results[seat] = model.SeatResult{
			UserID: users[seat],
			Score:  e.Score(),
			Lines:  e.Lines(),
		}
	}

	log := model.GameLog{
		MatchID: string(s.cfg.MatchID),
		Users:   users[:],
		Results: results[:],
		Winner:  winner,
	}

	if s.cfg.Reporter != nil {
		if resp, err := s.cfg.Reporter.CreateGameLog(log); err != nil {
			s.cfg.Logger.Error("failed to persist gamelog",
				slog.String("match_id", string(s.cfg.MatchID)),
				slog.String("error", err.Error()))
		} else if resp.Status != protocol.StatusOK {
			s.cfg.Logger.Error("gamelog rejected",
				slog.String("match_id", string(s.cfg.MatchID)),
				slog.String("reason", resp.Reason))
		}
	}

	s.broadcast(protocol.GameOver{
		Type:      protocol.TypeGameOver,
		Winner:    winner,
		P1Results: results[model.SeatP1],
		P2Results: results[model.SeatP2],
	})

	s.cfg.Logger.Info("match settled",
		slog.String("match_id", string(s.cfg.MatchID)),
		slog.String("winner", winner))
}

// broadcast writes one message to every still-open seat. Write failures are
// treated as that seat having gone away.
func (s *Service) broadcast(v any) {
	for seat, conn := range s.conns {
		if conn == nil {
			continue
		}
		if err := protocol.WriteJSON(conn, v); err != nil {
			_ = conn.Close()
			s.conns[seat] = nil
		}
	}
}

func (s *Service) close() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for _, conn := range s.conns {
		if conn != nil {
			_ = conn.Close()
		}
	}
}
