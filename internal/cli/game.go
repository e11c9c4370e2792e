package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franbrizuelab/NPHW2/internal/config"
	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/dependencies/clock"
	"github.com/franbrizuelab/NPHW2/internal/dependencies/random"
	"github.com/franbrizuelab/NPHW2/internal/engine"
	"github.com/franbrizuelab/NPHW2/internal/game"
	"github.com/franbrizuelab/NPHW2/internal/model"
)

func newGameCmd() *cobra.Command {
	var (
		port    int
		matchID string
		p1      string
		p2      string
	)

	cmd := &cobra.Command{
		Use:   "game",
		Short: "Run one authoritative match (spawned by the lobby)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGame(port, matchID, p1, p2)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on")
	cmd.Flags().StringVar(&matchID, "match-id", "", "Match identifier")
	cmd.Flags().StringVar(&p1, "p1", "", "Username seated as P1")
	cmd.Flags().StringVar(&p2, "p2", "", "Username seated as P2")
	_ = cmd.MarkFlagRequired("port")
	_ = cmd.MarkFlagRequired("match-id")
	_ = cmd.MarkFlagRequired("p1")
	_ = cmd.MarkFlagRequired("p2")

	return cmd
}

func runGame(port int, matchID, p1, p2 string) error {
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}

	svc, err := game.New(game.Config{
		MatchID:  model.MatchID(matchID),
		P1:       p1,
		P2:       p2,
		Gravity:  cfg.GravityInterval,
		Factory:  engine.NewEngine,
		Reporter: db.NewClient(cfg.DBAddr, cfg.DBTimeout),
		Random:   random.New(),
		Clock:    clock.New(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.GameHost, strconv.Itoa(port))
	if err := svc.Listen(addr); err != nil {
		return err
	}
	return svc.Run()
}
