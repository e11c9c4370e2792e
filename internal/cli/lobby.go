package cli

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/franbrizuelab/NPHW2/internal/admin"
	"github.com/franbrizuelab/NPHW2/internal/config"
	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/launcher"
	"github.com/franbrizuelab/NPHW2/internal/lobby"
)

func newLobbyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lobby",
		Short: "Run the lobby service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLobby()
		},
	}
}

func runLobby() error {
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbClient := db.NewClient(cfg.DBAddr, cfg.DBTimeout)
	spawner := launcher.NewProcessLauncher(cfg.GameHost, cfg.GamePortBase, logger)
	srv := lobby.NewServer(dbClient, spawner, logger)

	if err := srv.Listen(cfg.LobbyAddr); err != nil {
		return err
	}

	if cfg.AdminAddr != "" {
		router := admin.NewRouter(admin.RouterConfig{
			Logger:   logger,
			Sessions: srv.Sessions(),
			Rooms:    srv.Rooms(),
		})
		go func() {
			logger.Info("admin api listening", slog.String("addr", cfg.AdminAddr))
			if err := http.ListenAndServe(cfg.AdminAddr, router); err != nil {
				logger.Error("admin api failed", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		_ = srv.Close()
	}()

	return srv.Serve()
}
