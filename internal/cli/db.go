package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/franbrizuelab/NPHW2/internal/config"
	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/factory"
)

func newDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db",
		Short: "Run the persistence service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB()
		},
	}
}

func runDB() error {
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := factory.New(cfg, logger)
	if err != nil {
		return err
	}

	srv := db.NewServer(app.Store, logger)
	if err := srv.Listen(cfg.DBAddr); err != nil {
		return err
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
