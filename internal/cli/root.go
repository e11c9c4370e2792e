// Package cli defines the tetrisd command tree. One binary carries every
// service so the lobby can respawn itself as a per-match game process.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tetrisd",
		Short: "Backend for the two-player competitive block puzzle game",
		Long: `tetrisd runs the game's backend services.

The lobby service handles accounts, presence, rooms and invitations; the db
service owns persistence; the game subcommand runs a single authoritative
match and is normally spawned by the lobby. The client subcommand is an
interactive smoke-test console.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newLobbyCmd())
	rootCmd.AddCommand(newDBCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newClientCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger sets up the process-wide JSON logger
func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
