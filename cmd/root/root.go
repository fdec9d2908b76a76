// Package root contains the root command for the application.
package root

import (
	"os"
	"path/filepath"

	"github.com/rullmann/portfolio-now-sub005/internal/config"
	"github.com/rullmann/portfolio-now-sub005/internal/container"
	"github.com/rullmann/portfolio-now-sub005/internal/validation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands.
	Log = logrus.New()

	// App is the dependency container, wired in PersistentPreRunE.
	App *container.Container

	// Flags shared across commands.
	DataDir        string
	ConversationID string

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "portfolio-now",
		Short: "AI assistant for a personal investment portfolio",
		Long: `portfolio-now chats with an AI assistant about your portfolio, extracts
transactions from bank and broker documents, and imports what you confirm.
Every mutation starts as a pending suggestion the assistant proposes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			if DataDir != "" {
				cfg.Data.Directory = DataDir
			}
			if cfg.Data.Directory == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Data.Directory = filepath.Join(home, ".portfolio-now", "data")
			}
			if err := validation.IsValidDataDir(cfg.Data.Directory); err != nil {
				return err
			}

			App, err = container.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			Log = App.GetLogger()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if App != nil {
				if err := App.Close(); err != nil {
					Log.Warnf("Failed to close container: %v", err)
				}
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to portfolio-now!")
			Log.Info("Use --help to see available commands")
		},
	}
)

// Init registers persistent flags. Called once from main before subcommands
// are attached.
func Init() {
	Cmd.PersistentFlags().StringVar(&DataDir, "data-dir", "", "Data directory (default $HOME/.portfolio-now/data)")
	Cmd.PersistentFlags().StringVarP(&ConversationID, "conversation", "c", "", "Conversation id to continue")
}
