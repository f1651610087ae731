package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seams-estates/seams/internal/config"
	"github.com/seams-estates/seams/pkg/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "seams",
		Short:         "SEAMS estate management server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Log.Level = v
			}
			a.cfg = cfg
			a.logger = logging.Setup(logging.Options{Level: cfg.Log.Level, JSON: cfg.IsProduction()})
			return nil
		},
	}
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.syncCmd(),
		a.seedCmd(),
		a.createAdminCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.balanceCmd(),
		a.payCmd(),
		a.verifyCmd(),
		a.billCmd(),
		a.notificationsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
