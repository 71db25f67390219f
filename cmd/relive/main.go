package main

import (
	"os"

	"github.com/relive/relive/cmd/relive/cmd"
	"github.com/relive/relive/internal/config"
	"github.com/relive/relive/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "relive",
		Short: "Maintenance tools for ReLive",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppName)
		},
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ImportCmd())

	err := rootCmd.Execute()
	logger.Flush()
	if err != nil {
		os.Exit(1)
	}
}
