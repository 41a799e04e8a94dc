package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxviazov/agency-travels-service/internal/config"
	"github.com/maxviazov/agency-travels-service/internal/logger"
)

var (
	configPath string

	cfg       *config.Config
	appLogger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "travels",
	Short:         "Browse official travel expenses of federal agencies",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config loading failed: %w", err)
		}
		appLogger, err = logger.New(&cfg.Logger)
		if err != nil {
			return fmt.Errorf("logger initialization failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
}

func defaultConfigPath() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
