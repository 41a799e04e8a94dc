package main

import (
	"github.com/spf13/cobra"

	"github.com/maxviazov/agency-travels-service/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect the postgres schema migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := repository.MigrateUp
		if len(args) == 1 {
			dir = repository.MigrateDirection(args[0])
		}
		return repository.Migrate(cmd.Context(), repository.BuildDSN(cfg.Postgres), dir, appLogger)
	},
}
