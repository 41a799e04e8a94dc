package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/maxviazov/agency-travels-service/migrations"
)

// MigrateDirection selects which goose command Migrate runs.
type MigrateDirection string

const (
	MigrateUp     MigrateDirection = "up"
	MigrateDown   MigrateDirection = "down"
	MigrateStatus MigrateDirection = "status"
)

// gooseLogger routes goose output into zerolog.
type gooseLogger struct{ log zerolog.Logger }

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info().Msgf(format, v...)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal().Msgf(format, v...)
}

// Migrate applies the embedded migrations to the database behind dsn.
func Migrate(ctx context.Context, dsn string, dir MigrateDirection, logger zerolog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{log: logger.With().Str("module", "migrate").Logger()})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch dir {
	case MigrateUp:
		err = goose.UpContext(ctx, db, ".")
	case MigrateDown:
		err = goose.DownContext(ctx, db, ".")
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migrate direction %q", dir)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	return nil
}
