package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxviazov/agency-travels-service/internal/portal"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/maxviazov/agency-travels-service/internal/repository/postgres"
	"github.com/maxviazov/agency-travels-service/internal/service"
)

var errPortalKeyRequired = errors.New("sync needs portal.api_key (APP_PORTAL_API_KEY)")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy agencies or travels from the portal into PostgreSQL",
}

var syncAgenciesCmd = &cobra.Command{
	Use:   "agencies",
	Short: "Import the full agency list",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := newSyncService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		rep, err := svc.SyncAgencies(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %d agencies synced in %s\n", rep.Agencies, rep.Took)
		return nil
	},
}

var syncTravelsCmd = &cobra.Command{
	Use:   "travels <agency-code>",
	Short: "Import every travel page of an agency inside a date window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startFrom, _ := cmd.Flags().GetString("start-from")
		startUntil, _ := cmd.Flags().GetString("start-until")
		endFrom, _ := cmd.Flags().GetString("end-from")
		endUntil, _ := cmd.Flags().GetString("end-until")

		svc, closeFn, err := newSyncService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		filter := service.NewSearchFilter(startFrom, startUntil, endFrom, endUntil)
		rep, err := svc.SyncTravels(cmd.Context(), args[0], filter)
		if err != nil {
			if fe, ok := service.TravelFieldErrorsOf(err); ok {
				printFieldErrors(cmd.ErrOrStderr(), fe)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %d travels in %d pages synced in %s\n", rep.Travels, rep.Pages, rep.Took)
		return nil
	},
}

func init() {
	for _, f := range []string{"start-from", "start-until", "end-from", "end-until"} {
		syncTravelsCmd.Flags().String(f, "", f+" date (dd/mm/yyyy)")
	}
	syncCmd.AddCommand(syncAgenciesCmd)
	syncCmd.AddCommand(syncTravelsCmd)
}

// newSyncService always reads from the portal and writes to postgres,
// whatever app.source says.
func newSyncService(ctx context.Context) (*service.SyncService, func(), error) {
	if cfg.Portal.APIKey == "" {
		return nil, nil, errPortalKeyRequired
	}
	repo, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		return nil, nil, err
	}
	pool := repo.Pool()
	client := portal.NewClient(cfg.Portal, nil, appLogger)
	svc := service.NewSyncService(
		portal.NewAgencyCatalog(client, 0),
		client,
		postgres.NewAgencyRepository(pool),
		postgres.NewTravelRepository(pool, cfg.Pagination.PageSize),
		postgres.NewTxManager(pool),
		portal.PageSize,
		appLogger,
	)
	return svc, repo.Close, nil
}
