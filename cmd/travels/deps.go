package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/agency-travels-service/internal/config"
	"github.com/maxviazov/agency-travels-service/internal/handler"
	"github.com/maxviazov/agency-travels-service/internal/portal"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/maxviazov/agency-travels-service/internal/repository/postgres"
)

const agencyCatalogTTL = time.Hour

// sources are the data-source implementations selected by app.source.
type sources struct {
	agencies repository.AgencyRepository
	travels  repository.TravelRepository
	pinger   handler.Pinger
	// pageSize is what one travels page holds; the portal fixes it upstream.
	pageSize int
	close    func()
}

func openSources(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sources, error) {
	switch cfg.App.Source {
	case "portal":
		client := portal.NewClient(cfg.Portal, nil, log)
		return &sources{
			agencies: portal.NewAgencyCatalog(client, agencyCatalogTTL),
			travels:  client,
			pageSize: portal.PageSize,
			close:    func() {},
		}, nil
	case "postgres":
		repo, err := repository.New(ctx, cfg, &log)
		if err != nil {
			return nil, err
		}
		pool := repo.Pool()
		return &sources{
			agencies: postgres.NewAgencyRepository(pool),
			travels:  postgres.NewTravelRepository(pool, cfg.Pagination.PageSize),
			pinger:   postgres.NewPinger(pool),
			pageSize: cfg.Pagination.PageSize,
			close:    repo.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.App.Source)
	}
}
