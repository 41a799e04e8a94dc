package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/rs/zerolog"
)

// maxSyncPages caps a single travel sync so a misbehaving upstream can't loop forever.
const maxSyncPages = 1000

// AgencySource yields the full agency list from upstream.
type AgencySource interface {
	FetchAll(ctx context.Context) ([]model.PublicAgency, error)
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	Agencies int           `json:"agencies"`
	Travels  int           `json:"travels"`
	Pages    int           `json:"pages"`
	Took     time.Duration `json:"took"`
}

// SyncService copies upstream data into local storage.
type SyncService struct {
	agencySrc AgencySource
	travelSrc repository.TravelRepository
	agencies  repository.AgencyWriter
	travels   repository.TravelWriter
	tx        repository.TxManager
	pageSize  int
	log       zerolog.Logger
}

func NewSyncService(agencySrc AgencySource, travelSrc repository.TravelRepository, agencies repository.AgencyWriter, travels repository.TravelWriter, tx repository.TxManager, pageSize int, logger zerolog.Logger) *SyncService {
	l := logger.With().Str("module", "service").Str("component", "sync").Logger()
	return &SyncService{agencySrc: agencySrc, travelSrc: travelSrc, agencies: agencies, travels: travels, tx: tx, pageSize: pageSize, log: l}
}

// SyncAgencies replaces-or-inserts the whole agency list in one transaction.
func (s *SyncService) SyncAgencies(ctx context.Context) (SyncReport, error) {
	start := time.Now()
	all, err := s.agencySrc.FetchAll(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("fetch agencies: %w", err)
	}
	var n int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.agencies.UpsertAgencies(ctx, all)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int("fetched", len(all)).Msg("agency sync failed")
		return SyncReport{}, err
	}
	rep := SyncReport{Agencies: n, Took: time.Since(start)}
	s.log.Info().Int("agencies", n).Dur("took", rep.Took).Msg("agencies synced")
	return rep, nil
}

// SyncTravels walks every page of the agency's travels inside the filter and
// stores them; all pages commit together or not at all.
func (s *SyncService) SyncTravels(ctx context.Context, agencyCode string, filter model.SearchFilter) (SyncReport, error) {
	start := time.Now()
	filter = NewSearchFilter(filter.StartDateFrom, filter.StartDateUntil, filter.EndDateFrom, filter.EndDateUntil)
	if err := ValidateSearchFilter(filter); err != nil {
		return SyncReport{}, err
	}

	var pages [][]model.Travel
	fetch := func(ctx context.Context, f model.SearchFilter, page int) ([]model.Travel, error) {
		return s.travelSrc.GetAllInsidePeriod(ctx, f, agencyCode, page)
	}
	pager := NewPaginator(fetch, PaginatorOptions[model.SearchFilter]{PageSize: s.pageSize, Logger: &s.log})
	unsubscribe := pager.Subscribe(func(ev Event[model.Travel]) {
		if ev.Kind == EventItemsUpdated && len(ev.Items) > 0 {
			pages = append(pages, ev.Items)
		}
	})
	defer unsubscribe()

	if err := pager.StartSearch(ctx, filter); err != nil {
		return SyncReport{}, err
	}
	for fetched := 1; pager.State().Status != StatusEndReached; fetched++ {
		if fetched >= maxSyncPages {
			return SyncReport{}, errors.New("sync aborted: page limit reached")
		}
		if err := pager.Paginate(ctx); err != nil {
			return SyncReport{}, err
		}
	}

	var stored int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, page := range pages {
			n, err := s.travels.UpsertTravels(ctx, page)
			if err != nil {
				return err
			}
			stored += n
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("agency", agencyCode).Msg("travel sync failed")
		return SyncReport{}, err
	}
	rep := SyncReport{Travels: stored, Pages: len(pages), Took: time.Since(start)}
	s.log.Info().Str("agency", agencyCode).Int("travels", stored).Int("pages", rep.Pages).Dur("took", rep.Took).Msg("travels synced")
	return rep, nil
}
