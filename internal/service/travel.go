package service

import (
	"context"
	"strings"
	"time"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/rs/zerolog"
)

// travelService answers one page at a time; the client carries the page number.
type travelService struct {
	travels  repository.TravelRepository
	agencies repository.AgencyRepository
	pageSize int
	endRule  EndRule
	log      zerolog.Logger
}

func NewTravelService(travels repository.TravelRepository, agencies repository.AgencyRepository, pageSize int, endRule EndRule, logger zerolog.Logger) TravelService {
	l := logger.With().Str("module", "service").Str("component", "travel").Logger()
	if pageSize <= 0 {
		pageSize = defaultPaginatorPageSize
	}
	if endRule == nil {
		endRule = ShortPage
	}
	return &travelService{travels: travels, agencies: agencies, pageSize: pageSize, endRule: endRule, log: l}
}

func (s *travelService) ListTravels(ctx context.Context, agencyCode string, filter model.SearchFilter, pageNumber int) (model.TravelPage, error) {
	start := time.Now()
	agencyCode = strings.TrimSpace(agencyCode)

	var ferrs []FieldError
	if agencyCode == "" {
		ferrs = append(ferrs, FieldError{Field: "code", Message: "must not be empty"})
	}
	if pageNumber < 1 {
		ferrs = append(ferrs, FieldError{Field: "page", Message: "must be >= 1"})
	}
	if err := ValidateSearchFilter(filter); err != nil {
		ferrs = append(ferrs, FieldErrors(err)...)
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("travel query validation failed")
		return model.TravelPage{}, err
	}

	// unknown agencies are a 404 rather than an empty page
	if _, err := s.agencies.GetByCode(ctx, agencyCode); err != nil {
		return model.TravelPage{}, err
	}

	f := NewSearchFilter(filter.StartDateFrom, filter.StartDateUntil, filter.EndDateFrom, filter.EndDateUntil)
	items, err := s.travels.GetAllInsidePeriod(ctx, f, agencyCode, pageNumber)
	if err != nil {
		s.log.Error().Err(err).Str("agency", agencyCode).Int("page", pageNumber).Msg("list travels failed")
		return model.TravelPage{}, err
	}
	if items == nil {
		items = []model.Travel{}
	}
	s.log.Debug().Dur("took", time.Since(start)).Str("agency", agencyCode).Int("page", pageNumber).Int("count", len(items)).Msg("travels listed")
	return model.TravelPage{
		Items:       items,
		Page:        pageNumber,
		PageSize:    s.pageSize,
		HasMore:     !s.endRule(len(items), s.pageSize, s.pageSize),
		ExpensesSum: sumExpenses(items),
	}, nil
}
