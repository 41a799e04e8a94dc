package service

import (
	"context"
	"strings"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/rs/zerolog"
)

type agencyService struct {
	repo repository.AgencyRepository
	log  zerolog.Logger
}

func NewAgencyService(repo repository.AgencyRepository, logger zerolog.Logger) AgencyService {
	l := logger.With().Str("module", "service").Str("component", "agency").Logger()
	return &agencyService{repo: repo, log: l}
}

func (s *agencyService) ListAgencies(ctx context.Context, page repository.Page) (repository.PageResult[model.PublicAgency], error) {
	p := normalizePage(page)
	res, err := s.repo.List(ctx, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list agencies failed")
		return repository.PageResult[model.PublicAgency]{}, err
	}
	return res, nil
}

func (s *agencyService) SearchAgencies(ctx context.Context, query string, page repository.Page) (repository.PageResult[model.PublicAgency], error) {
	if !IsValidAgencyQuery(query) {
		return repository.PageResult[model.PublicAgency]{}, NewInvalidInputError([]FieldError{{Field: "q", Message: "must have at least 2 characters"}})
	}
	p := normalizePage(page)
	res, err := s.repo.Search(ctx, strings.TrimSpace(query), p)
	if err != nil {
		s.log.Error().Err(err).Str("q", query).Msg("search agencies failed")
		return repository.PageResult[model.PublicAgency]{}, err
	}
	return res, nil
}

func (s *agencyService) GetAgency(ctx context.Context, code string) (model.PublicAgency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.PublicAgency{}, NewInvalidInputError([]FieldError{{Field: "code", Message: "must not be empty"}})
	}
	return s.repo.GetByCode(ctx, code)
}
