// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: use-case coordination, validation, pagination state
// and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInputError builds an aggregated validation error if any field errors are present.
func NewInvalidInputError(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil || !errors.Is(err, ErrInvalidInput) {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) {
		return v.Fields()
	}
	return nil
}

// AgencyService defines agency catalogue use cases.
type AgencyService interface {
	ListAgencies(ctx context.Context, page repository.Page) (repository.PageResult[model.PublicAgency], error)
	SearchAgencies(ctx context.Context, query string, page repository.Page) (repository.PageResult[model.PublicAgency], error)
	GetAgency(ctx context.Context, code string) (model.PublicAgency, error)
}

// TravelService defines stateless, page-addressed travel queries.
type TravelService interface {
	ListTravels(ctx context.Context, agencyCode string, filter model.SearchFilter, pageNumber int) (model.TravelPage, error)
}
