package repository

import (
	"context"

	"github.com/maxviazov/agency-travels-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// AgencyRepository declares read and import operations for public agencies.
type AgencyRepository interface {
	List(ctx context.Context, p Page) (PageResult[model.PublicAgency], error)
	// Search matches name or acronym case-insensitively.
	Search(ctx context.Context, query string, p Page) (PageResult[model.PublicAgency], error)
	GetByCode(ctx context.Context, code string) (model.PublicAgency, error)
}

// TravelRepository is the data source behind the travels paginator.
// GetAllInsidePeriod returns one page (1-based) of the agency's travels whose
// start and end dates fall inside the filter windows; an empty slice means
// there is nothing at that page.
type TravelRepository interface {
	GetAllInsidePeriod(ctx context.Context, f model.SearchFilter, agencyCode string, pageNumber int) ([]model.Travel, error)
}

// AgencyWriter and TravelWriter are implemented by stores that can be filled by a sync.
type AgencyWriter interface {
	UpsertAgencies(ctx context.Context, agencies []model.PublicAgency) (int, error)
}

type TravelWriter interface {
	UpsertTravels(ctx context.Context, travels []model.Travel) (int, error)
}
