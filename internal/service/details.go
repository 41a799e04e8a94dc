package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

// TravelPaginator pages an agency's travels under a date filter.
type TravelPaginator = Paginator[model.Travel, model.SearchFilter]

// AgencyDetails is the browsing session for one agency: it validates date
// searches, pages through travels and keeps what has been loaded so far
// together with its expenses sum.
type AgencyDetails struct {
	agency model.PublicAgency
	pager  *TravelPaginator
	log    zerolog.Logger

	mu          sync.RWMutex
	travels     []model.Travel
	expensesSum float64
	fieldErrors *TravelFieldErrors
	lastErr     error
}

// DetailsOptions tunes an AgencyDetails session.
type DetailsOptions struct {
	PageSize int
	EndRule  EndRule
	// OnError is shared with the caller's other async work; it sees every fetch failure.
	OnError ErrorHandler
}

func NewAgencyDetails(agency model.PublicAgency, travels repository.TravelRepository, opts DetailsOptions, logger zerolog.Logger) *AgencyDetails {
	l := logger.With().Str("module", "service").Str("component", "agency_details").Str("agency", agency.Code).Logger()
	fetch := func(ctx context.Context, f model.SearchFilter, page int) ([]model.Travel, error) {
		return travels.GetAllInsidePeriod(ctx, f, agency.Code, page)
	}
	d := &AgencyDetails{agency: agency, log: l}
	d.pager = NewPaginator(fetch, PaginatorOptions[model.SearchFilter]{
		PageSize: opts.PageSize,
		EndRule:  opts.EndRule,
		Validate: ValidateSearchFilter,
		OnError:  opts.OnError,
		Logger:   &l,
	})
	d.pager.Subscribe(d.onEvent)
	return d
}

func (d *AgencyDetails) onEvent(ev Event[model.Travel]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch ev.Kind {
	case EventItemsCleared:
		d.travels = nil
		d.expensesSum = 0
		d.fieldErrors = nil
		d.lastErr = nil
	case EventItemsUpdated:
		d.travels = append(d.travels, ev.Items...)
		d.expensesSum += sumExpenses(ev.Items)
		d.lastErr = nil
	case EventValidationFailed:
		if fe, ok := TravelFieldErrorsOf(ev.Err); ok {
			d.fieldErrors = &fe
		}
	case EventFetchFailed:
		d.lastErr = ev.Err
	}
}

// ValidateAndSearch starts a new search from the four raw date inputs. Invalid
// input returns an error carrying TravelFieldErrors and nothing is fetched.
func (d *AgencyDetails) ValidateAndSearch(ctx context.Context, startFrom, startUntil, endFrom, endUntil string) error {
	return d.pager.StartSearch(ctx, NewSearchFilter(startFrom, startUntil, endFrom, endUntil))
}

// Paginate loads the next page of the active search.
func (d *AgencyDetails) Paginate(ctx context.Context) error { return d.pager.Paginate(ctx) }

// Subscribe forwards to the underlying paginator.
func (d *AgencyDetails) Subscribe(l Listener[model.Travel]) func() { return d.pager.Subscribe(l) }

func (d *AgencyDetails) Agency() model.PublicAgency { return d.agency }

func (d *AgencyDetails) State() State { return d.pager.State() }

// Travels returns every travel loaded since the last search started.
func (d *AgencyDetails) Travels() []model.Travel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Travel(nil), d.travels...)
}

func (d *AgencyDetails) ExpensesSum() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expensesSum
}

// FieldErrors reports the outcome of the last rejected search, if it has not
// been superseded by an accepted one.
func (d *AgencyDetails) FieldErrors() (TravelFieldErrors, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.fieldErrors == nil {
		return TravelFieldErrors{}, false
	}
	return *d.fieldErrors, true
}

// LastError is the most recent fetch failure, cleared by the next successful page.
func (d *AgencyDetails) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

func sumExpenses(travels []model.Travel) float64 {
	var sum float64
	for _, t := range travels {
		sum += t.Value
	}
	return sum
}
