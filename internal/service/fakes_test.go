package service_test

import (
	"context"
	"strings"
	"sync"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

type fakeTravelRepo struct {
	mu    sync.Mutex
	pages [][]model.Travel
	err   error
	calls []int
	last  model.SearchFilter
}

func (f *fakeTravelRepo) GetAllInsidePeriod(_ context.Context, filter model.SearchFilter, _ string, pageNumber int) ([]model.Travel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageNumber)
	f.last = filter
	if f.err != nil {
		return nil, f.err
	}
	if pageNumber > len(f.pages) {
		return []model.Travel{}, nil
	}
	return f.pages[pageNumber-1], nil
}

func (f *fakeTravelRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var _ repository.TravelRepository = (*fakeTravelRepo)(nil)

type fakeAgencyRepo struct {
	agencies []model.PublicAgency
	err      error
	lastPage repository.Page
}

func (f *fakeAgencyRepo) List(_ context.Context, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	f.lastPage = p
	if f.err != nil {
		return repository.PageResult[model.PublicAgency]{}, f.err
	}
	return repository.PageResult[model.PublicAgency]{Items: f.agencies, Total: len(f.agencies)}, nil
}

func (f *fakeAgencyRepo) Search(_ context.Context, q string, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	f.lastPage = p
	var out []model.PublicAgency
	for _, a := range f.agencies {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(q)) {
			out = append(out, a)
		}
	}
	return repository.PageResult[model.PublicAgency]{Items: out, Total: len(out)}, nil
}

func (f *fakeAgencyRepo) GetByCode(_ context.Context, code string) (model.PublicAgency, error) {
	for _, a := range f.agencies {
		if a.Code == code {
			return a, nil
		}
	}
	return model.PublicAgency{}, repository.ErrNotFound
}

var _ repository.AgencyRepository = (*fakeAgencyRepo)(nil)

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.calls++
	return fn(ctx)
}

var _ repository.TxManager = (*fakeTx)(nil)

func travels(n int, value float64) []model.Travel {
	out := make([]model.Travel, n)
	for i := range out {
		out[i] = model.Travel{ID: int64(i + 1), Value: value}
	}
	return out
}

func validFilter() model.SearchFilter {
	return model.SearchFilter{
		StartDateFrom:  "01/03/2021",
		StartDateUntil: "31/03/2021",
		EndDateFrom:    "01/03/2021",
		EndDateUntil:   "15/04/2021",
	}
}
