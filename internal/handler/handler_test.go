package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/agency-travels-service/internal/handler"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/maxviazov/agency-travels-service/internal/service"
	"github.com/maxviazov/agency-travels-service/pkg/response"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubAgencyService struct {
	list      repository.PageResult[model.PublicAgency]
	searchedQ string
	page      repository.Page
	get       model.PublicAgency
	err       error
}

func (s *stubAgencyService) ListAgencies(_ context.Context, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	s.page = p
	return s.list, s.err
}

func (s *stubAgencyService) SearchAgencies(_ context.Context, q string, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	s.searchedQ, s.page = q, p
	return s.list, s.err
}

func (s *stubAgencyService) GetAgency(context.Context, string) (model.PublicAgency, error) {
	return s.get, s.err
}

type stubTravelService struct {
	code   string
	filter model.SearchFilter
	page   int
	res    model.TravelPage
	err    error
}

func (s *stubTravelService) ListTravels(_ context.Context, code string, f model.SearchFilter, page int) (model.TravelPage, error) {
	s.code, s.filter, s.page = code, f, page
	return s.res, s.err
}

func newRouter(p handler.Pinger, as service.AgencyService, ts service.TravelService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, p, as, ts, zerolog.New(io.Discard))
	return r
}

func do(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	cases := []struct {
		name   string
		pinger handler.Pinger
		path   string
		want   int
	}{
		{"live root", stubPinger{}, "/live", http.StatusOK},
		{"ready root", stubPinger{}, "/ready", http.StatusOK},
		{"ready api", stubPinger{}, "/api/v1/health/ready", http.StatusOK},
		{"live api ignores deps", stubPinger{err: errors.New("down")}, "/api/v1/health/live", http.StatusOK},
		{"not ready", stubPinger{err: errors.New("down")}, "/ready", http.StatusServiceUnavailable},
		{"no data source", nil, "/ready", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(newRouter(tc.pinger, nil, nil), tc.path)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(stubPinger{}, nil, nil)

	w := do(r, "/live")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected incoming id echoed, got %q", got)
	}
}

func TestAgencyHandler_List(t *testing.T) {
	stub := &stubAgencyService{list: repository.PageResult[model.PublicAgency]{
		Items: []model.PublicAgency{{Code: "26000", Name: "Ministério da Educação"}},
		Total: 1,
	}}
	r := newRouter(stubPinger{}, stub, nil)

	w := do(r, "/api/v1/agencies?limit=5&offset=10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.page.Limit != 5 || stub.page.Offset != 10 {
		t.Fatalf("paging not forwarded: %+v", stub.page)
	}
	var got repository.PageResult[model.PublicAgency]
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 1 || got.Items[0].Code != "26000" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if stub.searchedQ != "" {
		t.Fatalf("plain list must not search")
	}
}

func TestAgencyHandler_Search(t *testing.T) {
	stub := &stubAgencyService{}
	r := newRouter(stubPinger{}, stub, nil)

	if w := do(r, "/api/v1/agencies?q=saude"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.searchedQ != "saude" {
		t.Fatalf("expected search for saude, got %q", stub.searchedQ)
	}

	stub.err = service.NewInvalidInputError([]service.FieldError{{Field: "q", Message: "too short"}})
	w := do(r, "/api/v1/agencies?q=s")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAgencyHandler_GetByCode(t *testing.T) {
	stub := &stubAgencyService{get: model.PublicAgency{Code: "36000", Name: "Ministério da Saúde"}}
	r := newRouter(stubPinger{}, stub, nil)

	if w := do(r, "/api/v1/agencies/36000"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stub.err = repository.ErrNotFound
	if w := do(r, "/api/v1/agencies/1"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestTravelHandler_List(t *testing.T) {
	stub := &stubTravelService{res: model.TravelPage{
		Items:       []model.Travel{{ID: 7, Value: 120.5}},
		Page:        2,
		PageSize:    15,
		ExpensesSum: 120.5,
	}}
	r := newRouter(stubPinger{}, nil, stub)

	w := do(r, "/api/v1/agencies/26000/travels?start_date_from=01/03/2021&start_date_until=31/03/2021&end_date_from=01/03/2021&end_date_until=15/04/2021&page=2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.code != "26000" || stub.page != 2 || stub.filter.EndDateUntil != "15/04/2021" {
		t.Fatalf("request not forwarded: code=%s page=%d filter=%+v", stub.code, stub.page, stub.filter)
	}
	var got model.TravelPage
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ExpensesSum != 120.5 || len(got.Items) != 1 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestTravelHandler_DefaultsToFirstPage(t *testing.T) {
	stub := &stubTravelService{}
	r := newRouter(stubPinger{}, nil, stub)
	do(r, "/api/v1/agencies/26000/travels")
	if stub.page != 1 {
		t.Fatalf("expected page 1, got %d", stub.page)
	}
}

func TestTravelHandler_BadPage(t *testing.T) {
	stub := &stubTravelService{}
	r := newRouter(stubPinger{}, nil, stub)
	w := do(r, "/api/v1/agencies/26000/travels?page=two")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var payload response.ErrorPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.FieldErrors) != 1 || payload.FieldErrors[0].Field != "page" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if stub.code != "" {
		t.Fatalf("service must not be called")
	}
}

func TestTravelHandler_FieldErrors(t *testing.T) {
	stub := &stubTravelService{err: &service.TravelSearchError{Errors: service.TravelFieldErrors{
		StartDateFrom: service.InvalidRange, StartDateUntil: service.InvalidRange,
	}}}
	r := newRouter(stubPinger{}, nil, stub)

	w := do(r, "/api/v1/agencies/26000/travels?start_date_from=01Jan2021&start_date_until=01Mar2021")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var payload response.ErrorPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.FieldErrors) != 2 || payload.FieldErrors[0].Code != "invalid_range" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
