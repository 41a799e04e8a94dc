package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/agency-travels-service/internal/config"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.PortalConfig{BaseURL: srv.URL + "/", APIKey: "k3y", Timeout: 5 * time.Second}
	return NewClient(cfg, srv.Client(), zerolog.New(io.Discard))
}

func TestClient_GetAllInsidePeriod(t *testing.T) {
	var gotQuery, gotKey string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/viagens", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("chave-api-dados")
		_, _ = io.WriteString(w, `[{
			"id": 99,
			"dataInicioAfastamento": "02/03/2021",
			"dataFimAfastamento": "05/03/2021",
			"valorTotalViagem": 1234.56,
			"beneficiario": {"nome": "MARIA SILVA"},
			"viagem": {"motivo": "Reunião técnica"},
			"destinos": "Brasília/DF"
		}]`)
	}))

	f := model.SearchFilter{StartDateFrom: "01/03/2021", StartDateUntil: "31/03/2021", EndDateFrom: "01/03/2021", EndDateUntil: "15/04/2021"}
	items, err := c.GetAllInsidePeriod(context.Background(), f, "26000", 3)
	require.NoError(t, err)
	require.Len(t, items, 1)

	tr := items[0]
	assert.Equal(t, int64(99), tr.ID)
	assert.Equal(t, "26000", tr.AgencyCode)
	assert.Equal(t, "MARIA SILVA", tr.TravelerName)
	assert.Equal(t, "Brasília/DF", tr.Destination)
	assert.InDelta(t, 1234.56, tr.Value, 0.001)
	assert.True(t, tr.StartDate.Equal(time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "k3y", gotKey)
	assert.Contains(t, gotQuery, "pagina=3")
	assert.Contains(t, gotQuery, "codigoOrgao=26000")
	assert.Contains(t, gotQuery, "dataRetornoAte=15%2F04%2F2021")
}

func TestClient_EmptyBodyIsEmptyPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	items, err := c.GetAllInsidePeriod(context.Background(), model.SearchFilter{}, "1", 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, repository.ErrNotFound},
		{http.StatusBadRequest, repository.ErrBadQuery},
		{http.StatusTooManyRequests, repository.ErrUpstream},
		{http.StatusInternalServerError, repository.ErrUpstream},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			_, err := c.GetAllInsidePeriod(context.Background(), model.SearchFilter{}, "1", 1)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClient_MalformedJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"not": "a list"`)
	}))
	_, err := c.GetAllInsidePeriod(context.Background(), model.SearchFilter{}, "1", 1)
	assert.ErrorIs(t, err, repository.ErrUpstream)
}

func TestClient_MalformedTravelDateFailsPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id": 1, "dataInicioAfastamento": "01/03/2021", "dataFimAfastamento": "05/03/2021"},
			{"id": 2, "dataInicioAfastamento": "32/13/2021", "dataFimAfastamento": "05/03/2021"}
		]`)
	}))
	items, err := c.GetAllInsidePeriod(context.Background(), model.SearchFilter{}, "1", 1)
	require.ErrorIs(t, err, repository.ErrUpstream)
	assert.Contains(t, err.Error(), "travel 2")
	assert.Nil(t, items)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()
	c := NewClient(config.PortalConfig{BaseURL: srv.URL, RequestsPerMin: 1}, srv.Client(), zerolog.New(io.Discard))

	_, err := c.GetAllInsidePeriod(context.Background(), model.SearchFilter{}, "1", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.GetAllInsidePeriod(ctx, model.SearchFilter{}, "1", 2)
	assert.Error(t, err, "second call within the same minute must wait past the deadline")
}

// agencyPages serves n full pages followed by a short one; page 1 contains a placeholder row.
func agencyPages(full int, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var page int
		_, _ = fmt.Sscanf(r.URL.Query().Get("pagina"), "%d", &page)
		var rows []agencyDTO
		switch {
		case page <= full:
			for i := 0; i < PageSize; i++ {
				rows = append(rows, agencyDTO{Codigo: fmt.Sprintf("%d%02d", page, i), Descricao: fmt.Sprintf("Órgão %d-%02d", page, i)})
			}
			if page == 1 {
				rows[0].Descricao = "CODIGO INVALIDO"
			}
		case page == full+1:
			rows = []agencyDTO{{Codigo: "99999", Descricao: "Agência Final", Sigla: "AF"}}
		}
		_ = json.NewEncoder(w).Encode(rows)
	}
}

func TestAgencyCatalog_FetchAllWalksPages(t *testing.T) {
	var calls int32
	c := newTestClient(t, agencyPages(2, &calls))
	cat := NewAgencyCatalog(c, time.Hour)

	all, err := cat.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2*PageSize-1+1, "placeholder row dropped, last page included")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "Agência Final", all[0].Name, "sorted by name")
}

func TestAgencyCatalog_CachesWithinTTL(t *testing.T) {
	var calls int32
	c := newTestClient(t, agencyPages(0, &calls))
	cat := NewAgencyCatalog(c, time.Minute)
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	cat.now = func() time.Time { return now }
	ctx := context.Background()

	a, err := cat.GetByCode(ctx, "99999")
	require.NoError(t, err)
	assert.Equal(t, "AF", a.Acronym)

	res, err := cat.Search(ctx, "af", repository.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(2 * time.Minute)
	_, err = cat.List(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	_, err = cat.GetByCode(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWindow(t *testing.T) {
	items := []model.PublicAgency{{Code: "1"}, {Code: "2"}, {Code: "3"}}

	res := window(items, repository.Page{Limit: 2, Offset: 1})
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []model.PublicAgency{{Code: "2"}, {Code: "3"}}, res.Items)

	res = window(items, repository.Page{Limit: 2, Offset: 5})
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)

	res = window(items, repository.Page{Offset: -1})
	assert.Len(t, res.Items, 3)

	res = window(items, repository.Page{Limit: 1})
	res.Items[0].Code = "changed"
	assert.Equal(t, "1", items[0].Code, "callers get their own copy")
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"02/03/2021", "2021-03-02", "2021-03-02T00:00:00Z"} {
		d, err := parseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2021, d.Year())
		assert.Equal(t, time.March, d.Month())
	}
	_, err := parseDate("ontem")
	assert.Error(t, err)
}
