// Package portal is a thin client for the transparency portal's open data API,
// the upstream source of agencies and travel records.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/maxviazov/agency-travels-service/internal/config"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

// PageSize is the fixed number of records the portal returns per page.
const PageSize = 15

const apiKeyHeader = "chave-api-dados"

// Client talks to the portal over HTTP. It implements repository.TravelRepository
// and the listing half of repository.AgencyRepository.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient builds a client from config. A zero RequestsPerMin disables rate limiting.
func NewClient(cfg config.PortalConfig, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMin)), 1)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: limiter,
		log:     logger.With().Str("module", "portal").Logger(),
	}
}

type travelDTO struct {
	ID                    int64   `json:"id"`
	DataInicioAfastamento string  `json:"dataInicioAfastamento"`
	DataFimAfastamento    string  `json:"dataFimAfastamento"`
	ValorTotalViagem      float64 `json:"valorTotalViagem"`
	Beneficiario          struct {
		Nome string `json:"nome"`
	} `json:"beneficiario"`
	Viagem struct {
		Motivo string `json:"motivo"`
	} `json:"viagem"`
	Destinos string `json:"destinos"`
}

type agencyDTO struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
	Sigla     string `json:"sigla"`
}

// GetAllInsidePeriod fetches one page of /viagens for the agency.
func (c *Client) GetAllInsidePeriod(ctx context.Context, f model.SearchFilter, agencyCode string, pageNumber int) ([]model.Travel, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	q := url.Values{}
	q.Set("dataIdaDe", f.StartDateFrom)
	q.Set("dataIdaAte", f.StartDateUntil)
	q.Set("dataRetornoDe", f.EndDateFrom)
	q.Set("dataRetornoAte", f.EndDateUntil)
	q.Set("codigoOrgao", agencyCode)
	q.Set("pagina", strconv.Itoa(pageNumber))

	var dtos []travelDTO
	if err := c.get(ctx, "/viagens", q, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.Travel, 0, len(dtos))
	for _, d := range dtos {
		t := model.Travel{
			ID:           d.ID,
			AgencyCode:   agencyCode,
			TravelerName: d.Beneficiario.Nome,
			Destination:  d.Destinos,
			Reason:       d.Viagem.Motivo,
			Value:        d.ValorTotalViagem,
		}
		var err error
		if t.StartDate, err = parseDate(d.DataInicioAfastamento); err != nil {
			return nil, fmt.Errorf("%w: travel %d start: %v", repository.ErrUpstream, d.ID, err)
		}
		if t.EndDate, err = parseDate(d.DataFimAfastamento); err != nil {
			return nil, fmt.Errorf("%w: travel %d end: %v", repository.ErrUpstream, d.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// ListAgencies fetches one page of /orgaos-siafi.
func (c *Client) ListAgencies(ctx context.Context, pageNumber int) ([]model.PublicAgency, error) {
	out, _, err := c.listAgencies(ctx, pageNumber)
	return out, err
}

// listAgencies also reports the raw row count, placeholders included, so
// callers can tell a short page from a filtered one.
func (c *Client) listAgencies(ctx context.Context, pageNumber int) ([]model.PublicAgency, int, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	q := url.Values{}
	q.Set("pagina", strconv.Itoa(pageNumber))

	var dtos []agencyDTO
	if err := c.get(ctx, "/orgaos-siafi", q, &dtos); err != nil {
		return nil, 0, err
	}
	out := make([]model.PublicAgency, 0, len(dtos))
	for _, d := range dtos {
		// the portal lists placeholder rows without a description
		if strings.TrimSpace(d.Descricao) == "" || strings.Contains(d.Descricao, "CODIGO INVALIDO") {
			continue
		}
		out = append(out, model.PublicAgency{Code: d.Codigo, Name: strings.TrimSpace(d.Descricao), Acronym: d.Sigla})
	}
	return out, len(dtos), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("portal: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", repository.ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("path", path).Str("query", q.Encode()).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("portal request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return repository.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", repository.ErrBadQuery, readSnippet(resp.Body))
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d: %s", repository.ErrUpstream, resp.StatusCode, readSnippet(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode %s: %v", repository.ErrUpstream, path, err)
	}
	return nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

var dateLayouts = []string{"02/01/2006", "2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("portal: unrecognized date %q", s)
}

var _ repository.TravelRepository = (*Client)(nil)
