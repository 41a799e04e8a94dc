package portal

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

// maxAgencyPages guards against a portal that never returns a short page.
const maxAgencyPages = 200

// AgencyCatalog serves repository.AgencyRepository from the portal. The agency
// list is small and rarely changes, so it is fetched whole and cached for ttl.
type AgencyCatalog struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	agencies []model.PublicAgency
	loadedAt time.Time
}

func NewAgencyCatalog(client *Client, ttl time.Duration) *AgencyCatalog {
	return &AgencyCatalog{client: client, ttl: ttl, now: time.Now}
}

// FetchAll walks every agency page until the portal returns a short one.
func (c *AgencyCatalog) FetchAll(ctx context.Context) ([]model.PublicAgency, error) {
	var all []model.PublicAgency
	for page := 1; page <= maxAgencyPages; page++ {
		items, raw, err := c.client.listAgencies(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if raw < PageSize {
			break
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].Code < all[j].Code
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (c *AgencyCatalog) snapshot(ctx context.Context) ([]model.PublicAgency, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agencies != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.agencies, nil
	}
	all, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	c.agencies = all
	c.loadedAt = c.now()
	return all, nil
}

func (c *AgencyCatalog) List(ctx context.Context, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	all, err := c.snapshot(ctx)
	if err != nil {
		return repository.PageResult[model.PublicAgency]{}, err
	}
	return window(all, p), nil
}

func (c *AgencyCatalog) Search(ctx context.Context, query string, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	all, err := c.snapshot(ctx)
	if err != nil {
		return repository.PageResult[model.PublicAgency]{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	var matched []model.PublicAgency
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.Name), needle) || strings.Contains(strings.ToLower(a.Acronym), needle) {
			matched = append(matched, a)
		}
	}
	return window(matched, p), nil
}

func (c *AgencyCatalog) GetByCode(ctx context.Context, code string) (model.PublicAgency, error) {
	all, err := c.snapshot(ctx)
	if err != nil {
		return model.PublicAgency{}, err
	}
	for _, a := range all {
		if a.Code == code {
			return a, nil
		}
	}
	return model.PublicAgency{}, repository.ErrNotFound
}

func window(items []model.PublicAgency, p repository.Page) repository.PageResult[model.PublicAgency] {
	res := repository.PageResult[model.PublicAgency]{Items: []model.PublicAgency{}, Total: len(items)}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset >= len(items) {
		return res
	}
	end := p.Offset + p.Limit
	if p.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	res.Items = append(res.Items, items[p.Offset:end]...)
	return res
}

var _ repository.AgencyRepository = (*AgencyCatalog)(nil)
