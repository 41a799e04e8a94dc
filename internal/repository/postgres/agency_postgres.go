package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

type agencyRepository struct{ pool *pgxpool.Pool }

// AgencyStore is what the postgres agency repository offers: reads plus sync upserts.
type AgencyStore interface {
	repository.AgencyRepository
	repository.AgencyWriter
}

func NewAgencyRepository(pool *pgxpool.Pool) AgencyStore {
	return &agencyRepository{pool: pool}
}

const agencyColumns = `code, name, acronym, created_at, updated_at`

func (r *agencyRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	return r.page(ctx,
		`SELECT `+agencyColumns+`, COUNT(*) OVER() AS total
		 FROM agencies
		 ORDER BY name, code
		 LIMIT $1 OFFSET $2`, p)
}

func (r *agencyRepository) Search(ctx context.Context, query string, p repository.Page) (repository.PageResult[model.PublicAgency], error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.page(ctx,
		`SELECT `+agencyColumns+`, COUNT(*) OVER() AS total
		 FROM agencies
		 WHERE name ILIKE $3 OR acronym ILIKE $3
		 ORDER BY name, code
		 LIMIT $1 OFFSET $2`, p, pattern)
}

func (r *agencyRepository) page(ctx context.Context, sql string, p repository.Page, extra ...any) (repository.PageResult[model.PublicAgency], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.PublicAgency]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	args := append([]any{limit, offset}, extra...)

	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return repository.PageResult[model.PublicAgency]{}, repository.MapPgError(err)
	}
	defer rows.Close()

	res := repository.PageResult[model.PublicAgency]{Items: make([]model.PublicAgency, 0, limit)}
	for rows.Next() {
		var a model.PublicAgency
		var total int
		if err := rows.Scan(&a.Code, &a.Name, &a.Acronym, &a.CreatedAt, &a.UpdatedAt, &total); err != nil {
			return repository.PageResult[model.PublicAgency]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, a)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.PublicAgency]{}, repository.MapPgError(err)
	}
	return res, nil
}

func (r *agencyRepository) GetByCode(ctx context.Context, code string) (model.PublicAgency, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.PublicAgency{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE code = $1`, code)
	var a model.PublicAgency
	if err := row.Scan(&a.Code, &a.Name, &a.Acronym, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PublicAgency{}, repository.ErrNotFound
		}
		return model.PublicAgency{}, repository.MapPgError(err)
	}
	return a, nil
}

// UpsertAgencies inserts or renames agencies in one batch round trip.
func (r *agencyRepository) UpsertAgencies(ctx context.Context, agencies []model.PublicAgency) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	if len(agencies) == 0 {
		return 0, nil
	}
	b := &pgx.Batch{}
	for _, a := range agencies {
		b.Queue(
			`INSERT INTO agencies (code, name, acronym) VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO UPDATE
			 SET name = EXCLUDED.name, acronym = EXCLUDED.acronym, updated_at = now()`,
			a.Code, a.Name, a.Acronym)
	}
	return execBatch(ctx, getQ(ctx, r.pool), b, len(agencies))
}

func execBatch(ctx context.Context, exec q, b *pgx.Batch, n int) (int, error) {
	br := exec.SendBatch(ctx, b)
	defer br.Close()
	affected := 0
	for i := 0; i < n; i++ {
		tag, err := br.Exec()
		if err != nil {
			return affected, repository.MapPgError(err)
		}
		affected += int(tag.RowsAffected())
	}
	return affected, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

var _ repository.AgencyRepository = (*agencyRepository)(nil)
