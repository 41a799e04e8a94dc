package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

// filterDateLayout is the to_date pattern for the raw dates users type (dd/MM/yyyy).
const filterDateLayout = "DD/MM/YYYY"

type travelRepository struct {
	pool     *pgxpool.Pool
	pageSize int
}

// TravelStore is what the postgres travel repository offers: paged reads plus sync upserts.
type TravelStore interface {
	repository.TravelRepository
	repository.TravelWriter
}

// NewTravelRepository returns travels in pages of pageSize rows.
func NewTravelRepository(pool *pgxpool.Pool, pageSize int) TravelStore {
	if pageSize <= 0 {
		pageSize = defaultPageLimit
	}
	return &travelRepository{pool: pool, pageSize: pageSize}
}

// GetAllInsidePeriod returns travels whose start date falls in
// [StartDateFrom, StartDateUntil] and end date in [EndDateFrom, EndDateUntil],
// ordered by start date so pages are stable.
func (r *travelRepository) GetAllInsidePeriod(ctx context.Context, f model.SearchFilter, agencyCode string, pageNumber int) ([]model.Travel, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	page := repository.OffsetForPage(pageNumber, r.pageSize)

	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT id, agency_code, traveler_name, destination, reason, start_date, end_date, value
		 FROM travels
		 WHERE agency_code = $1
		   AND start_date BETWEEN to_date($2, $6) AND to_date($3, $6)
		   AND end_date BETWEEN to_date($4, $6) AND to_date($5, $6)
		 ORDER BY start_date, id
		 LIMIT $7 OFFSET $8`,
		agencyCode, f.StartDateFrom, f.StartDateUntil, f.EndDateFrom, f.EndDateUntil,
		filterDateLayout, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.Travel, 0, page.Limit)
	for rows.Next() {
		var t model.Travel
		if err := rows.Scan(&t.ID, &t.AgencyCode, &t.TravelerName, &t.Destination, &t.Reason, &t.StartDate, &t.EndDate, &t.Value); err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

// UpsertTravels stores travels keyed by their portal id.
func (r *travelRepository) UpsertTravels(ctx context.Context, travels []model.Travel) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	if len(travels) == 0 {
		return 0, nil
	}
	b := &pgx.Batch{}
	for _, t := range travels {
		b.Queue(
			`INSERT INTO travels (id, agency_code, traveler_name, destination, reason, start_date, end_date, value)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE
			 SET traveler_name = EXCLUDED.traveler_name,
			     destination = EXCLUDED.destination,
			     reason = EXCLUDED.reason,
			     start_date = EXCLUDED.start_date,
			     end_date = EXCLUDED.end_date,
			     value = EXCLUDED.value`,
			t.ID, t.AgencyCode, t.TravelerName, t.Destination, t.Reason, t.StartDate, t.EndDate, t.Value)
	}
	return execBatch(ctx, getQ(ctx, r.pool), b, len(travels))
}

var _ repository.TravelRepository = (*travelRepository)(nil)
