package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/econgate/internal/db"
	"github.com/rpattn/econgate/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// observationRepository implements ObservationRepository on Postgres.
type observationRepository struct {
	conn *db.Connection
}

// NewObservationRepository wires read access to stored observation rows.
func NewObservationRepository(conn *db.Connection) ObservationRepository {
	return &observationRepository{conn: conn}
}

// List pages through an import's rows in row_index order. The series filter
// is a case-insensitive substring match (ILIKE); date bounds are inclusive
// string comparisons on the canonical YYYY-MM-DD form.
func (r *observationRepository) List(ctx context.Context, importID uuid.UUID, filter domain.RowFilter, limit, offset int) ([]domain.Observation, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const predicate = `
		WHERE import_id = $1
		  AND ($2 = '' OR series ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR date >= $3)
		  AND ($4 = '' OR date <= $4)`

	var total int
	err := r.conn.Pool.QueryRow(ctx,
		`SELECT count(*) FROM observations`+predicate,
		importID, filter.Series, filter.DateFrom, filter.DateTo,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count observations: %w", err)
	}

	rows, err := r.conn.Pool.Query(ctx, `
		SELECT id, import_id, row_index, date, series, value_num, value_text, frequency, units, country
		FROM observations`+predicate+`
		ORDER BY row_index
		LIMIT $5 OFFSET $6`,
		importID, filter.Series, filter.DateFrom, filter.DateTo, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	observations := make([]domain.Observation, 0, limit)
	for rows.Next() {
		var (
			obs       domain.Observation
			valueNum  pgtype.Float8
			valueText pgtype.Text
		)
		err := rows.Scan(
			&obs.ID, &obs.ImportID, &obs.RowIndex, &obs.Date, &obs.Series,
			&valueNum, &valueText, &obs.Frequency, &obs.Units, &obs.Country,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan observation: %w", err)
		}
		if valueNum.Valid {
			value := valueNum.Float64
			obs.ValueNum = &value
		}
		if valueText.Valid {
			value := valueText.String
			obs.ValueText = &value
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list observations: %w", err)
	}

	return observations, total, nil
}
