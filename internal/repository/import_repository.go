package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/econgate/internal/db"
	"github.com/rpattn/econgate/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const importColumns = `id, original_filename, display_name, uploaded_by, uploaded_at,
	status, approved_by, approved_at, reject_reason, row_count, columns, parse_warnings`

// importRepository implements ImportRepository on Postgres.
type importRepository struct {
	conn *db.Connection
}

// NewImportRepository wires a repository for import lifecycle storage.
func NewImportRepository(conn *db.Connection) ImportRepository {
	return &importRepository{conn: conn}
}

func (r *importRepository) Create(ctx context.Context, imp domain.Import, rows []domain.Observation) (domain.Import, error) {
	if imp.ID == uuid.Nil {
		imp.ID = uuid.New()
	}

	columnsJSON, err := json.Marshal(imp.Columns)
	if err != nil {
		return domain.Import{}, fmt.Errorf("marshal columns: %w", err)
	}
	warningsJSON, err := json.Marshal(imp.ParseWarnings)
	if err != nil {
		return domain.Import{}, fmt.Errorf("marshal parse warnings: %w", err)
	}

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO imports (id, original_filename, display_name, uploaded_by, uploaded_at,
				status, row_count, columns, parse_warnings)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			imp.ID, imp.OriginalFilename, imp.DisplayName, imp.UploadedBy, imp.UploadedAt,
			string(imp.Status), imp.RowCount, columnsJSON, warningsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert import: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"observations"},
			[]string{"id", "import_id", "row_index", "date", "series", "value_num", "value_text", "frequency", "units", "country"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				row := rows[i]
				id := row.ID
				if id == uuid.Nil {
					id = uuid.New()
				}
				return []any{id, imp.ID, row.RowIndex, row.Date, row.Series,
					row.ValueNum, row.ValueText, row.Frequency, row.Units, row.Country}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("insert observations: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Import{}, err
	}

	return r.GetByID(ctx, imp.ID)
}

func (r *importRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Import, error) {
	row := r.conn.Pool.QueryRow(ctx,
		`SELECT `+importColumns+` FROM imports WHERE id = $1`, id)
	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Import{}, fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
		}
		return domain.Import{}, fmt.Errorf("get import: %w", err)
	}
	return imp, nil
}

func (r *importRepository) List(ctx context.Context, status *domain.ImportStatus) ([]domain.Import, error) {
	statusValue := ""
	if status != nil {
		statusValue = string(*status)
	}

	rows, err := r.conn.Pool.Query(ctx, `
		SELECT `+importColumns+`
		FROM imports
		WHERE ($1 = '' OR status = $1)
		ORDER BY uploaded_at DESC, id`,
		statusValue,
	)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	imports := make([]domain.Import, 0)
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return imports, nil
}

// Approve is a single conditional update so racing approve/reject calls on
// the same import resolve to exactly one winner.
func (r *importRepository) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (domain.Import, error) {
	row := r.conn.Pool.QueryRow(ctx, `
		UPDATE imports
		SET status = $2, approved_by = $3, approved_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+importColumns,
		id, string(domain.ImportStatusApproved), approvedBy, string(domain.ImportStatusPending),
	)
	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Import{}, r.transitionFailure(ctx, id)
		}
		return domain.Import{}, fmt.Errorf("approve import: %w", err)
	}
	return imp, nil
}

func (r *importRepository) Reject(ctx context.Context, id uuid.UUID, reason *string) (domain.Import, error) {
	reasonParam := pgtype.Text{}
	if reason != nil && *reason != "" {
		reasonParam = pgtype.Text{String: *reason, Valid: true}
	}

	row := r.conn.Pool.QueryRow(ctx, `
		UPDATE imports
		SET status = $2, reject_reason = $3
		WHERE id = $1 AND status = $4
		RETURNING `+importColumns,
		id, string(domain.ImportStatusRejected), reasonParam, string(domain.ImportStatusPending),
	)
	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Import{}, r.transitionFailure(ctx, id)
		}
		return domain.Import{}, fmt.Errorf("reject import: %w", err)
	}
	return imp, nil
}

// transitionFailure distinguishes an unknown id from an import that already
// left PENDING after a conditional update matched no row.
func (r *importRepository) transitionFailure(ctx context.Context, id uuid.UUID) error {
	var status string
	err := r.conn.Pool.QueryRow(ctx, `SELECT status FROM imports WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("read import status: %w", err)
	}
	return fmt.Errorf("import %s is %s: %w", id, status, domain.ErrConflict)
}

func (r *importRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) (domain.Import, error) {
	row := r.conn.Pool.QueryRow(ctx, `
		UPDATE imports SET display_name = $2 WHERE id = $1
		RETURNING `+importColumns,
		id, displayName,
	)
	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Import{}, fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
		}
		return domain.Import{}, fmt.Errorf("rename import: %w", err)
	}
	return imp, nil
}

func (r *importRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Observations go with the import via ON DELETE CASCADE.
	tag, err := r.conn.Pool.Exec(ctx, `DELETE FROM imports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *importRepository) Summary(ctx context.Context) (domain.Summary, error) {
	// One statement, one snapshot: the observation subquery sees the same
	// data as the import counts.
	var summary domain.Summary
	err := r.conn.Pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'PENDING'),
			count(*) FILTER (WHERE status = 'APPROVED'),
			count(*) FILTER (WHERE status = 'REJECTED'),
			(SELECT count(*) FROM observations)
		FROM imports`,
	).Scan(
		&summary.Imports.Total,
		&summary.Imports.Pending,
		&summary.Imports.Approved,
		&summary.Imports.Rejected,
		&summary.Observations.Total,
	)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize imports: %w", err)
	}
	return summary, nil
}

func scanImport(row pgx.Row) (domain.Import, error) {
	var (
		imp          domain.Import
		status       string
		approvedBy   pgtype.Text
		approvedAt   pgtype.Timestamptz
		rejectReason pgtype.Text
		columnsJSON  []byte
		warningsJSON []byte
	)

	err := row.Scan(
		&imp.ID, &imp.OriginalFilename, &imp.DisplayName, &imp.UploadedBy, &imp.UploadedAt,
		&status, &approvedBy, &approvedAt, &rejectReason, &imp.RowCount, &columnsJSON, &warningsJSON,
	)
	if err != nil {
		return domain.Import{}, err
	}

	imp.Status = domain.ImportStatus(status)
	if approvedBy.Valid {
		value := approvedBy.String
		imp.ApprovedBy = &value
	}
	if approvedAt.Valid {
		value := approvedAt.Time
		imp.ApprovedAt = &value
	}
	if rejectReason.Valid {
		value := rejectReason.String
		imp.RejectReason = &value
	}

	imp.Columns = []string{}
	if len(columnsJSON) > 0 {
		if err := json.Unmarshal(columnsJSON, &imp.Columns); err != nil {
			return domain.Import{}, fmt.Errorf("unmarshal columns: %w", err)
		}
	}
	imp.ParseWarnings = []domain.ParseWarning{}
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &imp.ParseWarnings); err != nil {
			return domain.Import{}, fmt.Errorf("unmarshal parse warnings: %w", err)
		}
	}

	return imp, nil
}
