package repository

import (
	"context"

	"github.com/rpattn/econgate/internal/domain"

	"github.com/google/uuid"
)

// ImportRepository defines the interface for import lifecycle storage.
// Approve and Reject are conditional updates keyed on the PENDING status:
// when the import exists but is already terminal they return
// domain.ErrConflict, never an overwrite.
type ImportRepository interface {
	// Create persists the import and its rows in one transaction.
	Create(ctx context.Context, imp domain.Import, rows []domain.Observation) (domain.Import, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Import, error)
	// List returns imports ordered by uploaded_at descending, id as
	// tiebreaker, optionally restricted to one status.
	List(ctx context.Context, status *domain.ImportStatus) ([]domain.Import, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string) (domain.Import, error)
	Reject(ctx context.Context, id uuid.UUID, reason *string) (domain.Import, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) (domain.Import, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Summary computes the cross-import counts in a single statement so the
	// result is one consistent snapshot.
	Summary(ctx context.Context) (domain.Summary, error)
}

// ObservationRepository defines read access to an import's rows.
type ObservationRepository interface {
	// List returns one page of rows ordered by row_index ascending and the
	// filtered total. A page beyond the data yields an empty slice, not an
	// error. The caller is responsible for verifying the import exists.
	List(ctx context.Context, importID uuid.UUID, filter domain.RowFilter, limit, offset int) ([]domain.Observation, int, error)
}
