package imports

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rpattn/econgate/internal/domain"
	"github.com/rpattn/econgate/internal/ingestion"
	"github.com/rpattn/econgate/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	// maxPageSize bounds memory per row query; full-set reads go through the
	// CSV export instead of an oversized page.
	maxPageSize = 500
)

// Service owns the import lifecycle: it is the only place an import's status
// changes, and every mutating operation takes the caller's identity
// explicitly.
type Service struct {
	imports      repository.ImportRepository
	observations repository.ObservationRepository
}

// NewService creates the lifecycle service.
func NewService(imports repository.ImportRepository, observations repository.ObservationRepository) *Service {
	return &Service{imports: imports, observations: observations}
}

// RowPage is one page of an import's rows. Total counts the rows matching
// the active filter, not the import's full row count.
type RowPage struct {
	Rows     []domain.Observation `json:"data"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// Create parses an upload and persists the resulting import in PENDING
// status. Authorization is checked before any parsing happens. Rows that
// fail to normalize become parse warnings, not errors; only a file that
// yields nothing usable at all fails.
func (s *Service) Create(ctx context.Context, identity domain.Identity, fileName, displayName string, content []byte) (domain.Import, error) {
	if !identity.Role.CanUpload() {
		return domain.Import{}, fmt.Errorf("role %s cannot upload: %w", identity.Role, domain.ErrUnauthorized)
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return domain.Import{}, fmt.Errorf("file name is required: %w", domain.ErrValidation)
	}

	parsed, err := ingestion.ParseFile(fileName, content)
	if err != nil {
		return domain.Import{}, fmt.Errorf("%s: %w", err, domain.ErrValidation)
	}

	imp := domain.NewImport(fileName, strings.TrimSpace(displayName), identity.Username,
		parsed.Columns, parsed.Warnings, len(parsed.Rows))

	rows := make([]domain.Observation, len(parsed.Rows))
	for i, row := range parsed.Rows {
		row.ID = uuid.New()
		row.ImportID = imp.ID
		rows[i] = row
	}

	created, err := s.imports.Create(ctx, imp, rows)
	if err != nil {
		return domain.Import{}, err
	}
	log.Printf("[imports] created %s (%d rows, %d warnings) by %s",
		created.ID, created.RowCount, len(created.ParseWarnings), identity.Username)
	return created, nil
}

// Approve moves a PENDING import to APPROVED and stamps the audit fields.
// The underlying update is conditional on the current status, so of two
// racing reviewers exactly one wins and the other sees ErrConflict.
// Approving one's own upload is permitted; separation of duties is left to a
// real authorization system.
func (s *Service) Approve(ctx context.Context, identity domain.Identity, id uuid.UUID) (domain.Import, error) {
	if !identity.Role.CanReview() {
		return domain.Import{}, fmt.Errorf("role %s cannot approve: %w", identity.Role, domain.ErrUnauthorized)
	}
	approved, err := s.imports.Approve(ctx, id, identity.Username)
	if err != nil {
		return domain.Import{}, err
	}
	log.Printf("[imports] approved %s by %s", id, identity.Username)
	return approved, nil
}

// Reject moves a PENDING import to REJECTED. Audit fields stay empty; the
// optional reason is recorded.
func (s *Service) Reject(ctx context.Context, identity domain.Identity, id uuid.UUID, reason string) (domain.Import, error) {
	if !identity.Role.CanReview() {
		return domain.Import{}, fmt.Errorf("role %s cannot reject: %w", identity.Role, domain.ErrUnauthorized)
	}
	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}
	rejected, err := s.imports.Reject(ctx, id, reasonPtr)
	if err != nil {
		return domain.Import{}, err
	}
	log.Printf("[imports] rejected %s by %s", id, identity.Username)
	return rejected, nil
}

// Get returns one import's metadata. Reads are unrestricted.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Import, error) {
	return s.imports.GetByID(ctx, id)
}

// List returns all imports, newest first, optionally restricted to a status.
func (s *Service) List(ctx context.Context, status *domain.ImportStatus) ([]domain.Import, error) {
	return s.imports.List(ctx, status)
}

// Rename updates the display label. Uploaders may rename their own imports,
// admins any. Status, audit fields and rows are untouched.
func (s *Service) Rename(ctx context.Context, identity domain.Identity, id uuid.UUID, displayName string) (domain.Import, error) {
	if identity.Role != domain.RoleAdmin {
		existing, err := s.imports.GetByID(ctx, id)
		if err != nil {
			return domain.Import{}, err
		}
		if !identity.Role.CanUpload() || existing.UploadedBy != identity.Username {
			return domain.Import{}, fmt.Errorf("role %s cannot rename import %s: %w", identity.Role, id, domain.ErrUnauthorized)
		}
	}
	return s.imports.UpdateDisplayName(ctx, id, strings.TrimSpace(displayName))
}

// Delete removes an import and its rows. Admin only.
func (s *Service) Delete(ctx context.Context, identity domain.Identity, id uuid.UUID) error {
	if identity.Role != domain.RoleAdmin {
		return fmt.Errorf("role %s cannot delete imports: %w", identity.Role, domain.ErrUnauthorized)
	}
	if err := s.imports.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[imports] deleted %s by %s", id, identity.Username)
	return nil
}

// Rows returns one page of an import's rows in row_index order. Page is
// 1-based; pageSize is clamped to maxPageSize. A page past the end yields an
// empty slice.
func (s *Service) Rows(ctx context.Context, id uuid.UUID, page, pageSize int, filter domain.RowFilter) (RowPage, error) {
	if _, err := s.imports.GetByID(ctx, id); err != nil {
		return RowPage{}, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	rows, total, err := s.observations.List(ctx, id, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return RowPage{}, err
	}
	return RowPage{Rows: rows, Total: total, Page: page, PageSize: pageSize}, nil
}

// Summary reports status-bucketed import counts and the total observation
// count from one consistent snapshot.
func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	return s.imports.Summary(ctx)
}
