package imports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rpattn/econgate/internal/domain"

	"github.com/google/uuid"
)

// stubImportRepo is an in-memory ImportRepository with the same conditional
// transition semantics as the Postgres implementation.
type stubImportRepo struct {
	mu      sync.Mutex
	imports map[uuid.UUID]domain.Import
	rows    map[uuid.UUID][]domain.Observation
}

func newStubImportRepo() *stubImportRepo {
	return &stubImportRepo{
		imports: make(map[uuid.UUID]domain.Import),
		rows:    make(map[uuid.UUID][]domain.Observation),
	}
}

func (r *stubImportRepo) Create(_ context.Context, imp domain.Import, rows []domain.Observation) (domain.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[imp.ID] = imp
	r.rows[imp.ID] = append([]domain.Observation(nil), rows...)
	return imp, nil
}

func (r *stubImportRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return domain.Import{}, fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
	}
	return imp, nil
}

func (r *stubImportRepo) List(_ context.Context, status *domain.ImportStatus) ([]domain.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imports := make([]domain.Import, 0, len(r.imports))
	for _, imp := range r.imports {
		if status != nil && imp.Status != *status {
			continue
		}
		imports = append(imports, imp)
	}
	sort.Slice(imports, func(i, j int) bool {
		if !imports[i].UploadedAt.Equal(imports[j].UploadedAt) {
			return imports[i].UploadedAt.After(imports[j].UploadedAt)
		}
		return imports[i].ID.String() < imports[j].ID.String()
	})
	return imports, nil
}

func (r *stubImportRepo) Approve(_ context.Context, id uuid.UUID, approvedBy string) (domain.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return domain.Import{}, fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
	}
	if imp.Status != domain.ImportStatusPending {
		return domain.Import{}, fmt.Errorf("import %s is %s: %w", id, imp.Status, domain.ErrConflict)
	}
	now := time.Now().UTC()
	imp.Status = domain.ImportStatusApproved
	imp.ApprovedBy = &approvedBy
	imp.ApprovedAt = &now
	r.imports[id] = imp
	return imp, nil
}

func (r *stubImportRepo) Reject(_ context.Context, id uuid.UUID, reason *string) (domain.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return domain.Import{}, fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
	}
	if imp.Status != domain.ImportStatusPending {
		return domain.Import{}, fmt.Errorf("import %s is %s: %w", id, imp.Status, domain.ErrConflict)
	}
	imp.Status = domain.ImportStatusRejected
	imp.RejectReason = reason
	r.imports[id] = imp
	return imp, nil
}

func (r *stubImportRepo) UpdateDisplayName(_ context.Context, id uuid.UUID, displayName string) (domain.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return domain.Import{}, fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
	}
	imp.DisplayName = displayName
	r.imports[id] = imp
	return imp, nil
}

func (r *stubImportRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.imports[id]; !ok {
		return fmt.Errorf("import %s: %w", id, domain.ErrNotFound)
	}
	delete(r.imports, id)
	delete(r.rows, id)
	return nil
}

func (r *stubImportRepo) Summary(_ context.Context) (domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var summary domain.Summary
	for _, imp := range r.imports {
		summary.Imports.Total++
		switch imp.Status {
		case domain.ImportStatusPending:
			summary.Imports.Pending++
		case domain.ImportStatusApproved:
			summary.Imports.Approved++
		case domain.ImportStatusRejected:
			summary.Imports.Rejected++
		}
	}
	for _, rows := range r.rows {
		summary.Observations.Total += len(rows)
	}
	return summary, nil
}

// stubObservationRepo serves pages from the rows held by a stubImportRepo,
// applying the same filter semantics as the Postgres implementation.
type stubObservationRepo struct {
	imports *stubImportRepo
}

func (r *stubObservationRepo) List(_ context.Context, importID uuid.UUID, filter domain.RowFilter, limit, offset int) ([]domain.Observation, int, error) {
	r.imports.mu.Lock()
	defer r.imports.mu.Unlock()

	matched := make([]domain.Observation, 0)
	for _, obs := range r.imports.rows[importID] {
		if filter.Series != "" && !strings.Contains(strings.ToLower(obs.Series), strings.ToLower(filter.Series)) {
			continue
		}
		if filter.DateFrom != "" && obs.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && obs.Date > filter.DateTo {
			continue
		}
		matched = append(matched, obs)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].RowIndex < matched[j].RowIndex })

	total := len(matched)
	if offset >= total {
		return []domain.Observation{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
