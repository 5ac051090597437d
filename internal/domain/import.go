package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus tracks where an upload sits in the review lifecycle.
type ImportStatus string

const (
	ImportStatusPending  ImportStatus = "PENDING"
	ImportStatusApproved ImportStatus = "APPROVED"
	ImportStatusRejected ImportStatus = "REJECTED"
)

// ParseImportStatus validates a caller-supplied status string.
func ParseImportStatus(raw string) (ImportStatus, bool) {
	switch ImportStatus(raw) {
	case ImportStatusPending, ImportStatusApproved, ImportStatusRejected:
		return ImportStatus(raw), true
	default:
		return "", false
	}
}

// Terminal reports whether no further status transition is permitted.
func (s ImportStatus) Terminal() bool {
	return s == ImportStatusApproved || s == ImportStatusRejected
}

// ParseWarning records a source row that could not be normalized into an
// observation (or was stored without a usable value).
type ParseWarning struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Import is one uploaded dataset together with its approval metadata.
// Status, ApprovedBy, ApprovedAt and RejectReason are owned by the lifecycle
// service; everything else is fixed at creation except DisplayName.
type Import struct {
	ID               uuid.UUID      `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	DisplayName      string         `json:"display_name,omitempty"`
	UploadedBy       string         `json:"uploaded_by"`
	UploadedAt       time.Time      `json:"uploaded_at"`
	Status           ImportStatus   `json:"status"`
	ApprovedBy       *string        `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	RejectReason     *string        `json:"reject_reason,omitempty"`
	RowCount         int            `json:"row_count"`
	Columns          []string       `json:"columns"`
	ParseWarnings    []ParseWarning `json:"parse_warnings"`
}

// Label is the user-facing name: the display name when set, otherwise the
// original filename.
func (i Import) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.OriginalFilename
}

// NewImport creates a pending import for a freshly parsed upload.
func NewImport(originalFilename, displayName, uploadedBy string, columns []string, warnings []ParseWarning, rowCount int) Import {
	if columns == nil {
		columns = []string{}
	}
	if warnings == nil {
		warnings = []ParseWarning{}
	}
	return Import{
		ID:               uuid.New(),
		OriginalFilename: originalFilename,
		DisplayName:      displayName,
		UploadedBy:       uploadedBy,
		UploadedAt:       time.Now().UTC(),
		Status:           ImportStatusPending,
		RowCount:         rowCount,
		Columns:          columns,
		ParseWarnings:    warnings,
	}
}
