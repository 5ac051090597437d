package domain

// Role is the capability class of a caller.
type Role string

const (
	// RoleViewer is the fail-closed default for unknown callers: read-only.
	RoleViewer   Role = "viewer"
	RoleUploader Role = "uploader"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

// CanUpload reports whether the role may create imports.
func (r Role) CanUpload() bool {
	return r == RoleUploader || r == RoleAdmin
}

// CanReview reports whether the role may approve or reject imports.
func (r Role) CanReview() bool {
	return r == RoleApprover || r == RoleAdmin
}

// Identity is a resolved caller. It is always passed explicitly; no package
// in this module reads ambient user state.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
