package auth

import (
	"strings"

	"github.com/rpattn/econgate/internal/domain"
)

// Resolver maps a declared username to an Identity. It stands in for a real
// authentication system: the username table is fixed and unknown names fail
// closed to the read-only viewer role instead of erroring, so nothing
// downstream has to special-case an unknown caller.
type Resolver struct {
	roles map[string]domain.Role
}

// NewResolver builds a resolver with the default development users.
func NewResolver() *Resolver {
	return &Resolver{
		roles: map[string]domain.Role{
			"alice": domain.RoleUploader,
			"bob":   domain.RoleApprover,
			"admin": domain.RoleAdmin,
		},
	}
}

// Resolve returns the identity for a declared username. The lookup is
// case-insensitive; empty and unknown usernames resolve to viewer.
func (r *Resolver) Resolve(username string) domain.Identity {
	username = strings.ToLower(strings.TrimSpace(username))
	if role, ok := r.roles[username]; ok {
		return domain.Identity{Username: username, Role: role}
	}
	return domain.Identity{Username: username, Role: domain.RoleViewer}
}
