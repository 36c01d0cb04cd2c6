package domain

import (
	"strings"
	"time"
)

// Role classifies what a user is allowed to do. Compared by value, never by
// raw string, so the closed set below stays the single source of truth.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleQuality    Role = "quality"
	RoleTechnician Role = "technician"
	RoleAuditor    Role = "auditor"
	RoleViewer     Role = "viewer"
)

// DefaultRole is assigned when registration omits an explicit role.
const DefaultRole = RoleViewer

var allRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleQuality:    {},
	RoleTechnician: {},
	RoleAuditor:    {},
	RoleViewer:     {},
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := allRoles[r]
	return ok
}

// User is the persisted identity record. HashedPassword is never serialized
// outward; UpdatedAt stays nil until the first mutation after creation.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name"`
	Role           Role       `json:"role"`
	HashedPassword string     `json:"-"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// NormalizeUsername applies the canonical storage form: trimmed, lower-cased.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
