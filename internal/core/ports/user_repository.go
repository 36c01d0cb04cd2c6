package ports

import (
	"context"
	"time"

	"github.com/lims-qc/identity-service/internal/core/domain"
)

// UserPatch carries a partial update. Nil fields are left untouched; the
// repository applies only what is set and refreshes updated_at.
type UserPatch struct {
	Email          *string
	Username       *string
	FullName       *string
	Role           *domain.Role
	HashedPassword *string
	IsActive       *bool
	UpdatedAt      time.Time
}

// Empty reports whether the patch carries no field changes.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.Username == nil && p.FullName == nil &&
		p.Role == nil && p.HashedPassword == nil && p.IsActive == nil
}

// UserRepository defines persistence for user records. Both backends (MongoDB
// and PostgreSQL) satisfy it with identical observable semantics: the same
// sentinel errors, the same field casing, the same pagination contract.
//
// Uniqueness is enforced by the store's own unique constraints: Insert and
// Update write first and translate the constraint violation, never check
// before writing.
type UserRepository interface {
	// Insert persists a new record and returns it with the store-assigned id.
	// A duplicate email or username yields domain.ErrEmailTaken or
	// domain.ErrUsernameTaken.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)

	// FindByID returns domain.ErrUserNotFound when the id is absent or is not
	// syntactically valid for the backend's id format.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByEmail returns (nil, nil) when no record matches; the caller
	// decides whether absence is an error.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByUsernameOrEmail matches either field; used only for login.
	// Returns (nil, nil) when no record matches.
	FindByUsernameOrEmail(ctx context.Context, term string) (*domain.User, error)

	// List returns a page of records by offset. Ordering is backend-defined.
	List(ctx context.Context, skip, limit int) ([]*domain.User, error)

	// Update applies only the fields set in patch. Duplicates map to the same
	// conflict sentinels as Insert; a vanished record yields ErrUserNotFound.
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)

	// Delete removes the record permanently.
	Delete(ctx context.Context, id string) error

	// EmailExists and UsernameExists are pre-flight checks before mutation.
	// excludeID, when non-empty, ignores the record being updated.
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	UsernameExists(ctx context.Context, username, excludeID string) (bool, error)
}
