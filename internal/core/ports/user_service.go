package ports

import (
	"context"

	"github.com/lims-qc/identity-service/internal/core/domain"
)

// RegisterInput carries everything needed to create a user. Password arrives
// in plaintext and is hashed by the service before it touches the repository.
type RegisterInput struct {
	Email    string
	Username string
	FullName string
	Password string
	Role     domain.Role
}

// UpdateUserInput is a partial update. Nil pointers mean "leave unchanged".
// Password, when set, is hashed before persistence.
type UpdateUserInput struct {
	Email    *string
	Username *string
	FullName *string
	Password *string
	Role     *domain.Role
	IsActive *bool
}

// UserService orchestrates hashing, token issuance, and the user store.
// Authorization preconditions (self-or-admin, admin-only role changes) are
// enforced by the HTTP boundary, not here.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)

	// Authenticate resolves identifier as username-or-email and returns a
	// signed token plus the account on success. All failure modes (unknown
	// identifier, inactive account, wrong password) yield
	// domain.ErrInvalidCredentials.
	Authenticate(ctx context.Context, identifier, password string) (string, *domain.User, error)

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List pages through users. skip must be >= 0, limit in [1,1000].
	List(ctx context.Context, skip, limit int) ([]*domain.User, error)

	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
