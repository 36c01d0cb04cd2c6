package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lims-qc/identity-service/internal/api/metrics"
	"github.com/lims-qc/identity-service/internal/core/domain"
	"github.com/lims-qc/identity-service/internal/core/ports"
)

const (
	minPasswordLength = 8
	maxListLimit      = 1000
	defaultListLimit  = 100
)

// UserService implements the user lifecycle: registration, authentication,
// reads, partial updates, and hard deletes. It is storage-agnostic — the
// active backend is whatever ports.UserRepository was injected at
// construction time.
type UserService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	tokenTTL time.Duration
	log      zerolog.Logger
}

func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &UserService{repo: repo, hasher: hasher, tokens: tokens, tokenTTL: tokenTTL, log: log}
}

// Register creates a new account. The username is stored lower-cased and the
// password is hashed before anything reaches the repository. Uniqueness is
// delegated to the store's own constraints: the insert goes first and a
// violation comes back as ErrEmailTaken or ErrUsernameTaken.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:          in.Email,
		Username:       domain.NormalizeUsername(in.Username),
		FullName:       in.FullName,
		Role:           role,
		HashedPassword: hash,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(created.Role)).Inc()
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Authenticate resolves identifier as username-or-email and verifies the
// password. Every failure mode — unknown identifier, deactivated account,
// wrong password — returns the same ErrInvalidCredentials so responses do not
// reveal which part was wrong. Hasher failures are infrastructure errors, not
// bad credentials.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (string, *domain.User, error) {
	if identifier == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return "", nil, fmt.Errorf("resolve identifier: %w", err)
	}
	if user == nil {
		metrics.LoginsTotal.WithLabelValues("unknown_identifier").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		s.log.Debug().Str("user_id", user.ID).Msg("login attempt on inactive account")
		return "", nil, domain.ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(ctx, password, user.HashedPassword)
	if err != nil {
		return "", nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user authenticated")
	return token, user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find by email: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// List pages through users by offset. Out-of-range values are clamped rather
// than rejected: skip floors at 0 and limit is bounded to [1,1000].
func (s *UserService) List(ctx context.Context, skip, limit int) ([]*domain.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, skip, limit)
}

// Update applies a partial update. Changed email/username are pre-checked for
// uniqueness excluding the record itself, but the repository's constraint
// handling remains the authority — a concurrent writer that slips past the
// pre-check still surfaces as a conflict, never a double write.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	patch := ports.UserPatch{UpdatedAt: time.Now().UTC()}

	if in.Email != nil {
		taken, err := s.repo.EmailExists(ctx, *in.Email, id)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, domain.ErrEmailTaken
		}
		patch.Email = in.Email
	}

	if in.Username != nil {
		username := domain.NormalizeUsername(*in.Username)
		taken, err := s.repo.UsernameExists(ctx, username, id)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
		patch.Username = &username
	}

	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, domain.ErrPasswordTooShort
		}
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.HashedPassword = &hash
	}

	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, domain.ErrInvalidRole
		}
		patch.Role = in.Role
	}

	patch.FullName = in.FullName
	patch.IsActive = in.IsActive

	// A patch with no field changes is a read, not a write: nothing to
	// persist and no updated_at bump.
	if patch.Empty() {
		return s.repo.FindByID(ctx, id)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", updated.ID).Msg("user updated")
	return updated, nil
}

// Delete removes the record permanently. There is no soft-delete state; the
// id is free for reuse by the backend afterwards.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
