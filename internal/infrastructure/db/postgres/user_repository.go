package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lims-qc/identity-service/internal/core/domain"
	"github.com/lims-qc/identity-service/internal/core/ports"
)

// UserRepository is the relational backend. Ids are serial integers exposed
// to callers as their decimal string form, so the service layer sees the
// same opaque string ids as with the document store. Uniqueness rides on the
// users_email_key and users_username_key constraints; writes go first and
// the violation is translated afterwards.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID             int64      `db:"id"`
	Email          string     `db:"email"`
	Username       string     `db:"username"`
	FullName       string     `db:"full_name"`
	Role           string     `db:"role"`
	HashedPassword string     `db:"hashed_password"`
	IsActive       bool       `db:"is_active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:             strconv.FormatInt(r.ID, 10),
		Email:          r.Email,
		Username:       r.Username,
		FullName:       r.FullName,
		Role:           domain.Role(r.Role),
		HashedPassword: r.HashedPassword,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt,
	}
}

const userColumns = "id, email, username, full_name, role, hashed_password, is_active, created_at, updated_at"

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
		INSERT INTO users (email, username, full_name, role, hashed_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	var row userRow
	err := r.db.GetContext(ctx, &row, query,
		user.Email, user.Username, user.FullName, string(user.Role),
		user.HashedPassword, user.IsActive, user.CreatedAt,
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	pk, err := parseID(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var row userRow
	err = r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, pk)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, term string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $2`
	return r.findOne(ctx, query, term, strings.ToLower(term))
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, skip); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	pk, err := parseID(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	sets := []string{"updated_at = $1"}
	args := []interface{}{patch.UpdatedAt}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Role != nil {
		add("role", string(*patch.Role))
	}
	if patch.HashedPassword != nil {
		add("hashed_password", *patch.HashedPassword)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}

	args = append(args, pk)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns,
	)

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	pk, err := parseID(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, pk)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username", strings.ToLower(username), excludeID)
}

func (r *UserRepository) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM users WHERE %s = $1)`, column)
	args := []interface{}{value}

	if excludeID != "" {
		if pk, err := parseID(excludeID); err == nil {
			query = fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM users WHERE %s = $1 AND id <> $2)`, column)
			args = append(args, pk)
		}
	}

	var found bool
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		return false, fmt.Errorf("check %s exists: %w", column, err)
	}
	return found, nil
}

// parseID converts the opaque string id to the integer primary key.
func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// uniqueViolation maps a 23505 unique-constraint error to the conflict
// sentinel naming the colliding field, or nil when err is something else.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "username") {
		return domain.ErrUsernameTaken
	}
	return domain.ErrEmailTaken
}
