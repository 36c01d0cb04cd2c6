package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lims-qc/identity-service/internal/api/metrics"
	"github.com/lims-qc/identity-service/internal/core/domain"
	"github.com/lims-qc/identity-service/internal/core/ports"
)

const userCacheTTL = 5 * time.Minute

// cachedUser is the serialized cache entry. The hashed password is never
// written to Redis; lookups that need it (login) bypass the cache entirely.
type cachedUser struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

// CachedUserRepository decorates a ports.UserRepository with a read-through
// Redis cache on FindByID. Mutations invalidate the entry; every other
// operation passes straight through. Cache failures degrade to the inner
// repository, never to an error.
type CachedUserRepository struct {
	ports.UserRepository

	client *redis.Client
	log    zerolog.Logger
}

func NewCachedUserRepository(inner ports.UserRepository, client *redis.Client, log zerolog.Logger) *CachedUserRepository {
	return &CachedUserRepository{UserRepository: inner, client: client, log: log}
}

func (c *CachedUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if raw, err := c.client.Get(ctx, userKey(id)).Bytes(); err == nil {
		var entry cachedUser
		if err := json.Unmarshal(raw, &entry); err == nil {
			metrics.UserCacheTotal.WithLabelValues("hit").Inc()
			return &domain.User{
				ID:        entry.ID,
				Email:     entry.Email,
				Username:  entry.Username,
				FullName:  entry.FullName,
				Role:      entry.Role,
				IsActive:  entry.IsActive,
				CreatedAt: entry.CreatedAt,
				UpdatedAt: entry.UpdatedAt,
			}, nil
		}
	}

	metrics.UserCacheTotal.WithLabelValues("miss").Inc()
	user, err := c.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, user)
	return user, nil
}

func (c *CachedUserRepository) Update(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	user, err := c.UserRepository.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return user, nil
}

func (c *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := c.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedUserRepository) set(ctx context.Context, user *domain.User) {
	entry := cachedUser{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, userKey(user.ID), raw, userCacheTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to cache user")
	}
}

func (c *CachedUserRepository) invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", id).Msg("failed to invalidate user cache")
	}
}

func userKey(id string) string {
	return "user:" + id
}
