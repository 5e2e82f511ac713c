package caching

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheService fronts Redis for the hot lookups on the request path:
// the organization-handle resolver and webhook rate limiting.
type CacheService interface {
	// Resolver cache: identity-provider org handle -> tenant id.
	GetOrgMapping(ctx context.Context, orgID string) (uuid.UUID, bool, error)
	SetOrgMapping(ctx context.Context, orgID string, tenantID uuid.UUID, ttl time.Duration) error
	DeleteOrgMapping(ctx context.Context, orgID string) error

	// Rate limiting.
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations.
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetOrgMapping(ctx context.Context, orgID string) (uuid.UUID, bool, error) {
	key := fmt.Sprintf("inkwell:orgmap:%s", orgID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		// Stale or corrupt entry; treat as a miss and drop it.
		r.client.Del(ctx, key)
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (r *redisCacheService) SetOrgMapping(ctx context.Context, orgID string, tenantID uuid.UUID, ttl time.Duration) error {
	key := fmt.Sprintf("inkwell:orgmap:%s", orgID)
	return r.client.Set(ctx, key, tenantID.String(), ttl).Err()
}

func (r *redisCacheService) DeleteOrgMapping(ctx context.Context, orgID string) error {
	key := fmt.Sprintf("inkwell:orgmap:%s", orgID)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("inkwell:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}
	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
