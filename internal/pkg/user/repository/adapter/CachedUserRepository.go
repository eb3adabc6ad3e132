package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "github.com/sehabur/bookmate-backend/internal/infrastructure/cache/port"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

// CachedUserRepository is a read-through cache decorator over a profile
// repository. Profiles change rarely and only feed conversation-list display,
// so short TTL staleness is acceptable.
type CachedUserRepository struct {
	next  repository.UserRepository
	cache cacheport.Cache
	ttl   time.Duration
}

func NewCachedUserRepository(next repository.UserRepository, cache cacheport.Cache, ttl time.Duration) *CachedUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedUserRepository{next: next, cache: cache, ttl: ttl}
}

var _ repository.UserRepository = (*CachedUserRepository)(nil)

func (r *CachedUserRepository) GetProfile(ctx context.Context, userID string) (*repository.Profile, error) {
	key := "profile:" + userID

	if raw, err := r.cache.Get(ctx, key); err == nil {
		var p repository.Profile
		if json.Unmarshal([]byte(raw), &p) == nil {
			return &p, nil
		}
		// Unreadable entry: drop it and fall through to the source.
		_, _ = r.cache.Del(ctx, key)
	}

	p, err := r.next.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		_ = r.cache.Set(ctx, key, string(raw), r.ttl)
	}
	return p, nil
}
