package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const defaultHabitListTTL = 30 * time.Minute

// CachedHabitRepository keeps each user's habit list in redis. Every write
// drops the owner's list after commit; single-habit reads always go to storage.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache redis.Cmdable
	ttl   time.Duration

	// OnLookup, when set, is told whether a list read was served from cache.
	OnLookup func(hit bool)
}

func NewCachedHabitRepository(next domain.HabitRepository, cache redis.Cmdable, ttl time.Duration) *CachedHabitRepository {
	if ttl <= 0 {
		ttl = defaultHabitListTTL
	}
	return &CachedHabitRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func (r *CachedHabitRepository) cacheKey(userID string) string {
	return fmt.Sprintf("kanso:habits:%s", userID)
}

func (r *CachedHabitRepository) lookup(hit bool) {
	if r.OnLookup != nil {
		r.OnLookup(hit)
	}
}

// invalidate drops the owner's list once the surrounding transaction has
// committed, so a read racing the write cannot cache the old rows.
func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string) {
	AfterCommit(ctx, func() {
		if err := r.cache.Del(context.WithoutCancel(ctx), r.cacheKey(userID)).Err(); err != nil {
			log.Printf("[CACHE] Failed to invalidate for user %s: %v", userID, err)
		}
	})
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var habits []*domain.Habit
		if err := json.Unmarshal([]byte(val), &habits); err == nil {
			r.lookup(true)
			return habits, nil
		}

		log.Printf("[CACHE] Corrupted data for user %s, cleaning up key", userID)
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[CACHE] Redis read error: %v", err)
	}
	r.lookup(false)

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if setErr := r.cache.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) ListAll(ctx context.Context) ([]*domain.Habit, error) {
	return r.next.ListAll(ctx)
}

func (r *CachedHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	return r.writeByID(ctx, id, func() error {
		return r.next.Delete(ctx, id)
	})
}

func (r *CachedHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	return r.writeByID(ctx, id, func() error {
		return r.next.UpdateStreaks(ctx, id, current, longest)
	})
}

func (r *CachedHabitRepository) AdjustTotalEntries(ctx context.Context, id string, delta int) error {
	return r.writeByID(ctx, id, func() error {
		return r.next.AdjustTotalEntries(ctx, id, delta)
	})
}

// writeByID runs a write that only knows the habit id and drops the owner's list.
func (r *CachedHabitRepository) writeByID(ctx context.Context, id string, write func() error) error {
	habit, err := r.next.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}
