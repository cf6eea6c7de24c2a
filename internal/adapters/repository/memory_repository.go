package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// MemoryStore keeps users, habits and entries in process memory. Values are
// copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	habits  map[string]domain.Habit
	entries map[string]domain.HabitEntry

	txMu sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		habits:  make(map[string]domain.Habit),
		entries: make(map[string]domain.HabitEntry),
	}
}

func (s *MemoryStore) Habits() *InMemoryHabitRepository  { return &InMemoryHabitRepository{s: s} }
func (s *MemoryStore) Entries() *InMemoryEntryRepository { return &InMemoryEntryRepository{s: s} }
func (s *MemoryStore) Users() *InMemoryUserRepository    { return &InMemoryUserRepository{s: s} }
func (s *MemoryStore) Transactor() *InMemoryTransactor   { return &InMemoryTransactor{s: s} }

func copyHabit(h domain.Habit) *domain.Habit {
	if h.Weekdays != nil {
		h.Weekdays = append([]int(nil), h.Weekdays...)
	}
	if h.TargetValue != nil {
		v := *h.TargetValue
		h.TargetValue = &v
	}
	if h.ReminderTime != nil {
		v := *h.ReminderTime
		h.ReminderTime = &v
	}
	return &h
}

// InMemoryTransactor serializes transactions and restores the previous
// state when fn fails.
type InMemoryTransactor struct {
	s *MemoryStore
}

var _ domain.Transactor = (*InMemoryTransactor)(nil)

func (t *InMemoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.RLock()
	users, habits, entries := cloneMap(t.s.users), cloneMap(t.s.habits), cloneMap(t.s.entries)
	t.s.mu.RUnlock()

	txCtx, hooks := withCommitHooks(context.WithValue(ctx, txKey{}, t))
	if err := fn(txCtx); err != nil {
		t.s.mu.Lock()
		t.s.users, t.s.habits, t.s.entries = users, habits, entries
		t.s.mu.Unlock()
		return err
	}
	hooks.run()
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type InMemoryHabitRepository struct {
	s *MemoryStore
}

var _ domain.HabitRepository = (*InMemoryHabitRepository)(nil)

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return NewMemoryStore().Habits()
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if habit.ID == "" {
		habit.ID = uuid.NewString()
	}
	if habit.Version == 0 {
		habit.Version = 1
	}
	r.s.habits[habit.ID] = *copyHabit(*habit)
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	h, ok := r.s.habits[id]
	if !ok || h.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	return copyHabit(h), nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return r.filter(func(h domain.Habit) bool { return h.UserID == userID && h.DeletedAt == nil }, byOrder), nil
}

func (r *InMemoryHabitRepository) ListAll(ctx context.Context) ([]*domain.Habit, error) {
	return r.filter(func(h domain.Habit) bool { return h.DeletedAt == nil }, byOrder), nil
}

func (r *InMemoryHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.filter(func(h domain.Habit) bool {
		return h.UserID == userID && h.UpdatedAt.After(since)
	}, func(a, b *domain.Habit) bool { return a.UpdatedAt.Before(b.UpdatedAt) }), nil
}

func byOrder(a, b *domain.Habit) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r *InMemoryHabitRepository) filter(keep func(domain.Habit) bool, less func(a, b *domain.Habit) bool) []*domain.Habit {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.s.habits {
		if keep(h) {
			habits = append(habits, copyHabit(h))
		}
	}
	sort.Slice(habits, func(i, j int) bool { return less(habits[i], habits[j]) })
	return habits
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.habits[habit.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	habit.UpdatedAt = time.Now().UTC()

	next := *copyHabit(*habit)
	next.CurrentStreak, next.LongestStreak, next.TotalEntries = stored.CurrentStreak, stored.LongestStreak, stored.TotalEntries
	r.s.habits[habit.ID] = next
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	h, ok := r.s.habits[id]
	if !ok || h.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}

	now := time.Now().UTC()
	h.DeletedAt, h.UpdatedAt = &now, now
	h.Version++
	r.s.habits[id] = h

	for eid, e := range r.s.entries {
		if e.HabitID == id && e.DeletedAt == nil {
			e.DeletedAt, e.UpdatedAt = &now, now
			e.Version++
			r.s.entries[eid] = e
		}
	}
	return nil
}

func (r *InMemoryHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	return r.mutate(id, func(h *domain.Habit) {
		h.CurrentStreak, h.LongestStreak = current, longest
		h.UpdatedAt = time.Now().UTC()
	})
}

func (r *InMemoryHabitRepository) AdjustTotalEntries(ctx context.Context, id string, delta int) error {
	return r.mutate(id, func(h *domain.Habit) {
		h.TotalEntries = max(h.TotalEntries+delta, 0)
		h.UpdatedAt = time.Now().UTC()
	})
}

func (r *InMemoryHabitRepository) mutate(id string, fn func(h *domain.Habit)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	h, ok := r.s.habits[id]
	if !ok || h.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	fn(&h)
	r.s.habits[id] = h
	return nil
}

type InMemoryEntryRepository struct {
	s *MemoryStore
}

var _ domain.HabitEntryRepository = (*InMemoryEntryRepository)(nil)

func (r *InMemoryEntryRepository) Create(ctx context.Context, entry *domain.HabitEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[entry.HabitID]; !ok {
		return domain.ErrHabitNotFound
	}
	if r.dateTakenLocked(entry.HabitID, entry.Date, "") {
		return domain.ErrEntryDateTaken
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Version == 0 {
		entry.Version = 1
	}
	r.s.entries[entry.ID] = *entry
	return nil
}

func (r *InMemoryEntryRepository) dateTakenLocked(habitID string, date datekey.Date, exceptID string) bool {
	for id, e := range r.s.entries {
		if id != exceptID && e.HabitID == habitID && e.Date == date && e.DeletedAt == nil {
			return true
		}
	}
	return false
}

func (r *InMemoryEntryRepository) GetByID(ctx context.Context, id string) (*domain.HabitEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.entries[id]
	if !ok || e.DeletedAt != nil {
		return nil, domain.ErrEntryNotFound
	}
	return &e, nil
}

func (r *InMemoryEntryRepository) GetByHabitAndDate(ctx context.Context, habitID string, date datekey.Date) (*domain.HabitEntry, error) {
	found := r.filter(func(e domain.HabitEntry) bool {
		return e.HabitID == habitID && e.Date == date && e.DeletedAt == nil
	}, newestFirst)
	if len(found) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return found[0], nil
}

func (r *InMemoryEntryRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.HabitEntry, error) {
	return r.filter(func(e domain.HabitEntry) bool {
		return e.HabitID == habitID && e.DeletedAt == nil
	}, newestFirst), nil
}

func (r *InMemoryEntryRepository) ListByHabitIDWithRange(ctx context.Context, habitID string, from, to datekey.Date) ([]*domain.HabitEntry, error) {
	return r.filter(func(e domain.HabitEntry) bool {
		return e.HabitID == habitID && e.DeletedAt == nil && inRange(e.Date, from, to)
	}, newestFirst), nil
}

func (r *InMemoryEntryRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to datekey.Date) ([]*domain.HabitEntry, error) {
	return r.filter(func(e domain.HabitEntry) bool {
		return e.UserID == userID && e.DeletedAt == nil && inRange(e.Date, from, to)
	}, func(a, b *domain.HabitEntry) bool { return a.Date.Before(b.Date) }), nil
}

func (r *InMemoryEntryRepository) ListPage(ctx context.Context, f domain.EntryFilter) ([]*domain.HabitEntry, int, error) {
	all := r.filter(func(e domain.HabitEntry) bool {
		if e.HabitID != f.HabitID || e.DeletedAt != nil {
			return false
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			return false
		}
		return f.To.IsZero() || !e.Date.After(f.To)
	}, newestFirst)

	total := len(all)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return all[start:end], total, nil
}

func (r *InMemoryEntryRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	return r.filter(func(e domain.HabitEntry) bool {
		return e.UserID == userID && e.UpdatedAt.After(since)
	}, func(a, b *domain.HabitEntry) bool { return a.UpdatedAt.Before(b.UpdatedAt) }), nil
}

func inRange(d, from, to datekey.Date) bool {
	return !d.Before(from) && !d.After(to)
}

func newestFirst(a, b *domain.HabitEntry) bool {
	if a.Date != b.Date {
		return a.Date.After(b.Date)
	}
	return strings.Compare(a.ID, b.ID) < 0
}

func (r *InMemoryEntryRepository) filter(keep func(domain.HabitEntry) bool, less func(a, b *domain.HabitEntry) bool) []*domain.HabitEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := []*domain.HabitEntry{}
	for _, e := range r.s.entries {
		if keep(e) {
			e := e
			entries = append(entries, &e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
	return entries
}

func (r *InMemoryEntryRepository) Update(ctx context.Context, entry *domain.HabitEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.entries[entry.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrEntryNotFound
	}
	if stored.Version != entry.Version {
		return domain.ErrEntryConflict
	}
	if entry.Date != stored.Date && r.dateTakenLocked(entry.HabitID, entry.Date, entry.ID) {
		return domain.ErrEntryDateTaken
	}

	entry.Version++
	entry.UpdatedAt = time.Now().UTC()
	r.s.entries[entry.ID] = *entry
	return nil
}

func (r *InMemoryEntryRepository) UpdateProgress(ctx context.Context, entry *domain.HabitEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.entries[entry.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrEntryNotFound
	}
	stored.ProgressPercentage = entry.ProgressPercentage
	stored.IsCompleted = entry.IsCompleted
	stored.UpdatedAt = time.Now().UTC()
	r.s.entries[entry.ID] = stored
	entry.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *InMemoryEntryRepository) Delete(ctx context.Context, id string, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.entries[id]
	if !ok || e.DeletedAt != nil || e.UserID != userID {
		return domain.ErrEntryNotFound
	}

	now := time.Now().UTC()
	e.DeletedAt, e.UpdatedAt = &now, now
	e.Version++
	r.s.entries[id] = e
	return nil
}

type InMemoryUserRepository struct {
	s *MemoryStore
}

var _ domain.UserRepository = (*InMemoryUserRepository)(nil)

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	for hid, h := range r.s.habits {
		if h.UserID == id {
			delete(r.s.habits, hid)
		}
	}
	for eid, e := range r.s.entries {
		if e.UserID == id {
			delete(r.s.entries, eid)
		}
	}
	return nil
}
