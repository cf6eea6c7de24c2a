package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func seedUser(t *testing.T, b backend, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(uuid.NewString(), email)
	require.NoError(t, err)
	u.PasswordHash = "hash"
	require.NoError(t, b.users.Create(context.Background(), u))
	return u
}

func seedHabit(t *testing.T, b backend, userID string, params domain.HabitParams) *domain.Habit {
	t.Helper()
	if params.Title == "" {
		params.Title = "Read"
	}
	h, err := domain.NewHabit(userID, params)
	require.NoError(t, err)
	require.NoError(t, b.habits.Create(context.Background(), h))
	return h
}

func seedEntry(t *testing.T, b backend, h *domain.Habit, date string, value float64) *domain.HabitEntry {
	t.Helper()
	e := domain.NewHabitEntry(h.ID, h.UserID, datekey.MustParse(date), value)
	require.NoError(t, b.entries.Create(context.Background(), e))
	return e
}

func TestHabitRepository(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		user := seedUser(t, b, "habit-test@kanso.app")

		target := 2.5
		reminder := "08:00"
		h := seedHabit(t, b, user.ID, domain.HabitParams{
			Title:        "Run",
			Color:        "#FFFFFF",
			Frequency:    domain.FrequencyCustom,
			Weekdays:     []int{5, 1, 3},
			TargetValue:  &target,
			Unit:         domain.UnitKilometers,
			ReminderTime: reminder,
		})

		t.Run("Get By ID round trips every field", func(t *testing.T) {
			got, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			assert.Equal(t, "Run", got.Title)
			assert.Equal(t, domain.FrequencyCustom, got.Frequency)
			assert.Equal(t, []int{1, 3, 5}, got.Weekdays)
			require.NotNil(t, got.TargetValue)
			assert.Equal(t, 2.5, *got.TargetValue)
			require.NotNil(t, got.ReminderTime)
			assert.Equal(t, reminder, *got.ReminderTime)
			assert.True(t, got.IsActive)
			assert.Equal(t, 1, got.Version)
			assert.WithinDuration(t, h.CreatedAt, got.CreatedAt, time.Second)
			assert.Nil(t, got.DeletedAt)
		})

		t.Run("Null fields stay nil", func(t *testing.T) {
			plain := seedHabit(t, b, user.ID, domain.HabitParams{Title: "Meditate"})
			got, err := b.habits.GetByID(ctx, plain.ID)
			require.NoError(t, err)
			assert.Nil(t, got.TargetValue)
			assert.Nil(t, got.ReminderTime)
			assert.Nil(t, got.EndDate)
			assert.Empty(t, got.Weekdays)
		})

		t.Run("Update bumps the version", func(t *testing.T) {
			got, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)

			got.Title = "Run far"
			require.NoError(t, b.habits.Update(ctx, got))
			assert.Equal(t, 2, got.Version)

			fresh, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			assert.Equal(t, "Run far", fresh.Title)
			assert.Equal(t, 2, fresh.Version)
		})

		t.Run("Stale version is a conflict", func(t *testing.T) {
			stale, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			winner, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)

			require.NoError(t, b.habits.Update(ctx, winner))

			stale.Title = "Lost update"
			assert.ErrorIs(t, b.habits.Update(ctx, stale), domain.ErrHabitConflict)
		})

		t.Run("Counters keep the version but reach the sync delta", func(t *testing.T) {
			before, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)

			require.NoError(t, b.habits.UpdateStreaks(ctx, h.ID, 3, 9))
			require.NoError(t, b.habits.AdjustTotalEntries(ctx, h.ID, 2))
			require.NoError(t, b.habits.AdjustTotalEntries(ctx, h.ID, -5))

			after, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, after.CurrentStreak)
			assert.Equal(t, 9, after.LongestStreak)
			assert.Equal(t, 0, after.TotalEntries, "counter never goes negative")
			assert.Equal(t, before.Version, after.Version)
			assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

			changes, err := b.habits.GetChanges(ctx, user.ID, before.UpdatedAt)
			require.NoError(t, err)
			require.Len(t, changes, 1)
			assert.Equal(t, h.ID, changes[0].ID)
			assert.Equal(t, 3, changes[0].CurrentStreak)
		})

		t.Run("Unknown IDs", func(t *testing.T) {
			_, err := b.habits.GetByID(ctx, uuid.NewString())
			assert.ErrorIs(t, err, domain.ErrHabitNotFound)

			ghost := &domain.Habit{ID: uuid.NewString(), UserID: user.ID, Title: "ghost", Version: 1}
			assert.ErrorIs(t, b.habits.Update(ctx, ghost), domain.ErrHabitNotFound)
			assert.ErrorIs(t, b.habits.Delete(ctx, ghost.ID), domain.ErrHabitNotFound)
			assert.ErrorIs(t, b.habits.UpdateStreaks(ctx, ghost.ID, 1, 1), domain.ErrHabitNotFound)
		})

		t.Run("List, soft delete and changes", func(t *testing.T) {
			other := seedUser(t, b, "other@kanso.app")
			seedHabit(t, b, other.ID, domain.HabitParams{Title: "Not mine"})

			since := time.Now().UTC().Add(-time.Minute)

			list, err := b.habits.ListByUserID(ctx, user.ID)
			require.NoError(t, err)
			assert.Len(t, list, 2)

			all, err := b.habits.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			e := seedEntry(t, b, h, "2025-06-01", 1)
			require.NoError(t, b.habits.Delete(ctx, h.ID))

			_, err = b.habits.GetByID(ctx, h.ID)
			assert.ErrorIs(t, err, domain.ErrHabitNotFound)
			_, err = b.entries.GetByID(ctx, e.ID)
			assert.ErrorIs(t, err, domain.ErrEntryNotFound, "entries follow their habit")

			list, err = b.habits.ListByUserID(ctx, user.ID)
			require.NoError(t, err)
			assert.Len(t, list, 1)

			changes, err := b.habits.GetChanges(ctx, user.ID, since)
			require.NoError(t, err)
			var deleted *domain.Habit
			for _, c := range changes {
				if c.ID == h.ID {
					deleted = c
				}
			}
			require.NotNil(t, deleted, "deleted habit must be part of the delta")
			assert.NotNil(t, deleted.DeletedAt)
		})
	})
}

func TestEntryRepository(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		user := seedUser(t, b, "entries@kanso.app")
		h := seedHabit(t, b, user.ID, domain.HabitParams{})

		t.Run("Create and read back", func(t *testing.T) {
			e := domain.NewHabitEntry(h.ID, user.ID, datekey.MustParse("2025-06-01"), 3)
			e.Note = "felt good"
			e.Mood = domain.MoodGood
			e.ProgressPercentage = 60
			require.NoError(t, b.entries.Create(ctx, e))

			got, err := b.entries.GetByID(ctx, e.ID)
			require.NoError(t, err)
			assert.Equal(t, datekey.MustParse("2025-06-01"), got.Date)
			assert.Equal(t, 3.0, got.Value)
			assert.Equal(t, "felt good", got.Note)
			assert.Equal(t, domain.MoodGood, got.Mood)
			assert.Equal(t, 60.0, got.ProgressPercentage)
			assert.False(t, got.IsCompleted)

			byDate, err := b.entries.GetByHabitAndDate(ctx, h.ID, datekey.MustParse("2025-06-01"))
			require.NoError(t, err)
			assert.Equal(t, e.ID, byDate.ID)
		})

		t.Run("Second entry on the same date is rejected", func(t *testing.T) {
			dup := domain.NewHabitEntry(h.ID, user.ID, datekey.MustParse("2025-06-01"), 1)
			assert.ErrorIs(t, b.entries.Create(ctx, dup), domain.ErrEntryDateTaken)
		})

		t.Run("Entry for a missing habit", func(t *testing.T) {
			orphan := domain.NewHabitEntry(uuid.NewString(), user.ID, datekey.MustParse("2025-06-01"), 1)
			assert.ErrorIs(t, b.entries.Create(ctx, orphan), domain.ErrHabitNotFound)
		})

		t.Run("Update with optimistic locking", func(t *testing.T) {
			e := seedEntry(t, b, h, "2025-06-02", 1)

			e.Value = 5
			require.NoError(t, b.entries.Update(ctx, e))
			assert.Equal(t, 2, e.Version)

			stale := *e
			stale.Version = 1
			assert.ErrorIs(t, b.entries.Update(ctx, &stale), domain.ErrEntryConflict)

			e.Date = datekey.MustParse("2025-06-01")
			assert.ErrorIs(t, b.entries.Update(ctx, e), domain.ErrEntryDateTaken)
		})

		t.Run("Progress update keeps the version but reaches the sync delta", func(t *testing.T) {
			e := seedEntry(t, b, h, "2025-06-03", 4)
			before, err := b.entries.GetByID(ctx, e.ID)
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)

			e.ProgressPercentage = 100
			e.IsCompleted = true
			require.NoError(t, b.entries.UpdateProgress(ctx, e))

			got, err := b.entries.GetByID(ctx, e.ID)
			require.NoError(t, err)
			assert.True(t, got.IsCompleted)
			assert.Equal(t, 100.0, got.ProgressPercentage)
			assert.Equal(t, 1, got.Version)

			changes, err := b.entries.GetChanges(ctx, user.ID, before.UpdatedAt)
			require.NoError(t, err)
			require.Len(t, changes, 1)
			assert.Equal(t, e.ID, changes[0].ID)
			assert.True(t, changes[0].IsCompleted)
		})

		t.Run("Lists and pages newest first", func(t *testing.T) {
			all, err := b.entries.ListByHabitID(ctx, h.ID)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "2025-06-03", all[0].Date.String())
			assert.Equal(t, "2025-06-01", all[2].Date.String())

			ranged, err := b.entries.ListByHabitIDWithRange(ctx, h.ID, datekey.MustParse("2025-06-02"), datekey.MustParse("2025-06-03"))
			require.NoError(t, err)
			assert.Len(t, ranged, 2)

			page, total, err := b.entries.ListPage(ctx, domain.EntryFilter{HabitID: h.ID, Limit: 2, Offset: 1})
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			require.Len(t, page, 2)
			assert.Equal(t, "2025-06-02", page[0].Date.String())

			page, total, err = b.entries.ListPage(ctx, domain.EntryFilter{HabitID: h.ID, From: datekey.MustParse("2025-06-03"), Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, 1, total)
			assert.Len(t, page, 1)

			byUser, err := b.entries.ListByUserIDAndDateRange(ctx, user.ID, datekey.MustParse("2025-06-01"), datekey.MustParse("2025-06-02"))
			require.NoError(t, err)
			require.Len(t, byUser, 2)
			assert.Equal(t, "2025-06-01", byUser[0].Date.String(), "user range is oldest first")
		})

		t.Run("Delete checks the owner and frees the date", func(t *testing.T) {
			e, err := b.entries.GetByHabitAndDate(ctx, h.ID, datekey.MustParse("2025-06-03"))
			require.NoError(t, err)

			assert.ErrorIs(t, b.entries.Delete(ctx, e.ID, "someone-else"), domain.ErrEntryNotFound)

			since := time.Now().UTC().Add(-time.Minute)
			require.NoError(t, b.entries.Delete(ctx, e.ID, user.ID))

			_, err = b.entries.GetByID(ctx, e.ID)
			assert.ErrorIs(t, err, domain.ErrEntryNotFound)

			changes, err := b.entries.GetChanges(ctx, user.ID, since)
			require.NoError(t, err)
			require.NotEmpty(t, changes)
			last := changes[len(changes)-1]
			assert.Equal(t, e.ID, last.ID)
			assert.NotNil(t, last.DeletedAt)

			seedEntry(t, b, h, "2025-06-03", 2)
		})
	})
}

func TestUserRepository(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		u := seedUser(t, b, "someone@kanso.app")

		byID, err := b.users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "someone@kanso.app", byID.Email)
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := b.users.GetByEmail(ctx, "someone@kanso.app")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		dup, err := domain.NewUser(uuid.NewString(), "someone@kanso.app")
		require.NoError(t, err)
		dup.PasswordHash = "hash"
		assert.ErrorIs(t, b.users.Create(ctx, dup), domain.ErrEmailAlreadyExists)

		_, err = b.users.GetByEmail(ctx, "nobody@kanso.app")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		h := seedHabit(t, b, u.ID, domain.HabitParams{})
		e := seedEntry(t, b, h, "2025-06-01", 1)

		require.NoError(t, b.users.Delete(ctx, u.ID))
		_, err = b.users.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.ErrorIs(t, b.users.Delete(ctx, u.ID), domain.ErrUserNotFound)

		_, err = b.habits.GetByID(ctx, h.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound, "habits cascade")
		_, err = b.entries.GetByID(ctx, e.ID)
		assert.ErrorIs(t, err, domain.ErrEntryNotFound, "entries cascade")
	})
}

func TestTransactor(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		user := seedUser(t, b, "tx@kanso.app")
		h := seedHabit(t, b, user.ID, domain.HabitParams{})

		t.Run("Commit keeps every write", func(t *testing.T) {
			err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
				e := domain.NewHabitEntry(h.ID, user.ID, datekey.MustParse("2025-01-01"), 1)
				if err := b.entries.Create(ctx, e); err != nil {
					return err
				}
				return b.habits.AdjustTotalEntries(ctx, h.ID, 1)
			})
			require.NoError(t, err)

			got, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, got.TotalEntries)
		})

		t.Run("Failure rolls everything back", func(t *testing.T) {
			boom := errors.New("boom")
			err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
				e := domain.NewHabitEntry(h.ID, user.ID, datekey.MustParse("2025-01-02"), 1)
				if err := b.entries.Create(ctx, e); err != nil {
					return err
				}
				if err := b.habits.AdjustTotalEntries(ctx, h.ID, 1); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			_, err = b.entries.GetByHabitAndDate(ctx, h.ID, datekey.MustParse("2025-01-02"))
			assert.ErrorIs(t, err, domain.ErrEntryNotFound)

			got, err := b.habits.GetByID(ctx, h.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, got.TotalEntries)
		})

		t.Run("Nested calls join the outer transaction", func(t *testing.T) {
			err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
				return b.tx.WithinTx(ctx, func(ctx context.Context) error {
					return b.habits.UpdateStreaks(ctx, h.ID, 1, 1)
				})
			})
			require.NoError(t, err)
		})

		t.Run("Commit hooks wait for the outer commit", func(t *testing.T) {
			var ran []string
			err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
				AfterCommit(ctx, func() { ran = append(ran, "outer") })
				err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
					AfterCommit(ctx, func() { ran = append(ran, "inner") })
					return nil
				})
				assert.Empty(t, ran, "nothing runs before commit")
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"outer", "inner"}, ran)
		})

		t.Run("Rollback drops commit hooks", func(t *testing.T) {
			ran := false
			err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
				AfterCommit(ctx, func() { ran = true })
				return errors.New("boom")
			})
			assert.Error(t, err)
			assert.False(t, ran)
		})

		t.Run("Without a transaction hooks run at once", func(t *testing.T) {
			ran := false
			AfterCommit(ctx, func() { ran = true })
			assert.True(t, ran)
		})
	})
}
