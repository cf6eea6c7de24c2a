package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var _ domain.HabitRepository = (*SQLHabitRepository)(nil)

const habitColumns = `
	id, user_id, title, description, icon, color, sort_order,
	frequency, weekdays, target_value, unit, reminder_time,
	start_date, end_date, is_active, is_archived,
	current_streak, longest_streak, total_entries,
	version, created_at, updated_at, deleted_at`

// habitRow stores the weekday list as a JSON array in a text column.
type habitRow struct {
	domain.Habit
	WeekdaysJSON sql.NullString `db:"weekdays"`
}

func toHabitRow(h *domain.Habit) (*habitRow, error) {
	row := &habitRow{Habit: *h}
	if len(h.Weekdays) > 0 {
		raw, err := json.Marshal(h.Weekdays)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal weekdays: %w", err)
		}
		row.WeekdaysJSON = sql.NullString{String: string(raw), Valid: true}
	}
	return row, nil
}

func (r *habitRow) toDomain() (*domain.Habit, error) {
	h := r.Habit
	if r.WeekdaysJSON.Valid && r.WeekdaysJSON.String != "" {
		if err := json.Unmarshal([]byte(r.WeekdaysJSON.String), &h.Weekdays); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weekdays: %w", err)
		}
	}
	return &h, nil
}

type SQLHabitRepository struct {
	db *sqlx.DB
}

func NewSQLHabitRepository(db *sqlx.DB) *SQLHabitRepository {
	return &SQLHabitRepository{db: db}
}

func (r *SQLHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	if h.Version == 0 {
		h.Version = 1
	}

	row, err := toHabitRow(h)
	if err != nil {
		return err
	}

	query := `INSERT INTO habits (` + habitColumns + `) VALUES (
		:id, :user_id, :title, :description, :icon, :color, :sort_order,
		:frequency, :weekdays, :target_value, :unit, :reminder_time,
		:start_date, :end_date, :is_active, :is_archived,
		:current_streak, :longest_streak, :total_entries,
		:version, :created_at, :updated_at, :deleted_at)`

	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, row); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner does not exist", domain.ErrHabitInvalidUserID)
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}
	return nil
}

func (r *SQLHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	q := conn(ctx, r.db)

	var row habitRow
	query := q.Rebind(`SELECT ` + habitColumns + ` FROM habits WHERE id = ? AND deleted_at IS NULL`)
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return row.toDomain()
}

func (r *SQLHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return r.list(ctx, `
		SELECT `+habitColumns+` FROM habits
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY sort_order ASC, created_at DESC`, userID)
}

func (r *SQLHabitRepository) ListAll(ctx context.Context) ([]*domain.Habit, error) {
	return r.list(ctx, `
		SELECT `+habitColumns+` FROM habits
		WHERE deleted_at IS NULL
		ORDER BY user_id, sort_order`)
}

func (r *SQLHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.list(ctx, `
		SELECT `+habitColumns+` FROM habits
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC`, userID, since.UTC())
}

func (r *SQLHabitRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Habit, error) {
	q := conn(ctx, r.db)

	var rows []habitRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	habits := make([]*domain.Habit, 0, len(rows))
	for i := range rows {
		h, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (r *SQLHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	row, err := toHabitRow(h)
	if err != nil {
		return err
	}
	row.Version++
	row.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE habits SET
			title = :title, description = :description, icon = :icon, color = :color,
			sort_order = :sort_order, frequency = :frequency, weekdays = :weekdays,
			target_value = :target_value, unit = :unit, reminder_time = :reminder_time,
			start_date = :start_date, end_date = :end_date,
			is_active = :is_active, is_archived = :is_archived,
			version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :version - 1 AND deleted_at IS NULL`

	q := conn(ctx, r.db)
	res, err := sqlx.NamedExecContext(ctx, q, query, row)
	if err != nil {
		return fmt.Errorf("update query failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		exists, err := r.exists(ctx, h.ID)
		if err != nil {
			return fmt.Errorf("existence check failed: %w", err)
		}
		if !exists {
			return domain.ErrHabitNotFound
		}
		return domain.ErrHabitConflict
	}

	h.Version = row.Version
	h.UpdatedAt = row.UpdatedAt
	return nil
}

// Delete soft-deletes the habit and its entries so both reach syncing clients.
func (r *SQLHabitRepository) Delete(ctx context.Context, id string) error {
	q := conn(ctx, r.db)
	now := time.Now().UTC()

	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE habits SET deleted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND deleted_at IS NULL`), now, now, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}
	if err := requireAffected(res, domain.ErrHabitNotFound); err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, q.Rebind(`
		UPDATE habit_entries SET deleted_at = ?, updated_at = ?, version = version + 1
		WHERE habit_id = ? AND deleted_at IS NULL`), now, now, id)
	if err != nil {
		return fmt.Errorf("delete entries query failed: %w", err)
	}
	return nil
}

// UpdateStreaks bumps updated_at so sync clients pick the counters up, but
// leaves version alone: counters are derived data and must not make clients
// see a conflict.
func (r *SQLHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE habits SET current_streak = ?, longest_streak = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`), current, longest, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update streaks failed: %w", err)
	}
	return requireAffected(res, domain.ErrHabitNotFound)
}

func (r *SQLHabitRepository) AdjustTotalEntries(ctx context.Context, id string, delta int) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE habits
		SET total_entries = CASE WHEN total_entries + ? < 0 THEN 0 ELSE total_entries + ? END,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`), delta, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("adjust total entries failed: %w", err)
	}
	return requireAffected(res, domain.ErrHabitNotFound)
}

func (r *SQLHabitRepository) exists(ctx context.Context, id string) (bool, error) {
	q := conn(ctx, r.db)
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(`SELECT count(*) FROM habits WHERE id = ? AND deleted_at IS NULL`), id)
	return count > 0, err
}

func requireAffected(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
