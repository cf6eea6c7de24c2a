package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var _ domain.HabitEntryRepository = (*SQLEntryRepository)(nil)

const entryColumns = `
	id, habit_id, user_id, entry_date, value, note, mood,
	progress_percentage, is_completed,
	version, created_at, updated_at, deleted_at`

type SQLEntryRepository struct {
	db *sqlx.DB
}

func NewSQLEntryRepository(db *sqlx.DB) *SQLEntryRepository {
	return &SQLEntryRepository{db: db}
}

func (r *SQLEntryRepository) Create(ctx context.Context, entry *domain.HabitEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Version == 0 {
		entry.Version = 1
	}

	query := `INSERT INTO habit_entries (` + entryColumns + `) VALUES (
		:id, :habit_id, :user_id, :entry_date, :value, :note, :mood,
		:progress_percentage, :is_completed,
		:version, :created_at, :updated_at, :deleted_at)`

	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, entry); err != nil {
		return mapEntryWriteError(err)
	}
	return nil
}

func mapEntryWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return domain.ErrEntryDateTaken
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced habit or user does not exist", domain.ErrHabitNotFound)
	default:
		return fmt.Errorf("entry write failed: %w", err)
	}
}

func (r *SQLEntryRepository) GetByID(ctx context.Context, id string) (*domain.HabitEntry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM habit_entries WHERE id = ? AND deleted_at IS NULL`, id)
}

func (r *SQLEntryRepository) GetByHabitAndDate(ctx context.Context, habitID string, date datekey.Date) (*domain.HabitEntry, error) {
	return r.getOne(ctx, `
		SELECT `+entryColumns+` FROM habit_entries
		WHERE habit_id = ? AND entry_date = ? AND deleted_at IS NULL`, habitID, date)
}

func (r *SQLEntryRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.HabitEntry, error) {
	q := conn(ctx, r.db)

	var entry domain.HabitEntry
	if err := sqlx.GetContext(ctx, q, &entry, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *SQLEntryRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.HabitEntry, error) {
	return r.list(ctx, `
		SELECT `+entryColumns+` FROM habit_entries
		WHERE habit_id = ? AND deleted_at IS NULL
		ORDER BY entry_date DESC`, habitID)
}

func (r *SQLEntryRepository) ListByHabitIDWithRange(ctx context.Context, habitID string, from, to datekey.Date) ([]*domain.HabitEntry, error) {
	return r.list(ctx, `
		SELECT `+entryColumns+` FROM habit_entries
		WHERE habit_id = ?
		  AND entry_date >= ?
		  AND entry_date <= ?
		  AND deleted_at IS NULL
		ORDER BY entry_date DESC`, habitID, from, to)
}

func (r *SQLEntryRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to datekey.Date) ([]*domain.HabitEntry, error) {
	return r.list(ctx, `
		SELECT `+entryColumns+` FROM habit_entries
		WHERE user_id = ?
		  AND entry_date >= ?
		  AND entry_date <= ?
		  AND deleted_at IS NULL
		ORDER BY entry_date ASC`, userID, from, to)
}

func (r *SQLEntryRepository) ListPage(ctx context.Context, f domain.EntryFilter) ([]*domain.HabitEntry, int, error) {
	where := []string{"habit_id = ?", "deleted_at IS NULL"}
	args := []interface{}{f.HabitID}
	if !f.From.IsZero() {
		where = append(where, "entry_date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "entry_date <= ?")
		args = append(args, f.To)
	}
	cond := strings.Join(where, " AND ")

	q := conn(ctx, r.db)
	var total int
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind(`SELECT count(*) FROM habit_entries WHERE `+cond), args...); err != nil {
		return nil, 0, fmt.Errorf("count query failed: %w", err)
	}

	entries, err := r.list(ctx,
		`SELECT `+entryColumns+` FROM habit_entries WHERE `+cond+` ORDER BY entry_date DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *SQLEntryRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	return r.list(ctx, `
		SELECT `+entryColumns+` FROM habit_entries
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC`, userID, since.UTC())
}

func (r *SQLEntryRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.HabitEntry, error) {
	q := conn(ctx, r.db)

	entries := []*domain.HabitEntry{}
	if err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return entries, nil
}

func (r *SQLEntryRepository) Update(ctx context.Context, entry *domain.HabitEntry) error {
	next := *entry
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE habit_entries
		SET entry_date = :entry_date,
		    value = :value,
		    note = :note,
		    mood = :mood,
		    progress_percentage = :progress_percentage,
		    is_completed = :is_completed,
		    version = :version,
		    updated_at = :updated_at
		WHERE id = :id
		  AND version = :version - 1
		  AND deleted_at IS NULL`

	res, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, &next)
	if err != nil {
		return mapEntryWriteError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, err := r.exists(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("existence check failed: %w", err)
		}
		if !exists {
			return domain.ErrEntryNotFound
		}
		return domain.ErrEntryConflict
	}

	entry.Version = next.Version
	entry.UpdatedAt = next.UpdatedAt
	return nil
}

// UpdateProgress rewrites derived fields and updated_at; the version stays put.
func (r *SQLEntryRepository) UpdateProgress(ctx context.Context, entry *domain.HabitEntry) error {
	q := conn(ctx, r.db)
	now := time.Now().UTC()
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE habit_entries SET progress_percentage = ?, is_completed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`),
		entry.ProgressPercentage, entry.IsCompleted, now, entry.ID)
	if err != nil {
		return fmt.Errorf("update progress failed: %w", err)
	}
	if err := requireAffected(res, domain.ErrEntryNotFound); err != nil {
		return err
	}
	entry.UpdatedAt = now
	return nil
}

func (r *SQLEntryRepository) Delete(ctx context.Context, id string, userID string) error {
	q := conn(ctx, r.db)
	now := time.Now().UTC()

	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE habit_entries
		SET deleted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`), now, now, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrEntryNotFound)
}

func (r *SQLEntryRepository) exists(ctx context.Context, id string) (bool, error) {
	q := conn(ctx, r.db)
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(`SELECT count(*) FROM habit_entries WHERE id = ? AND deleted_at IS NULL`), id)
	return count > 0, err
}
