package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const scheduleColumns = "id, teacher, day, period, class_name, lesson_type, exclude_from_substitution, created_at, updated_at"

const insertScheduleEntry = `INSERT INTO schedule_entries (id, teacher, day, period, class_name, lesson_type, exclude_from_substitution, created_at, updated_at) VALUES (:id, :teacher, :day, :period, :class_name, :lesson_type, :exclude_from_substitution, :created_at, :updated_at)`

// ScheduleRepository provides persistence for the weekly timetable.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns timetable rows with optional filtering.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	base := "FROM schedule_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Teacher != "" {
		conditions = append(conditions, fmt.Sprintf("teacher = $%d", len(args)+1))
		args = append(args, filter.Teacher)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("class_name = $%d", len(args)+1))
		args = append(args, filter.ClassName)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY teacher ASC, day ASC, period ASC", scheduleColumns, base)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// FindByID loads a timetable row by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindBySlot returns the rows a teacher holds at a day and period.
func (r *ScheduleRepository) FindBySlot(ctx context.Context, key models.SlotKey) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE teacher = $1 AND day = $2 AND period = $3", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, key.Teacher, key.Day, key.Period); err != nil {
		return nil, fmt.Errorf("find schedule slot: %w", err)
	}
	return entries, nil
}

// Create stores a new timetable row.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	stampScheduleEntry(entry, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertScheduleEntry, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole timetable within a transaction.
func (r *ScheduleRepository) ReplaceAll(ctx context.Context, entries []models.ScheduleEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_entries`); err != nil {
		return fmt.Errorf("clear schedule entries: %w", err)
	}
	now := time.Now().UTC()
	for i := range entries {
		stampScheduleEntry(&entries[i], now)
		if _, err = sqlx.NamedExecContext(ctx, tx, insertScheduleEntry, &entries[i]); err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedule: %w", err)
	}
	return nil
}

// Delete removes a timetable row by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}

func stampScheduleEntry(entry *models.ScheduleEntry, now time.Time) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
}
