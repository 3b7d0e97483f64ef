package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// HistoryRepository persists the append-only substitution ("storico") and
// absence ("assenze") logs.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ExistsForDate reports whether either log already holds rows for date.
func (r *HistoryRepository) ExistsForDate(ctx context.Context, date string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM substitution_history WHERE date = $1) OR EXISTS(SELECT 1 FROM absence_records WHERE date = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, date); err != nil {
		return false, fmt.Errorf("check history for date: %w", err)
	}
	return exists, nil
}

// Append writes both batches atomically. With replace set, rows already
// stored for date are removed first inside the same transaction.
func (r *HistoryRepository) Append(ctx context.Context, date string, replace bool, substitutions []models.CommittedSubstitution, absences []models.AbsenceRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append history: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if replace {
		if _, err = deleteHistoryDate(ctx, tx, date); err != nil {
			return err
		}
	}
	for i := range substitutions {
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO substitution_history (date, day, teacher, hours) VALUES (:date, :day, :teacher, :hours)`, &substitutions[i]); err != nil {
			return fmt.Errorf("insert substitution history: %w", err)
		}
	}
	for i := range absences {
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO absence_records (date, day, teacher, period, class_name) VALUES (:date, :day, :teacher, :period, :class_name)`, &absences[i]); err != nil {
			return fmt.Errorf("insert absence record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append history: %w", err)
	}
	return nil
}

// ListSubstitutions returns committed substitutions, newest first.
func (r *HistoryRepository) ListSubstitutions(ctx context.Context, filter models.HistoryFilter) ([]models.CommittedSubstitution, int, error) {
	where, args := historyConditions(filter)
	limit, offset := historyPage(filter)

	query := fmt.Sprintf("SELECT id, date, day, teacher, hours FROM substitution_history %s ORDER BY date DESC, id ASC LIMIT %d OFFSET %d", where, limit, offset)
	var rows []models.CommittedSubstitution
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list substitution history: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM substitution_history %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count substitution history: %w", err)
	}
	return rows, total, nil
}

// ListAbsences returns absence records, newest first.
func (r *HistoryRepository) ListAbsences(ctx context.Context, filter models.HistoryFilter) ([]models.AbsenceRecord, int, error) {
	where, args := historyConditions(filter)
	limit, offset := historyPage(filter)

	query := fmt.Sprintf("SELECT id, date, day, teacher, period, class_name FROM absence_records %s ORDER BY date DESC, id ASC LIMIT %d OFFSET %d", where, limit, offset)
	var rows []models.AbsenceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list absence records: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM absence_records %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count absence records: %w", err)
	}
	return rows, total, nil
}

// AllSubstitutions returns the full substitution log for backups.
func (r *HistoryRepository) AllSubstitutions(ctx context.Context) ([]models.CommittedSubstitution, error) {
	var rows []models.CommittedSubstitution
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, date, day, teacher, hours FROM substitution_history ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list substitution history: %w", err)
	}
	return rows, nil
}

// AllAbsences returns the full absence log for backups.
func (r *HistoryRepository) AllAbsences(ctx context.Context) ([]models.AbsenceRecord, error) {
	var rows []models.AbsenceRecord
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, date, day, teacher, period, class_name FROM absence_records ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list absence records: %w", err)
	}
	return rows, nil
}

// SubstitutionTotals sums credited hours per teacher.
func (r *HistoryRepository) SubstitutionTotals(ctx context.Context) ([]models.TeacherTotal, error) {
	var totals []models.TeacherTotal
	if err := r.db.SelectContext(ctx, &totals, `SELECT teacher, COALESCE(SUM(hours), 0) AS total FROM substitution_history GROUP BY teacher ORDER BY total DESC, teacher ASC`); err != nil {
		return nil, fmt.Errorf("sum substitution hours: %w", err)
	}
	return totals, nil
}

// AbsenceTotals counts absent hours per teacher.
func (r *HistoryRepository) AbsenceTotals(ctx context.Context) ([]models.TeacherTotal, error) {
	var totals []models.TeacherTotal
	if err := r.db.SelectContext(ctx, &totals, `SELECT teacher, COUNT(*) AS total FROM absence_records GROUP BY teacher ORDER BY total DESC, teacher ASC`); err != nil {
		return nil, fmt.Errorf("count absence hours: %w", err)
	}
	return totals, nil
}

// DeleteByDate removes every row stored for the exact date string.
func (r *HistoryRepository) DeleteByDate(ctx context.Context, date string) (removed int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete history date: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if removed, err = deleteHistoryDate(ctx, tx, date); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete history date: %w", err)
	}
	return removed, nil
}

// Reset empties one history table.
func (r *HistoryRepository) Reset(ctx context.Context, table models.HistoryTable) error {
	var name string
	switch table {
	case models.HistorySubstitutions:
		name = "substitution_history"
	case models.HistoryAbsences:
		name = "absence_records"
	default:
		return fmt.Errorf("unknown history table %q", table)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+name); err != nil {
		return fmt.Errorf("reset %s: %w", name, err)
	}
	return nil
}

func deleteHistoryDate(ctx context.Context, tx *sqlx.Tx, date string) (int64, error) {
	var removed int64
	for _, table := range []string{"substitution_history", "absence_records"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE date = $1", date)
		if err != nil {
			return 0, fmt.Errorf("delete %s for date: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	return removed, nil
}

func historyConditions(filter models.HistoryFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.Teacher != "" {
		conditions = append(conditions, fmt.Sprintf("teacher = $%d", len(args)+1))
		args = append(args, filter.Teacher)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	if len(conditions) == 0 {
		return "WHERE 1=1", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func historyPage(filter models.HistoryFilter) (int, int) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	return size, (page - 1) * size
}
