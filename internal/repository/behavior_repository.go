package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const behaviorColumns = "id, student_name, subject, criticality, report_date, teacher, notes, created_by, created_at"

// BehaviorRepository manages persistence for student behaviour reports.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs a new repository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// List returns behaviour reports per provided filter. A PageSize below
// zero disables pagination for exports.
func (r *BehaviorRepository) List(ctx context.Context, filter models.BehaviorReportFilter) ([]models.BehaviorReport, int, error) {
	base := "FROM behavior_reports"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentName != "" {
		where = append(where, fmt.Sprintf("student_name = $%d", len(args)+1))
		args = append(args, filter.StudentName)
	}
	if filter.Subject != "" {
		where = append(where, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if len(filter.Criticalities) > 0 {
		values := make([]string, len(filter.Criticalities))
		for i, c := range filter.Criticalities {
			values[i] = string(c)
		}
		where = append(where, fmt.Sprintf("criticality = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(values))
	}
	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY report_date DESC, created_at DESC", behaviorColumns, base, whereClause)
	if filter.PageSize >= 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		size := filter.PageSize
		if size == 0 || size > 200 {
			size = 50
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}

	var reports []models.BehaviorReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list behavior reports: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count behavior reports: %w", err)
	}
	return reports, total, nil
}

// Create inserts a new behaviour report.
func (r *BehaviorRepository) Create(ctx context.Context, report *models.BehaviorReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO behavior_reports (id, student_name, subject, criticality, report_date, teacher, notes, created_by, created_at)
VALUES (:id, :student_name, :subject, :criticality, :report_date, :teacher, :notes, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create behavior report: %w", err)
	}
	return nil
}

// Delete removes a behaviour report.
func (r *BehaviorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM behavior_reports WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete behavior report: %w", err)
	}
	return nil
}

// Statistics counts reports per student and per subject.
func (r *BehaviorRepository) Statistics(ctx context.Context) (*models.BehaviorStatistics, error) {
	stats := &models.BehaviorStatistics{}
	if err := r.db.SelectContext(ctx, &stats.ByStudent, `SELECT student_name AS key, COUNT(*) AS total FROM behavior_reports GROUP BY student_name ORDER BY total DESC, key ASC`); err != nil {
		return nil, fmt.Errorf("count behavior reports by student: %w", err)
	}
	if err := r.db.SelectContext(ctx, &stats.BySubject, `SELECT subject AS key, COUNT(*) AS total FROM behavior_reports GROUP BY subject ORDER BY total DESC, key ASC`); err != nil {
		return nil, fmt.Errorf("count behavior reports by subject: %w", err)
	}
	return stats, nil
}
