package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

func TestBehaviorRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_name", "subject", "criticality", "report_date", "teacher", "notes", "created_by", "created_at"}).
		AddRow("r1", "Luca", "Matematica", "Disturbo in classe", time.Now(), "Rossi", "", "u1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM behavior_reports WHERE 1=1 AND student_name = $1 AND subject = $2 AND criticality = ANY($3) ORDER BY report_date DESC, created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("Luca", "Matematica", sqlmock.AnyArg()).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM behavior_reports WHERE 1=1 AND student_name = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	reports, total, err := repo.List(context.Background(), models.BehaviorReportFilter{
		StudentName:   "Luca",
		Subject:       "Matematica",
		Criticalities: []models.Criticality{models.CriticalityDisturbance},
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.CriticalityDisturbance, reports[0].Criticality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryListUnpaged(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectQuery(`ORDER BY report_date DESC, created_at DESC$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM behavior_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.BehaviorReportFilter{PageSize: -1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectExec("INSERT INTO behavior_reports").
		WithArgs(sqlmock.AnyArg(), "Luca", "Storia", models.CriticalityHomework, sqlmock.AnyArg(), "Verdi", "", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.BehaviorReport{StudentName: "Luca", Subject: "Storia", Criticality: models.CriticalityHomework, ReportDate: time.Now(), Teacher: "Verdi", CreatedBy: "u1"}
	require.NoError(t, repo.Create(context.Background(), report))
	assert.NotEmpty(t, report.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryStatistics(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectQuery("GROUP BY student_name").
		WillReturnRows(sqlmock.NewRows([]string{"key", "total"}).AddRow("Luca", 3).AddRow("Marta", 1))
	mock.ExpectQuery("GROUP BY subject").
		WillReturnRows(sqlmock.NewRows([]string{"key", "total"}).AddRow("Storia", 4))

	stats, err := repo.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.BehaviorCount{{Key: "Luca", Total: 3}, {Key: "Marta", Total: 1}}, stats.ByStudent)
	assert.Equal(t, []models.BehaviorCount{{Key: "Storia", Total: 4}}, stats.BySubject)
	assert.NoError(t, mock.ExpectationsWereMet())
}
