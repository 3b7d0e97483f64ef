package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

type mockBehaviorRepo struct {
	reports    []models.BehaviorReport
	lastFilter models.BehaviorReportFilter
	stats      *models.BehaviorStatistics
	err        error
	deleted    []string
}

func (m *mockBehaviorRepo) List(ctx context.Context, filter models.BehaviorReportFilter) ([]models.BehaviorReport, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.reports, len(m.reports), nil
}

func (m *mockBehaviorRepo) Create(ctx context.Context, report *models.BehaviorReport) error {
	if m.err != nil {
		return m.err
	}
	report.ID = "r1"
	m.reports = append(m.reports, *report)
	return nil
}

func (m *mockBehaviorRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockBehaviorRepo) Statistics(ctx context.Context) (*models.BehaviorStatistics, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return &models.BehaviorStatistics{}, nil
	}
	return m.stats, nil
}

func TestBehaviorServiceCreate(t *testing.T) {
	repo := &mockBehaviorRepo{}
	svc := NewBehaviorService(repo, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC) }

	report, err := svc.Create(context.Background(), dto.CreateBehaviorReportRequest{
		StudentName: " Luca ",
		Subject:     "Matematica",
		Criticality: string(models.CriticalityHomework),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "r1", report.ID)
	assert.Equal(t, "Luca", report.StudentName)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), report.ReportDate)
	assert.Equal(t, "admin-1", report.CreatedBy)

	report, err = svc.Create(context.Background(), dto.CreateBehaviorReportRequest{
		StudentName: "Giulia",
		Subject:     "Storia",
		Criticality: string(models.CriticalityOther),
		ReportDate:  "2025-02-14",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-14", report.ReportDate.Format(models.DateLayout))
}

func TestBehaviorServiceCreateValidation(t *testing.T) {
	svc := NewBehaviorService(&mockBehaviorRepo{}, nil, nil)

	cases := []dto.CreateBehaviorReportRequest{
		{Subject: "Storia", Criticality: string(models.CriticalityOther)},
		{StudentName: "Luca", Criticality: string(models.CriticalityOther)},
		{StudentName: "Luca", Subject: "Storia", Criticality: "Ritardo"},
		{StudentName: "Luca", Subject: "Storia", Criticality: string(models.CriticalityOther), ReportDate: "14/02/2025"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req, "")
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "%+v", req)
	}
}

func TestBehaviorServiceListPassesFilter(t *testing.T) {
	repo := &mockBehaviorRepo{}
	svc := NewBehaviorService(repo, nil, nil)

	reports, page, err := svc.List(context.Background(), dto.BehaviorReportListRequest{
		StudentName:   "Luca",
		Criticalities: []string{string(models.CriticalityDisturbance)},
		Page:          2,
	})
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 50, page.PageSize)
	assert.Equal(t, "Luca", repo.lastFilter.StudentName)
	assert.Equal(t, []models.Criticality{models.CriticalityDisturbance}, repo.lastFilter.Criticalities)

	_, _, err = svc.List(context.Background(), dto.BehaviorReportListRequest{Criticalities: []string{"Ritardo"}})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBehaviorServiceExportCSV(t *testing.T) {
	repo := &mockBehaviorRepo{reports: []models.BehaviorReport{{
		StudentName: "Luca",
		Subject:     "Matematica",
		Criticality: models.CriticalityMaterials,
		ReportDate:  time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Teacher:     "Rossi",
		Notes:       "senza libro",
	}}}
	svc := NewBehaviorService(repo, nil, nil)

	body, err := svc.ExportCSV(context.Background(), dto.BehaviorReportListRequest{Subject: "Matematica", Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, -1, repo.lastFilter.PageSize)

	records, err := export.ReadCSV(body)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Nome", "Materia", "Criticità", "Data", "Docente", "Note"},
		{"Luca", "Matematica", "Non ha il materiale didattico", "2025-03-03", "Rossi", "senza libro"},
	}, records)
}

func TestBehaviorServiceStatistics(t *testing.T) {
	svc := NewBehaviorService(&mockBehaviorRepo{}, nil, nil)
	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats.ByStudent)
	assert.NotNil(t, stats.BySubject)

	svc = NewBehaviorService(&mockBehaviorRepo{err: errors.New("down")}, nil, nil)
	_, err = svc.Statistics(context.Background())
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
}

func TestBehaviorServiceDelete(t *testing.T) {
	repo := &mockBehaviorRepo{}
	svc := NewBehaviorService(repo, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "r9"))
	assert.Equal(t, []string{"r9"}, repo.deleted)
}
