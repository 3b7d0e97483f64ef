package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
)

// behaviorColumns is the column order of the report CSV export.
var behaviorColumns = []string{"Nome", "Materia", "Criticità", "Data", "Docente", "Note"}

type behaviorRepository interface {
	List(ctx context.Context, filter models.BehaviorReportFilter) ([]models.BehaviorReport, int, error)
	Create(ctx context.Context, report *models.BehaviorReport) error
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context) (*models.BehaviorStatistics, error)
}

// BehaviorService handles student behaviour reports.
type BehaviorService struct {
	repo      behaviorRepository
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBehaviorService constructs the service.
func NewBehaviorService(repo behaviorRepository, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerBehaviorValidations(validate)
	return &BehaviorService{
		repo:      repo,
		csv:       export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns behaviour reports with pagination.
func (s *BehaviorService) List(ctx context.Context, req dto.BehaviorReportListRequest) ([]models.BehaviorReport, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, invalidInput(s.validator, err, "invalid behavior filter")
	}
	filter := behaviorFilter(req)
	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "unable to read behavior reports")
	}
	if reports == nil {
		reports = []models.BehaviorReport{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return reports, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create stores a new report. The report date defaults to today.
func (s *BehaviorService) Create(ctx context.Context, req dto.CreateBehaviorReportRequest, createdBy string) (*models.BehaviorReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid behavior report")
	}
	date := s.now().Truncate(24 * time.Hour)
	if req.ReportDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.ReportDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reportDate must be YYYY-MM-DD")
		}
		date = parsed
	}
	report := &models.BehaviorReport{
		StudentName: strings.TrimSpace(req.StudentName),
		Subject:     strings.TrimSpace(req.Subject),
		Criticality: models.Criticality(req.Criticality),
		ReportDate:  date,
		Teacher:     strings.TrimSpace(req.Teacher),
		Notes:       strings.TrimSpace(req.Notes),
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Storage(err, "unable to write behavior report")
	}
	s.logger.Info("behavior report created", zap.String("report_id", report.ID), zap.String("criticality", string(report.Criticality)))
	return report, nil
}

// Delete removes a report.
func (s *BehaviorService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Storage(err, "unable to delete behavior report")
	}
	return nil
}

// Statistics counts reports per student and per subject.
func (s *BehaviorService) Statistics(ctx context.Context) (*models.BehaviorStatistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read behavior reports")
	}
	if stats.ByStudent == nil {
		stats.ByStudent = []models.BehaviorCount{}
	}
	if stats.BySubject == nil {
		stats.BySubject = []models.BehaviorCount{}
	}
	return stats, nil
}

// ExportCSV renders every report matching the filter, ignoring pagination.
func (s *BehaviorService) ExportCSV(ctx context.Context, req dto.BehaviorReportListRequest) ([]byte, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput(s.validator, err, "invalid behavior filter")
	}
	filter := behaviorFilter(req)
	filter.Page, filter.PageSize = 0, -1
	reports, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to read behavior reports")
	}
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, map[string]string{
			"Nome":      r.StudentName,
			"Materia":   r.Subject,
			"Criticità": string(r.Criticality),
			"Data":      r.ReportDate.Format(models.DateLayout),
			"Docente":   r.Teacher,
			"Note":      r.Notes,
		})
	}
	body, err := s.csv.Render(export.Dataset{Headers: behaviorColumns, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render behavior reports")
	}
	return body, nil
}

func behaviorFilter(req dto.BehaviorReportListRequest) models.BehaviorReportFilter {
	filter := models.BehaviorReportFilter{
		StudentName: strings.TrimSpace(req.StudentName),
		Subject:     strings.TrimSpace(req.Subject),
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	for _, c := range req.Criticalities {
		filter.Criticalities = append(filter.Criticalities, models.Criticality(c))
	}
	return filter
}
