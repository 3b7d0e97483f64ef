package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

const (
	statisticsCacheKey     = "history:statistics"
	statisticsCachePattern = "history:statistics*"
)

type historyRepository interface {
	ListSubstitutions(ctx context.Context, filter models.HistoryFilter) ([]models.CommittedSubstitution, int, error)
	ListAbsences(ctx context.Context, filter models.HistoryFilter) ([]models.AbsenceRecord, int, error)
	SubstitutionTotals(ctx context.Context) ([]models.TeacherTotal, error)
	AbsenceTotals(ctx context.Context) ([]models.TeacherTotal, error)
	DeleteByDate(ctx context.Context, date string) (int64, error)
	Reset(ctx context.Context, table models.HistoryTable) error
}

// HistoryService exposes the committed substitution and absence logs.
type HistoryService struct {
	repo      historyRepository
	cache     *CacheService
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHistoryService constructs the history service.
func NewHistoryService(repo historyRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *HistoryService {
	if validate == nil {
		validate = validator.New()
	}
	translatorFor(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// ListSubstitutions returns committed substitution rows.
func (s *HistoryService) ListSubstitutions(ctx context.Context, filter models.HistoryFilter) ([]models.CommittedSubstitution, *models.Pagination, error) {
	rows, total, err := s.repo.ListSubstitutions(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "unable to read history")
	}
	return rows, historyPagination(filter, total), nil
}

// ListAbsences returns absence rows.
func (s *HistoryService) ListAbsences(ctx context.Context, filter models.HistoryFilter) ([]models.AbsenceRecord, *models.Pagination, error) {
	rows, total, err := s.repo.ListAbsences(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "unable to read absences")
	}
	return rows, historyPagination(filter, total), nil
}

// Statistics returns per-teacher totals, served from cache when possible.
func (s *HistoryService) Statistics(ctx context.Context) (*models.HistoryStatistics, bool, error) {
	var cached models.HistoryStatistics
	if hit, err := s.cache.Get(ctx, statisticsCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	substitutions, err := s.repo.SubstitutionTotals(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "unable to read history")
	}
	s.metrics.ObserveDBQuery("history_substitution_totals", time.Since(start))

	start = time.Now()
	absences, err := s.repo.AbsenceTotals(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "unable to read absences")
	}
	s.metrics.ObserveDBQuery("history_absence_totals", time.Since(start))
	stats := &models.HistoryStatistics{SubstitutionHours: substitutions, AbsenceHours: absences}
	if stats.SubstitutionHours == nil {
		stats.SubstitutionHours = []models.TeacherTotal{}
	}
	if stats.AbsenceHours == nil {
		stats.AbsenceHours = []models.TeacherTotal{}
	}
	_ = s.cache.Set(ctx, statisticsCacheKey, stats, s.cacheTTL)
	return stats, false, nil
}

// DeleteDate removes every history row stored for the exact date string.
func (s *HistoryService) DeleteDate(ctx context.Context, date string) (*dto.DeleteHistoryDateResponse, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	removed, err := s.repo.DeleteByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Storage(err, "unable to delete history")
	}
	s.invalidate(ctx)
	s.logger.Info("history rows removed", zap.String("date", date), zap.Int64("removed", removed))
	return &dto.DeleteHistoryDateResponse{Date: date, Removed: removed}, nil
}

// Reset empties one history table after explicit confirmation.
func (s *HistoryService) Reset(ctx context.Context, req dto.ResetHistoryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalidInput(s.validator, err, "invalid reset payload")
	}
	if !req.Confirm {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "reset requires confirm=true")
	}
	if err := s.repo.Reset(ctx, models.HistoryTable(req.Table)); err != nil {
		return appErrors.Storage(err, "unable to reset history")
	}
	s.invalidate(ctx)
	s.logger.Warn("history table reset", zap.String("table", req.Table))
	return nil
}

func (s *HistoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statisticsCachePattern); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
}

func historyPagination(filter models.HistoryFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
