package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/middleware"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

type historyService interface {
	ListSubstitutions(ctx context.Context, filter models.HistoryFilter) ([]models.CommittedSubstitution, *models.Pagination, error)
	ListAbsences(ctx context.Context, filter models.HistoryFilter) ([]models.AbsenceRecord, *models.Pagination, error)
	Statistics(ctx context.Context) (*models.HistoryStatistics, bool, error)
	DeleteDate(ctx context.Context, date string) (*dto.DeleteHistoryDateResponse, error)
	Reset(ctx context.Context, req dto.ResetHistoryRequest) error
}

// HistoryHandler exposes the committed substitution and absence history.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(svc historyService) *HistoryHandler {
	return &HistoryHandler{service: svc}
}

// ListSubstitutions godoc
// @Summary List substitution history
// @Tags History
// @Produce json
// @Param teacher query string false "Teacher"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history/substitutions [get]
func (h *HistoryHandler) ListSubstitutions(c *gin.Context) {
	rows, pagination, err := h.service.ListSubstitutions(c.Request.Context(), historyFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// ListAbsences godoc
// @Summary List absence history
// @Tags History
// @Produce json
// @Param teacher query string false "Teacher"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history/absences [get]
func (h *HistoryHandler) ListAbsences(c *gin.Context) {
	rows, pagination, err := h.service.ListAbsences(c.Request.Context(), historyFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Statistics godoc
// @Summary Hours per teacher
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /history/statistics [get]
func (h *HistoryHandler) Statistics(c *gin.Context) {
	stats, cacheHit, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// DeleteDate godoc
// @Summary Remove history rows for a date
// @Tags History
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /history/dates/{date} [delete]
func (h *HistoryHandler) DeleteDate(c *gin.Context) {
	res, err := h.service.DeleteDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Reset godoc
// @Summary Empty a history table
// @Tags History
// @Accept json
// @Param payload body dto.ResetHistoryRequest true "Table and confirmation"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /history/reset [post]
func (h *HistoryHandler) Reset(c *gin.Context) {
	var req dto.ResetHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset payload"))
		return
	}
	if err := h.service.Reset(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func historyFilter(c *gin.Context) models.HistoryFilter {
	filter := models.HistoryFilter{
		Teacher:  c.Query("teacher"),
		DateFrom: c.Query("from"),
		DateTo:   c.Query("to"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	return filter
}
