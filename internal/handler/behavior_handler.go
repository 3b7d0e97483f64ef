package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

type behaviorService interface {
	List(ctx context.Context, req dto.BehaviorReportListRequest) ([]models.BehaviorReport, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateBehaviorReportRequest, createdBy string) (*models.BehaviorReport, error)
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context) (*models.BehaviorStatistics, error)
	ExportCSV(ctx context.Context, req dto.BehaviorReportListRequest) ([]byte, error)
}

// BehaviorHandler exposes student behaviour reports.
type BehaviorHandler struct {
	service behaviorService
}

// NewBehaviorHandler constructs handler.
func NewBehaviorHandler(svc behaviorService) *BehaviorHandler {
	return &BehaviorHandler{service: svc}
}

// List godoc
// @Summary List behaviour reports
// @Tags Behavior
// @Produce json
// @Param student query string false "Student"
// @Param subject query string false "Subject"
// @Param criticality query []string false "Criticality levels"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /behavior-reports [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	var req dto.BehaviorReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid behavior filter"))
		return
	}
	reports, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Create godoc
// @Summary Record a behaviour report
// @Tags Behavior
// @Accept json
// @Produce json
// @Param payload body dto.CreateBehaviorReportRequest true "Report"
// @Success 201 {object} response.Envelope
// @Router /behavior-reports [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	var req dto.CreateBehaviorReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid behavior payload"))
		return
	}
	actor := actorID(c)
	report, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Delete godoc
// @Summary Delete a behaviour report
// @Tags Behavior
// @Param id path string true "Report ID"
// @Success 204
// @Router /behavior-reports/{id} [delete]
func (h *BehaviorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Statistics godoc
// @Summary Report counts per student and subject
// @Tags Behavior
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /behavior-reports/statistics [get]
func (h *BehaviorHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export behaviour reports as CSV
// @Tags Behavior
// @Produce text/csv
// @Success 200 {file} binary
// @Router /behavior-reports/export [get]
func (h *BehaviorHandler) Export(c *gin.Context) {
	var req dto.BehaviorReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid behavior filter"))
		return
	}
	body, err := h.service.ExportCSV(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, &dto.ScheduleFile{Filename: "segnalazioni.csv", ContentType: "text/csv", Body: body})
}
