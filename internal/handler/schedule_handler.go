package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

const maxUploadBytes = 8 << 20

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error)
	ReplaceAll(ctx context.Context, req dto.ReplaceScheduleRequest) ([]models.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, filename string, data []byte) (*dto.ImportScheduleResponse, error)
	Export(ctx context.Context, format string) (*dto.ScheduleFile, error)
	Pivot(ctx context.Context, mode string) (*models.PivotTable, error)
	PivotPDF(ctx context.Context, mode string) (*dto.ScheduleFile, error)
	Teachers(ctx context.Context) ([]string, error)
	Classes(ctx context.Context) ([]string, error)
}

// ScheduleHandler manages timetable endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List timetable rows
// @Tags Schedule
// @Produce json
// @Param teacher query string false "Filter by teacher"
// @Param day query string false "Filter by week day"
// @Param className query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleFilter{
		Teacher:   c.Query("teacher"),
		ClassName: c.Query("className"),
	}
	if raw := c.Query("day"); raw != "" {
		day, err := models.ParseDay(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid day"))
			return
		}
		filter.Day = day
	}
	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Create godoc
// @Summary Add a lesson
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleEntryRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.ScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Replace godoc
// @Summary Replace the whole timetable
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceScheduleRequest true "Timetable"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule [put]
func (h *ScheduleHandler) Replace(c *gin.Context) {
	var req dto.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	entries, err := h.service.ReplaceAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Delete godoc
// @Summary Remove a lesson
// @Tags Schedule
// @Param id path string true "Entry ID"
// @Success 204
// @Router /schedule/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import timetable file
// @Description Replaces the timetable with an uploaded CSV or XLSX file holding the columns Docente, Giorno, Ora, Classe, Tipo, Escludi.
// @Tags Schedule
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Timetable file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/import [post]
func (h *ScheduleHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	if header.Size > maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload"))
		return
	}
	res, err := h.service.Import(c.Request.Context(), header.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export timetable
// @Tags Schedule
// @Produce octet-stream
// @Param format query string false "csv, xlsx or pdf"
// @Success 200 {file} binary
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Pivot godoc
// @Summary Timetable grid view
// @Tags Schedule
// @Produce json
// @Param mode query string false "teachers or classes"
// @Param format query string false "pdf for a printable grid"
// @Success 200 {object} response.Envelope
// @Router /schedule/pivot [get]
func (h *ScheduleHandler) Pivot(c *gin.Context) {
	if strings.EqualFold(c.Query("format"), "pdf") {
		file, err := h.service.PivotPDF(c.Request.Context(), c.Query("mode"))
		if err != nil {
			response.Error(c, err)
			return
		}
		sendFile(c, file)
		return
	}
	table, err := h.service.Pivot(c.Request.Context(), c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, table, nil)
}

// Teachers godoc
// @Summary Distinct teacher names
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/teachers [get]
func (h *ScheduleHandler) Teachers(c *gin.Context) {
	names, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

// Classes godoc
// @Summary Distinct class names
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/classes [get]
func (h *ScheduleHandler) Classes(c *gin.Context) {
	names, err := h.service.Classes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

func sendFile(c *gin.Context, file *dto.ScheduleFile) {
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
