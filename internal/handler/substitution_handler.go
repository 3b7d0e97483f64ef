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

type substitutionService interface {
	Propose(ctx context.Context, req dto.ProposeSubstitutionsRequest, createdBy string) (*dto.DraftResponse, error)
	Get(ctx context.Context, id string) (*dto.DraftResponse, error)
	UpdateAssignments(ctx context.Context, id string, req dto.UpdateAssignmentsRequest) (*dto.DraftResponse, error)
	Validate(ctx context.Context, id string) (*dto.DraftResponse, error)
	Commit(ctx context.Context, id string, req dto.CommitSubstitutionsRequest) (*models.CommitResult, error)
	Announcement(ctx context.Context, id string) (string, error)
	PublishAnnouncement(ctx context.Context, id string) error
	ExportPDF(ctx context.Context, id string) (*dto.ScheduleFile, error)
}

// SubstitutionHandler exposes the absence review workflow.
type SubstitutionHandler struct {
	service substitutionService
}

// NewSubstitutionHandler constructs handler.
func NewSubstitutionHandler(svc substitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{service: svc}
}

// Propose godoc
// @Summary Propose substitutes for absent teachers
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.ProposeSubstitutionsRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /substitutions/proposals [post]
func (h *SubstitutionHandler) Propose(c *gin.Context) {
	var req dto.ProposeSubstitutionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence request"))
		return
	}
	actor := actorID(c)
	draft, err := h.service.Propose(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// Get godoc
// @Summary Get a substitution draft
// @Tags Substitutions
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /substitutions/drafts/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	draft, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// UpdateAssignments godoc
// @Summary Override chosen substitutes
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.UpdateAssignmentsRequest true "Overrides"
// @Success 200 {object} response.Envelope
// @Router /substitutions/drafts/{id}/assignments [put]
func (h *SubstitutionHandler) UpdateAssignments(c *gin.Context) {
	var req dto.UpdateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignments payload"))
		return
	}
	draft, err := h.service.UpdateAssignments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Validate godoc
// @Summary Validate draft assignments
// @Tags Substitutions
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /substitutions/drafts/{id}/validate [post]
func (h *SubstitutionHandler) Validate(c *gin.Context) {
	draft, err := h.service.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Commit godoc
// @Summary Append validated assignments to history
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.CommitSubstitutionsRequest false "Write mode"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /substitutions/drafts/{id}/commit [post]
func (h *SubstitutionHandler) Commit(c *gin.Context) {
	var req dto.CommitSubstitutionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commit payload"))
			return
		}
	}
	if mode := c.Query("mode"); mode != "" && req.Mode == "" {
		req.Mode = mode
	}
	result, err := h.service.Commit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Announcement godoc
// @Summary Staff announcement text
// @Tags Substitutions
// @Produce plain
// @Param id path string true "Draft ID"
// @Success 200 {string} string
// @Router /substitutions/drafts/{id}/announcement [get]
func (h *SubstitutionHandler) Announcement(c *gin.Context) {
	text, err := h.service.Announcement(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.String(http.StatusOK, text)
}

// PublishAnnouncement godoc
// @Summary Resend the announcement of a committed draft to the staff chat
// @Tags Substitutions
// @Param id path string true "Draft ID"
// @Success 204 {string} string ""
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /substitutions/drafts/{id}/announcement/publish [post]
func (h *SubstitutionHandler) PublishAnnouncement(c *gin.Context) {
	if err := h.service.PublishAnnouncement(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportPDF godoc
// @Summary Printable substitution sheet
// @Tags Substitutions
// @Produce application/pdf
// @Param id path string true "Draft ID"
// @Success 200 {file} binary
// @Router /substitutions/drafts/{id}/export.pdf [get]
func (h *SubstitutionHandler) ExportPDF(c *gin.Context) {
	file, err := h.service.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
