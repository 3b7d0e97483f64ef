package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/service"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type backupService interface {
	Create(ctx context.Context) (*service.BackupResult, error)
	Resolve(token string) (*service.BackupDownload, error)
}

// BackupHandler exposes spreadsheet backups.
type BackupHandler struct {
	service backupService
}

// NewBackupHandler constructs handler.
func NewBackupHandler(svc backupService) *BackupHandler {
	return &BackupHandler{service: svc}
}

// Create godoc
// @Summary Create a backup workbook
// @Tags Backups
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	result, err := h.service.Create(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a backup workbook
// @Tags Backups
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /backups/{token} [get]
func (h *BackupHandler) Download(c *gin.Context) {
	result, err := h.service.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	response.AttachmentReader(c, result.Filename, contentTypeXLSX, result.SizeBytes, result.File)
}
