package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/service"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/response"
)

type fileService interface {
	Open(ctx context.Context, fileID int64, token string) (*service.FileContent, error)
}

// FileHandler streams stored files behind signed links.
type FileHandler struct {
	service fileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(service fileService) *FileHandler {
	return &FileHandler{service: service}
}

// Content godoc
// @Summary Stream a stored file via signed token
// @Tags Files
// @Produce octet-stream
// @Param id path int true "File ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /files/{id}/content [get]
func (h *FileHandler) Content(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	content, err := h.service.Open(c.Request.Context(), id, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer content.Reader.Close() //nolint:errcheck
	c.DataFromReader(http.StatusOK, content.Size, content.MimeType, content.Reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=\"%s\"", content.FileName),
		"Cache-Control":       "private, max-age=300",
	})
}
