package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/dto"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/response"
)

type galleryService interface {
	List(ctx context.Context, courseModuleID int64, actor *models.JWTClaims) (*dto.GalleryResponse, error)
	Delete(ctx context.Context, courseModuleID int64, fileIDs []int64, actor *models.JWTClaims) (*dto.DeleteGalleryResponse, error)
}

// GalleryHandler exposes a learner's submitted images.
type GalleryHandler struct {
	service   galleryService
	validator *validator.Validate
}

// NewGalleryHandler constructs the handler.
func NewGalleryHandler(service galleryService) *GalleryHandler {
	return &GalleryHandler{service: service, validator: validator.New()}
}

// List godoc
// @Summary List the caller's submitted images
// @Tags Gallery
// @Produce json
// @Param cmid path int true "Course module ID"
// @Success 200 {object} response.Envelope
// @Router /course-modules/{cmid}/gallery [get]
func (h *GalleryHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cmid, err := int64Param(c, "cmid")
	if err != nil {
		response.Error(c, err)
		return
	}
	gallery, err := h.service.List(c.Request.Context(), cmid, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gallery, nil)
}

// Delete godoc
// @Summary Delete images from the caller's submission
// @Tags Gallery
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param cmid path int true "Course module ID"
// @Param payload body dto.DeleteGalleryRequest false "File IDs"
// @Param photos formData string false "JSON array of file IDs"
// @Success 200 {object} response.Envelope
// @Router /course-modules/{cmid}/gallery/delete [post]
func (h *GalleryHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cmid, err := int64Param(c, "cmid")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DeleteGalleryRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid delete payload"))
		return
	}
	if photos := strings.TrimSpace(req.Photos); photos != "" {
		var ids []int64
		if err := json.Unmarshal([]byte(photos), &ids); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photos must be a JSON array of file ids"))
			return
		}
		req.FileIDs = append(req.FileIDs, ids...)
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.service.Delete(c.Request.Context(), cmid, req.FileIDs, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
