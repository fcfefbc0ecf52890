package handler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/dto"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/response"
)

const zipContentType = "application/zip"

type exportService interface {
	ExportStudent(ctx context.Context, studentID int64, courseIDs []int64) (*models.ExportResult, error)
	ExportCourse(ctx context.Context, courseModuleID int64) (*models.ExportResult, error)
}

// ExportReturnURLs are the pages failed exports redirect back to.
type ExportReturnURLs struct {
	Student string
	Course  string
}

// ExportHandler serves submission image archives.
type ExportHandler struct {
	service   exportService
	validator *validator.Validate
	returns   ExportReturnURLs
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService, returns ExportReturnURLs) *ExportHandler {
	return &ExportHandler{service: service, validator: validator.New(), returns: returns}
}

// ExportStudent godoc
// @Summary Download a student's submission images
// @Tags Exports
// @Produce application/zip
// @Param studentId path int true "Student user ID"
// @Param courseId query []int false "Course IDs to include" collectionFormat(multi)
// @Param returnUrl query string false "Local page to redirect to on failure"
// @Success 200 {file} binary
// @Failure 303 {string} string "Redirect carrying notice, level and message"
// @Router /exports/students/{studentId}/images [get]
func (h *ExportHandler) ExportStudent(c *gin.Context) {
	fallback := fmt.Sprintf("%s?userid=%s", h.returns.Student, url.QueryEscape(c.Param("studentId")))
	returnTo := response.LocalPath(c.Query("returnUrl"), fallback)

	var req dto.StudentExportRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Notify(c, returnTo, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid user id"))
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Notify(c, returnTo, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid course id"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Notify(c, returnTo, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid user id"))
		return
	}

	result, err := h.service.ExportStudent(c.Request.Context(), req.StudentID, req.Courses())
	if err != nil {
		response.Notify(c, returnTo, err)
		return
	}
	defer result.Close() //nolint:errcheck
	response.Attachment(c, result.Filename, zipContentType, result.Size, result.Content)
}

// ExportCourse godoc
// @Summary Download every submission image of an assignment
// @Tags Exports
// @Produce application/zip
// @Param cmid path int true "Course module ID"
// @Param returnUrl query string false "Local page to redirect to on failure"
// @Success 200 {file} binary
// @Failure 303 {string} string "Redirect carrying notice, level and message"
// @Router /exports/course-modules/{cmid}/images [get]
func (h *ExportHandler) ExportCourse(c *gin.Context) {
	fallback := fmt.Sprintf("%s?id=%s", h.returns.Course, url.QueryEscape(c.Param("cmid")))
	returnTo := response.LocalPath(c.Query("returnUrl"), fallback)

	var req dto.CourseExportRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Notify(c, returnTo, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid course module id"))
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Notify(c, returnTo, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid course module id"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Notify(c, returnTo, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid course module id"))
		return
	}

	result, err := h.service.ExportCourse(c.Request.Context(), req.CourseModuleID)
	if err != nil {
		response.Notify(c, returnTo, err)
		return
	}
	defer result.Close() //nolint:errcheck
	response.Attachment(c, result.Filename, zipContentType, result.Size, result.Content)
}
