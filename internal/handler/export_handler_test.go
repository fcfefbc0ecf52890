package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/service"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

type exportServiceMock struct {
	result *models.ExportResult
	err    error

	studentID int64
	courseIDs []int64
	cmid      int64
}

func (m *exportServiceMock) ExportStudent(ctx context.Context, studentID int64, courseIDs []int64) (*models.ExportResult, error) {
	m.studentID = studentID
	m.courseIDs = courseIDs
	return m.result, m.err
}

func (m *exportServiceMock) ExportCourse(ctx context.Context, courseModuleID int64) (*models.ExportResult, error) {
	m.cmid = courseModuleID
	return m.result, m.err
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

var testReturns = ExportReturnURLs{
	Student: "/grade/report/overview/studentgradeprogressadmin.php",
	Course:  "/mod/assign/view.php",
}

func TestExportHandlerStudentStreamsArchive(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader("PK\x03\x04data")}
	mockSvc := &exportServiceMock{result: &models.ExportResult{
		Filename: "selected_units_images_Ana_Lee.zip",
		Size:     8,
		Entries:  1,
		Content:  body,
	}}
	handler := NewExportHandler(mockSvc, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/students/8/images?courseId=5&assignid[]=6", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "8"}}

	handler.ExportStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="selected_units_images_Ana_Lee.zip"`, w.Header().Get("Content-Disposition"))
	require.Equal(t, "8", w.Header().Get("Content-Length"))
	require.Equal(t, "PK\x03\x04data", w.Body.String())
	require.Equal(t, int64(8), mockSvc.studentID)
	require.Equal(t, []int64{5, 6}, mockSvc.courseIDs)
	require.True(t, body.closed)
}

func TestExportHandlerStudentRedirectsOnEmpty(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{err: appErrors.ErrNothingToExport}, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/students/8/images", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "8"}}

	handler.ExportStudent(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, testReturns.Student, loc.Path)
	require.Equal(t, "8", loc.Query().Get("userid"))
	require.Equal(t, "NOTHING_TO_EXPORT", loc.Query().Get("notice"))
	require.Equal(t, appErrors.LevelWarning, loc.Query().Get("level"))
}

func TestExportHandlerStudentRejectsBadID(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/students/abc/images", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "abc"}}

	handler.ExportStudent(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "UNKNOWN_SUBJECT", loc.Query().Get("notice"))
	require.Equal(t, "invalid user id", loc.Query().Get("message"))
	require.Zero(t, mockSvc.studentID)
}

func TestExportHandlerStudentZeroIDIsUnknownSubject(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/students/0/images", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "0"}}

	handler.ExportStudent(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "UNKNOWN_SUBJECT", loc.Query().Get("notice"))
	require.Equal(t, appErrors.LevelError, loc.Query().Get("level"))
	require.NotContains(t, loc.Query().Get("message"), "StudentExportRequest")
}

func TestExportHandlerCourseZeroIDIsUnknownSubject(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/course-modules/0/images", nil)
	c.Params = gin.Params{{Key: "cmid", Value: "0"}}

	handler.ExportCourse(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "UNKNOWN_SUBJECT", loc.Query().Get("notice"))
	require.Equal(t, "invalid course module id", loc.Query().Get("message"))
	require.Zero(t, mockSvc.cmid)
}

func TestExportHandlerCourseHonoursLocalReturnURL(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{err: appErrors.ErrZipUnavailable}, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/course-modules/40/images?returnUrl=%2Fcourse%2Fview.php%3Fid%3D5", nil)
	c.Params = gin.Params{{Key: "cmid", Value: "40"}}

	handler.ExportCourse(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/course/view.php", loc.Path)
	require.Equal(t, "5", loc.Query().Get("id"))
	require.Equal(t, "ZIP_UNAVAILABLE", loc.Query().Get("notice"))
	require.Equal(t, appErrors.LevelError, loc.Query().Get("level"))
}

func TestExportHandlerCourseIgnoresForeignReturnURL(t *testing.T) {
	mockSvc := &exportServiceMock{err: appErrors.ErrUnknownSubject}
	handler := NewExportHandler(mockSvc, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/course-modules/40/images?returnUrl=https%3A%2F%2Fevil.test%2F", nil)
	c.Params = gin.Params{{Key: "cmid", Value: "40"}}

	handler.ExportCourse(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Empty(t, loc.Host)
	require.Equal(t, testReturns.Course, loc.Path)
	require.Equal(t, "40", loc.Query().Get("id"))
	require.Equal(t, int64(40), mockSvc.cmid)
}

func TestExportHandlerCourseJSONClients(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{err: appErrors.ErrUnknownSubject}, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/course-modules/40/images", nil)
	c.Request.Header.Set("Accept", "application/json")
	c.Params = gin.Params{{Key: "cmid", Value: "40"}}

	handler.ExportCourse(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "UNKNOWN_SUBJECT")
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(ctx context.Context, criterion models.SelectionCriterion) (*models.Selection, error) {
	return nil, r.err
}

type unusedCollector struct{}

func (unusedCollector) Collect(ctx context.Context, targets []models.SubmissionTarget, layout models.Layout) ([]models.ArchiveEntry, error) {
	return nil, errors.New("collect should not run")
}

type unusedBuilder struct{}

func (unusedBuilder) Build(ctx context.Context, entries []models.ArchiveEntry, filename string) (*models.ExportResult, error) {
	return nil, errors.New("build should not run")
}

func TestExportHandlerStoreFailureIsZipUnavailable(t *testing.T) {
	storeErr := appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	svc := service.NewExportService(failingResolver{err: storeErr}, unusedCollector{}, unusedBuilder{}, nil, nil, service.ExportServiceConfig{})
	handler := NewExportHandler(svc, testReturns)

	c, w := newGinContext(http.MethodGet, "/exports/students/7/images", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "7"}}

	handler.ExportStudent(c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "ZIP_UNAVAILABLE", loc.Query().Get("notice"))
	require.Equal(t, appErrors.LevelError, loc.Query().Get("level"))
	require.Equal(t, "7", loc.Query().Get("userid"))
}
