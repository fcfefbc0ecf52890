package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

type selectionResolver interface {
	Resolve(ctx context.Context, criterion models.SelectionCriterion) (*models.Selection, error)
}

type assetCollector interface {
	Collect(ctx context.Context, targets []models.SubmissionTarget, layout models.Layout) ([]models.ArchiveEntry, error)
}

type archiveBuilder interface {
	Build(ctx context.Context, entries []models.ArchiveEntry, filename string) (*models.ExportResult, error)
}

// ExportServiceConfig bounds export runs.
type ExportServiceConfig struct {
	Timeout time.Duration
}

// ExportService runs the resolve, collect and package pipeline for both export modes.
type ExportService struct {
	resolver  selectionResolver
	collector assetCollector
	builder   archiveBuilder
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportServiceConfig
}

// NewExportService wires the pipeline stages.
func NewExportService(resolver selectionResolver, collector assetCollector, builder archiveBuilder, metrics *MetricsService, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		resolver:  resolver,
		collector: collector,
		builder:   builder,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// ExportStudent packages one student's images across courseIDs, or across
// every active enrolment when courseIDs is empty.
func (s *ExportService) ExportStudent(ctx context.Context, studentID int64, courseIDs []int64) (*models.ExportResult, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid user id")
	}
	return s.Export(ctx, models.SelectionCriterion{
		Mode:      models.ExportModeStudent,
		StudentID: studentID,
		CourseIDs: courseIDs,
	})
}

// ExportCourse packages every student's images for one assignment course module.
func (s *ExportService) ExportCourse(ctx context.Context, courseModuleID int64) (*models.ExportResult, error) {
	if courseModuleID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid course module id")
	}
	return s.Export(ctx, models.SelectionCriterion{
		Mode:           models.ExportModeCourse,
		CourseModuleID: courseModuleID,
	})
}

// Export runs the pipeline for criterion. The caller must Close the result.
func (s *ExportService) Export(ctx context.Context, criterion models.SelectionCriterion) (*models.ExportResult, error) {
	start := time.Now()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result, err := s.run(ctx, criterion)
	err = classifyExportFailure(err)
	duration := time.Since(start)
	fields := []zap.Field{
		zap.String("mode", string(criterion.Mode)),
		zap.Int64("student_id", criterion.StudentID),
		zap.Int64("course_module_id", criterion.CourseModuleID),
		zap.Duration("duration", duration),
	}
	if err != nil {
		outcome := exportOutcome(err)
		s.metrics.ObserveExport(criterion.Mode, outcome, 0, 0, duration)
		s.logger.Info("export finished without archive", append(fields, zap.String("outcome", outcome), zap.Error(err))...)
		return nil, err
	}
	s.metrics.ObserveExport(criterion.Mode, ExportOutcomeSuccess, result.Size, result.Entries, duration)
	s.logger.Info("export archive ready", append(fields,
		zap.String("filename", result.Filename),
		zap.Int64("bytes", result.Size),
		zap.Int("entries", result.Entries))...)
	return result, nil
}

func (s *ExportService) run(ctx context.Context, criterion models.SelectionCriterion) (*models.ExportResult, error) {
	selection, err := s.resolver.Resolve(ctx, criterion)
	if err != nil {
		return nil, err
	}
	if len(selection.Targets) == 0 {
		return nil, appErrors.ErrNothingToExport
	}
	entries, err := s.collector.Collect(ctx, selection.Targets, models.LayoutFor(selection.Mode))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, appErrors.ErrNothingToExport
	}
	return s.builder.Build(ctx, entries, SuggestedFilename(selection))
}

// classifyExportFailure narrows err to the notices a user can be shown.
// Record-store and listing failures surface as ZipUnavailable.
func classifyExportFailure(err error) error {
	switch {
	case err == nil,
		errors.Is(err, appErrors.ErrNothingToExport),
		errors.Is(err, appErrors.ErrUnknownSubject),
		errors.Is(err, appErrors.ErrZipUnavailable),
		errors.Is(err, appErrors.ErrExportCancelled):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cancelled(err)
	default:
		return appErrors.Wrap(err, appErrors.ErrZipUnavailable.Code, appErrors.ErrZipUnavailable.Status, appErrors.ErrZipUnavailable.Message)
	}
}

func exportOutcome(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrNothingToExport):
		return ExportOutcomeEmpty
	case errors.Is(err, appErrors.ErrUnknownSubject):
		return ExportOutcomeUnknown
	case errors.Is(err, appErrors.ErrExportCancelled):
		return ExportOutcomeCancelled
	default:
		return ExportOutcomeFailure
	}
}
