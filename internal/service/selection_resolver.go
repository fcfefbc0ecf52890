package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

type resolverUserReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type resolverCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Course, error)
	ListEnrolledByUser(ctx context.Context, userID int64) ([]models.Course, error)
}

type resolverAssignmentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.Assignment, error)
	FindCourseModule(ctx context.Context, id int64) (*models.CourseModule, error)
	FindCourseModuleByInstance(ctx context.Context, courseID, assignmentID int64) (*models.CourseModule, error)
	FindModuleContextID(ctx context.Context, courseModuleID int64) (int64, error)
}

type resolverSubmissionReader interface {
	FindByAssignmentAndUser(ctx context.Context, assignmentID, userID int64) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID int64) ([]models.Submission, error)
}

// SelectionResolver turns an export criterion into ordered submission targets.
type SelectionResolver struct {
	users       resolverUserReader
	courses     resolverCourseReader
	assignments resolverAssignmentReader
	submissions resolverSubmissionReader
	logger      *zap.Logger
}

// NewSelectionResolver constructs the resolver.
func NewSelectionResolver(users resolverUserReader, courses resolverCourseReader, assignments resolverAssignmentReader, submissions resolverSubmissionReader, logger *zap.Logger) *SelectionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionResolver{
		users:       users,
		courses:     courses,
		assignments: assignments,
		submissions: submissions,
		logger:      logger,
	}
}

// Resolve enumerates the submissions selected by criterion. Targets are ordered
// by course enumeration and, within a course, by activity creation order.
func (r *SelectionResolver) Resolve(ctx context.Context, criterion models.SelectionCriterion) (*models.Selection, error) {
	switch criterion.Mode {
	case models.ExportModeStudent:
		return r.resolveStudent(ctx, criterion.StudentID, criterion.CourseIDs)
	case models.ExportModeCourse:
		return r.resolveCourseModule(ctx, criterion.CourseModuleID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export mode")
	}
}

func (r *SelectionResolver) resolveStudent(ctx context.Context, studentID int64, courseIDs []int64) (*models.Selection, error) {
	student, err := r.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid user id")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Deleted {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubject, "invalid user id")
	}

	selection := &models.Selection{
		Mode:      models.ExportModeStudent,
		Subject:   StudentFolder(*student),
		ScopeName: models.ScopeAllUnits,
	}

	var courses []models.Course
	if len(courseIDs) > 0 {
		selection.ScopeName = models.ScopeSelectedUnits
		courses, err = r.courses.ListByIDs(ctx, courseIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
		}
		if len(courses) < len(courseIDs) {
			r.logger.Debug("skipping unknown course ids", zap.Int64("student_id", studentID), zap.Int("requested", len(courseIDs)), zap.Int("found", len(courses)))
		}
	} else {
		courses, err = r.courses.ListEnrolledByUser(ctx, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolments")
		}
	}

	for _, course := range courses {
		assignments, err := r.assignments.ListByCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		for _, assignment := range assignments {
			target, ok, err := r.studentTarget(ctx, course, assignment, *student)
			if err != nil {
				return nil, err
			}
			if ok {
				selection.Targets = append(selection.Targets, target)
			}
		}
	}
	return selection, nil
}

func (r *SelectionResolver) studentTarget(ctx context.Context, course models.Course, assignment models.Assignment, student models.User) (models.SubmissionTarget, bool, error) {
	cm, err := r.assignments.FindCourseModuleByInstance(ctx, course.ID, assignment.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("skipping assignment without course module", zap.Int64("assignment_id", assignment.ID))
			return models.SubmissionTarget{}, false, nil
		}
		return models.SubmissionTarget{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course module")
	}
	contextID, err := r.assignments.FindModuleContextID(ctx, cm.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("skipping course module without context", zap.Int64("course_module_id", cm.ID))
			return models.SubmissionTarget{}, false, nil
		}
		return models.SubmissionTarget{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module context")
	}
	submission, err := r.submissions.FindByAssignmentAndUser(ctx, assignment.ID, student.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("skipping assignment without submission", zap.Int64("assignment_id", assignment.ID), zap.Int64("student_id", student.ID))
			return models.SubmissionTarget{}, false, nil
		}
		return models.SubmissionTarget{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return models.SubmissionTarget{
		Course:     course,
		Owner:      student,
		Assignment: assignment,
		Submission: *submission,
		Area:       models.SubmissionArea(contextID, submission.ID),
	}, true, nil
}

func (r *SelectionResolver) resolveCourseModule(ctx context.Context, courseModuleID int64) (*models.Selection, error) {
	unknown := appErrors.Clone(appErrors.ErrUnknownSubject, "invalid course module id")

	cm, err := r.assignments.FindCourseModule(ctx, courseModuleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unknown
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course module")
	}
	if cm.ModuleName != models.ModuleAssign {
		return nil, unknown
	}
	course, err := r.courses.FindByID(ctx, cm.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unknown
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	assignment, err := r.assignments.FindByID(ctx, cm.InstanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unknown
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	contextID, err := r.assignments.FindModuleContextID(ctx, cm.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unknown
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module context")
	}

	submissions, err := r.submissions.ListByAssignment(ctx, assignment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}

	selection := &models.Selection{
		Mode:    models.ExportModeCourse,
		Subject: CourseFolder(*course),
	}
	for _, submission := range submissions {
		owner, err := r.users.FindByID(ctx, submission.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				r.logger.Debug("skipping submission without owner", zap.Int64("submission_id", submission.ID), zap.Int64("user_id", submission.UserID))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission owner")
		}
		selection.Targets = append(selection.Targets, models.SubmissionTarget{
			Course:     *course,
			Owner:      *owner,
			Assignment: *assignment,
			Submission: submission,
			Area:       models.SubmissionArea(contextID, submission.ID),
		})
	}
	return selection, nil
}
