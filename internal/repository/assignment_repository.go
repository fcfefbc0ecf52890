package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
)

// AssignmentRepository reads assignment activities, their course modules and contexts.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByID returns an assignment or sql.ErrNoRows.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	const query = `SELECT id, course, name, timecreated FROM assign WHERE id = $1 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// ListByCourse returns the assignments of a course in creation order.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	const query = `SELECT id, course, name, timecreated FROM assign WHERE course = $1 ORDER BY timecreated ASC, id ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments by course: %w", err)
	}
	return assignments, nil
}

// FindCourseModule returns a course module by id or sql.ErrNoRows.
func (r *AssignmentRepository) FindCourseModule(ctx context.Context, id int64) (*models.CourseModule, error) {
	const query = `SELECT id, course, module_name, instance FROM course_modules WHERE id = $1 LIMIT 1`
	var cm models.CourseModule
	if err := r.db.GetContext(ctx, &cm, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course module: %w", err)
	}
	return &cm, nil
}

// FindCourseModuleByInstance maps an assignment to its course module or returns sql.ErrNoRows.
func (r *AssignmentRepository) FindCourseModuleByInstance(ctx context.Context, courseID, assignmentID int64) (*models.CourseModule, error) {
	const query = `SELECT id, course, module_name, instance FROM course_modules WHERE course = $1 AND module_name = $2 AND instance = $3 LIMIT 1`
	var cm models.CourseModule
	if err := r.db.GetContext(ctx, &cm, query, courseID, models.ModuleAssign, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course module by instance: %w", err)
	}
	return &cm, nil
}

// FindModuleContextID returns the context id of a course module or sql.ErrNoRows.
func (r *AssignmentRepository) FindModuleContextID(ctx context.Context, courseModuleID int64) (int64, error) {
	const query = `SELECT id FROM context WHERE contextlevel = $1 AND instanceid = $2 LIMIT 1`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, models.ContextLevelModule, courseModuleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("find module context: %w", err)
	}
	return id, nil
}
