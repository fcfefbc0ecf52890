package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
)

// CourseRepository reads course records and enrolments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course or sql.ErrNoRows.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, shortname, fullname FROM course WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// ListByIDs returns the courses matching ids in the order the ids were given.
// Unknown ids are absent from the result; repeated ids appear once.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, shortname, fullname FROM course WHERE id = ANY($1)`
	var rows []models.Course
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	byID := make(map[int64]models.Course, len(rows))
	for _, course := range rows {
		byID[course.ID] = course
	}
	ordered := make([]models.Course, 0, len(rows))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		course, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, course)
	}
	return ordered, nil
}

// ListEnrolledByUser returns the courses a user is actively enrolled in.
func (r *CourseRepository) ListEnrolledByUser(ctx context.Context, userID int64) ([]models.Course, error) {
	const query = `SELECT DISTINCT c.id, c.shortname, c.fullname
FROM course c
JOIN user_enrolments ue ON ue.courseid = c.id
WHERE ue.userid = $1 AND ue.status = 0
ORDER BY c.id`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return courses, nil
}
