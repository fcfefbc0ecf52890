package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
)

// SubmissionRepository reads assignment submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByAssignmentAndUser returns the latest submission of a user or sql.ErrNoRows.
func (r *SubmissionRepository) FindByAssignmentAndUser(ctx context.Context, assignmentID, userID int64) (*models.Submission, error) {
	const query = `SELECT id, assignment, userid, status, timecreated FROM assign_submission WHERE assignment = $1 AND userid = $2 ORDER BY id DESC LIMIT 1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// ListByAssignment returns every submission of an assignment ordered by id.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID int64) ([]models.Submission, error) {
	const query = `SELECT id, assignment, userid, status, timecreated FROM assign_submission WHERE assignment = $1 ORDER BY id ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}
