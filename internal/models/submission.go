package models

// Submission statuses.
const (
	SubmissionStatusNew       = "new"
	SubmissionStatusDraft     = "draft"
	SubmissionStatusSubmitted = "submitted"
)

// Submission is a row of the assign_submission table.
type Submission struct {
	ID           int64  `db:"id" json:"id"`
	AssignmentID int64  `db:"assignment" json:"assignmentId"`
	UserID       int64  `db:"userid" json:"userId"`
	Status       string `db:"status" json:"status"`
	TimeCreated  int64  `db:"timecreated" json:"timeCreated"`
}

// Submitted reports whether the submission has been handed in.
func (s Submission) Submitted() bool {
	return s.Status == SubmissionStatusSubmitted
}
