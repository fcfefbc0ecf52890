package models

import (
	"context"
	"io"
)

// ExportMode selects how submissions are enumerated.
type ExportMode string

const (
	ExportModeStudent ExportMode = "student"
	ExportModeCourse  ExportMode = "course"
)

// Layout orders the folder components of archive paths.
type Layout string

const (
	// LayoutStudentFirst yields student/course/filename.
	LayoutStudentFirst Layout = "student_first"
	// LayoutCourseFirst yields course/student/filename.
	LayoutCourseFirst Layout = "course_first"
)

// LayoutFor returns the archive layout used by mode.
func LayoutFor(mode ExportMode) Layout {
	if mode == ExportModeCourse {
		return LayoutCourseFirst
	}
	return LayoutStudentFirst
}

// Scope labels of student exports.
const (
	ScopeSelectedUnits = "selected_units"
	ScopeAllUnits      = "all_units"
)

// SelectionCriterion identifies the submissions to export.
type SelectionCriterion struct {
	Mode ExportMode
	// StudentID is used in student mode.
	StudentID int64
	// CourseIDs optionally restricts student mode to those courses.
	CourseIDs []int64
	// CourseModuleID is used in course mode.
	CourseModuleID int64
}

// SubmissionTarget is one resolved (course, owner, submission) tuple plus the
// file area holding its attachments.
type SubmissionTarget struct {
	Course     Course
	Owner      User
	Assignment Assignment
	Submission Submission
	Area       FileArea
}

// Selection is the ordered outcome of resolving a criterion.
type Selection struct {
	Mode      ExportMode
	Subject   string
	ScopeName string
	Targets   []SubmissionTarget
}

// ContentOpener opens the bytes of an archive entry on demand.
type ContentOpener func(ctx context.Context) (io.ReadCloser, error)

// ArchiveEntry is one file planned for the archive.
type ArchiveEntry struct {
	Path       string
	File       StoredFile
	Owner      User
	Course     Course
	Assignment Assignment
	Open       ContentOpener
}

// ExportResult describes a successfully built archive. The archive is read
// from Content; Close releases the temporary file.
type ExportResult struct {
	Filename string
	Size     int64
	Entries  int
	Content  io.ReadCloser
}

// Close releases the archive backing storage.
func (r *ExportResult) Close() error {
	if r == nil || r.Content == nil {
		return nil
	}
	return r.Content.Close()
}
