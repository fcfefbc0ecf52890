package dto

// StudentExportRequest captures the student-scoped export parameters.
// Course ids arrive as repeated courseId params or the legacy assignid[] form.
type StudentExportRequest struct {
	StudentID       int64   `uri:"studentId" validate:"required,gt=0"`
	CourseIDs       []int64 `form:"courseId" validate:"omitempty,dive,gt=0"`
	LegacyCourseIDs []int64 `form:"assignid[]" validate:"omitempty,dive,gt=0"`
	ReturnURL       string  `form:"returnUrl"`
}

// Courses merges both course id forms in request order.
func (r StudentExportRequest) Courses() []int64 {
	if len(r.LegacyCourseIDs) == 0 {
		return r.CourseIDs
	}
	out := make([]int64, 0, len(r.CourseIDs)+len(r.LegacyCourseIDs))
	out = append(out, r.CourseIDs...)
	return append(out, r.LegacyCourseIDs...)
}

// CourseExportRequest captures the course-module export parameters.
type CourseExportRequest struct {
	CourseModuleID int64  `uri:"cmid" validate:"required,gt=0"`
	ReturnURL      string `form:"returnUrl"`
}
