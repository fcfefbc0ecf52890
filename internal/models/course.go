package models

// Course is a row of the course table.
type Course struct {
	ID        int64  `db:"id" json:"id"`
	ShortName string `db:"shortname" json:"shortName"`
	FullName  string `db:"fullname" json:"fullName"`
}

// Assignment is a row of the assign table. Activities of a course are
// ordered by TimeCreated.
type Assignment struct {
	ID          int64  `db:"id" json:"id"`
	CourseID    int64  `db:"course" json:"courseId"`
	Name        string `db:"name" json:"name"`
	TimeCreated int64  `db:"timecreated" json:"timeCreated"`
}

// CourseModule places an activity instance inside a course.
type CourseModule struct {
	ID         int64  `db:"id" json:"id"`
	CourseID   int64  `db:"course" json:"courseId"`
	ModuleName string `db:"module_name" json:"moduleName"`
	InstanceID int64  `db:"instance" json:"instanceId"`
}

// ModuleAssign is the module name of assignment activities.
const ModuleAssign = "assign"

// ContextLevelModule is the context level of course modules.
const ContextLevelModule = 70
