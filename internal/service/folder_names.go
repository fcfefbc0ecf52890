package service

import (
	"fmt"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
)

// SanitizeFolder replaces every byte outside [A-Za-z0-9_-] with '_'.
// Multi-byte characters therefore expand to one '_' per byte.
func SanitizeFolder(name string) string {
	out := []byte(name)
	for i, b := range out {
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '_', b == '-':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// StudentFolder derives the folder of a submission owner.
func StudentFolder(u models.User) string {
	return SanitizeFolder(u.FirstName + "_" + u.LastName)
}

// CourseFolder derives the folder of a course.
func CourseFolder(c models.Course) string {
	return SanitizeFolder(c.ShortName)
}

// SuggestedFilename names the archive produced for selection.
func SuggestedFilename(selection *models.Selection) string {
	if selection.Mode == models.ExportModeCourse {
		return fmt.Sprintf("images_%s.zip", selection.Subject)
	}
	scope := selection.ScopeName
	if scope == "" {
		scope = models.ScopeAllUnits
	}
	return fmt.Sprintf("%s_images_%s.zip", scope, selection.Subject)
}
