package dto

import "time"

// GalleryItem is one image of a submission gallery.
type GalleryItem struct {
	FileID    int64     `json:"fileId"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	FileSize  int64     `json:"fileSize"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GalleryResponse lists the caller's submitted images for a course module.
type GalleryResponse struct {
	CourseModuleID int64         `json:"courseModuleId"`
	SubmissionID   int64         `json:"submissionId,omitempty"`
	Status         string        `json:"status,omitempty"`
	Items          []GalleryItem `json:"items"`
}

// DeleteGalleryRequest selects gallery files to remove. Form posts carry the
// ids as a JSON array in photos.
type DeleteGalleryRequest struct {
	FileIDs []int64 `json:"fileIds" form:"-" validate:"omitempty,dive,gt=0"`
	Photos  string  `json:"-" form:"photos"`
}

// DeleteGalleryResponse reports which ids were removed.
type DeleteGalleryResponse struct {
	Deleted []int64 `json:"deleted"`
	Ignored []int64 `json:"ignored"`
}
