package models

import "strings"

// Submission file area identifiers.
const (
	SubmissionFileComponent = "assignsubmission_file"
	SubmissionFileArea      = "submission_files"
)

// DirectoryFilename marks directory placeholder rows in the files table.
const DirectoryFilename = "."

// FileArea addresses a flat group of files owned by one submission.
type FileArea struct {
	ContextID int64
	Component string
	Area      string
	ItemID    int64
}

// SubmissionArea returns the file area of submissionID under the module context contextID.
func SubmissionArea(contextID, submissionID int64) FileArea {
	return FileArea{
		ContextID: contextID,
		Component: SubmissionFileComponent,
		Area:      SubmissionFileArea,
		ItemID:    submissionID,
	}
}

// StoredFile is a row of the files table. Content lives in the blob store under ContentHash.
type StoredFile struct {
	ID          int64   `db:"id" json:"id"`
	ContentHash string  `db:"contenthash" json:"-"`
	ContextID   int64   `db:"contextid" json:"-"`
	Component   string  `db:"component" json:"-"`
	FileArea    string  `db:"filearea" json:"-"`
	ItemID      int64   `db:"itemid" json:"itemId"`
	FilePath    string  `db:"filepath" json:"filePath"`
	FileName    string  `db:"filename" json:"fileName"`
	MimeType    *string `db:"mimetype" json:"mimeType,omitempty"`
	FileSize    int64   `db:"filesize" json:"fileSize"`
	TimeCreated int64   `db:"timecreated" json:"timeCreated"`
}

// ContentType returns the declared mime type or an empty string when absent.
func (f StoredFile) ContentType() string {
	if f.MimeType == nil {
		return ""
	}
	return *f.MimeType
}

// IsImage reports whether the declared content type is in the image family.
func (f StoredFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType()), "image/")
}
