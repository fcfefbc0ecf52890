package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/storage"
)

// fakeLMS is an in-memory record store shared by the repository stubs below.
type fakeLMS struct {
	mu          sync.Mutex
	users       map[int64]models.User
	courses     []models.Course
	enrolments  map[int64][]int64
	assignments []models.Assignment
	modules     []models.CourseModule
	contexts    map[int64]int64
	submissions []models.Submission
	files       []models.StoredFile
	listErr     error
}

func strPtr(s string) *string { return &s }

func areaFile(id int64, contextID, itemID int64, name, mime, hash string) models.StoredFile {
	file := models.StoredFile{
		ID:          id,
		ContentHash: hash,
		ContextID:   contextID,
		Component:   models.SubmissionFileComponent,
		FileArea:    models.SubmissionFileArea,
		ItemID:      itemID,
		FilePath:    "/",
		FileName:    name,
		FileSize:    int64(len(hash)),
		TimeCreated: 1700000000 + id,
	}
	if mime != "" {
		file.MimeType = strPtr(mime)
	}
	return file
}

// newFakeLMS builds the shared scenario:
// student 7 (O'Brien Jr.) is enrolled in courses 5 "CS 101/A" and 6 "ART";
// course 5 has assignments 11 and 12, course 6 has assignment 13.
func newFakeLMS() *fakeLMS {
	return &fakeLMS{
		users: map[int64]models.User{
			7: {ID: 7, FirstName: "O'Brien", LastName: "Jr."},
			8: {ID: 8, FirstName: "Ana", LastName: "Lee"},
		},
		courses: []models.Course{
			{ID: 5, ShortName: "CS 101/A", FullName: "Computing"},
			{ID: 6, ShortName: "ART", FullName: "Art"},
		},
		enrolments: map[int64][]int64{7: {5, 6}},
		assignments: []models.Assignment{
			{ID: 12, CourseID: 5, Name: "Portfolio", TimeCreated: 200},
			{ID: 11, CourseID: 5, Name: "Sketchbook", TimeCreated: 100},
			{ID: 13, CourseID: 6, Name: "Landscape", TimeCreated: 100},
		},
		modules: []models.CourseModule{
			{ID: 40, CourseID: 5, ModuleName: models.ModuleAssign, InstanceID: 11},
			{ID: 41, CourseID: 5, ModuleName: models.ModuleAssign, InstanceID: 12},
			{ID: 42, CourseID: 6, ModuleName: models.ModuleAssign, InstanceID: 13},
			{ID: 43, CourseID: 6, ModuleName: "forum", InstanceID: 99},
		},
		contexts: map[int64]int64{40: 900, 41: 901, 42: 902},
		submissions: []models.Submission{
			{ID: 500, AssignmentID: 11, UserID: 7, Status: models.SubmissionStatusSubmitted},
			{ID: 501, AssignmentID: 11, UserID: 8, Status: models.SubmissionStatusDraft},
			{ID: 502, AssignmentID: 13, UserID: 7, Status: models.SubmissionStatusSubmitted},
		},
		files: []models.StoredFile{
			areaFile(1, 900, 500, "cat.png", "image/png", "h1"),
			areaFile(2, 900, 500, "notes.pdf", "application/pdf", "h2"),
			areaFile(3, 900, 501, "dog.jpg", "image/jpeg", "h3"),
			areaFile(4, 902, 502, "tree.gif", "image/gif", "h4"),
			areaFile(5, 900, 500, "raw.bin", "", "h5"),
		},
	}
}

func (f *fakeLMS) addSubmission(sub models.Submission, files ...models.StoredFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	f.files = append(f.files, files...)
}

type fakeUsers struct{ lms *fakeLMS }

func (r fakeUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	user, ok := r.lms.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

type fakeCourses struct{ lms *fakeLMS }

func (r fakeCourses) FindByID(_ context.Context, id int64) (*models.Course, error) {
	for _, course := range r.lms.courses {
		if course.ID == id {
			c := course
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeCourses) ListByIDs(ctx context.Context, ids []int64) ([]models.Course, error) {
	var out []models.Course
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if course, err := r.FindByID(ctx, id); err == nil {
			seen[id] = true
			out = append(out, *course)
		}
	}
	return out, nil
}

func (r fakeCourses) ListEnrolledByUser(ctx context.Context, userID int64) ([]models.Course, error) {
	return r.ListByIDs(ctx, r.lms.enrolments[userID])
}

type fakeAssignments struct{ lms *fakeLMS }

func (r fakeAssignments) FindByID(_ context.Context, id int64) (*models.Assignment, error) {
	for _, a := range r.lms.assignments {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeAssignments) ListByCourse(_ context.Context, courseID int64) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range r.lms.assignments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimeCreated == out[j].TimeCreated {
			return out[i].ID < out[j].ID
		}
		return out[i].TimeCreated < out[j].TimeCreated
	})
	return out, nil
}

func (r fakeAssignments) FindCourseModule(_ context.Context, id int64) (*models.CourseModule, error) {
	for _, cm := range r.lms.modules {
		if cm.ID == id {
			found := cm
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeAssignments) FindCourseModuleByInstance(_ context.Context, courseID, assignmentID int64) (*models.CourseModule, error) {
	for _, cm := range r.lms.modules {
		if cm.CourseID == courseID && cm.ModuleName == models.ModuleAssign && cm.InstanceID == assignmentID {
			found := cm
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeAssignments) FindModuleContextID(_ context.Context, courseModuleID int64) (int64, error) {
	id, ok := r.lms.contexts[courseModuleID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return id, nil
}

type fakeSubmissions struct{ lms *fakeLMS }

func (r fakeSubmissions) FindByAssignmentAndUser(_ context.Context, assignmentID, userID int64) (*models.Submission, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	for i := len(r.lms.submissions) - 1; i >= 0; i-- {
		sub := r.lms.submissions[i]
		if sub.AssignmentID == assignmentID && sub.UserID == userID {
			return &sub, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeSubmissions) ListByAssignment(_ context.Context, assignmentID int64) ([]models.Submission, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	var out []models.Submission
	for _, sub := range r.lms.submissions {
		if sub.AssignmentID == assignmentID {
			out = append(out, sub)
		}
	}
	return out, nil
}

type fakeFiles struct{ lms *fakeLMS }

func inArea(file models.StoredFile, area models.FileArea) bool {
	return file.ContextID == area.ContextID && file.Component == area.Component &&
		file.FileArea == area.Area && file.ItemID == area.ItemID && file.FileName != models.DirectoryFilename
}

func (r fakeFiles) ListArea(_ context.Context, area models.FileArea) ([]models.StoredFile, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	if r.lms.listErr != nil {
		return nil, r.lms.listErr
	}
	var out []models.StoredFile
	for _, file := range r.lms.files {
		if inArea(file, area) {
			out = append(out, file)
		}
	}
	return out, nil
}

func (r fakeFiles) FindByID(_ context.Context, id int64) (*models.StoredFile, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	for _, file := range r.lms.files {
		if file.ID == id {
			found := file
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeFiles) DeleteInArea(_ context.Context, area models.FileArea, ids []int64) ([]models.StoredFile, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var kept, removed []models.StoredFile
	for _, file := range r.lms.files {
		if wanted[file.ID] && inArea(file, area) {
			removed = append(removed, file)
			continue
		}
		kept = append(kept, file)
	}
	r.lms.files = kept
	return removed, nil
}

func (r fakeFiles) CountByContentHash(_ context.Context, hash string) (int, error) {
	r.lms.mu.Lock()
	defer r.lms.mu.Unlock()
	var count int
	for _, file := range r.lms.files {
		if file.ContentHash == hash {
			count++
		}
	}
	return count, nil
}

// fakeBlobs is an in-memory content-addressed store.
type fakeBlobs struct {
	mu      sync.Mutex
	data    map[string][]byte
	opened  int
	closed  int
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: map[string][]byte{
		"h1": []byte("cat-bytes"),
		"h2": []byte("%PDF-notes"),
		"h3": []byte("dog-bytes"),
		"h4": []byte("tree-bytes"),
		"h5": []byte("raw-bytes"),
	}}
}

func (b *fakeBlobs) Open(ctx context.Context, hash string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[hash]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	b.opened++
	return &trackedReader{Reader: bytes.NewReader(data), blobs: b}, nil
}

func (b *fakeBlobs) Delete(_ context.Context, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, hash)
	b.deleted = append(b.deleted, hash)
	return nil
}

func (b *fakeBlobs) openCount() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened, b.closed
}

type trackedReader struct {
	io.Reader
	blobs *fakeBlobs
}

func (r *trackedReader) Close() error {
	r.blobs.mu.Lock()
	defer r.blobs.mu.Unlock()
	r.blobs.closed++
	return nil
}

func newTestResolver(lms *fakeLMS) *SelectionResolver {
	return NewSelectionResolver(fakeUsers{lms}, fakeCourses{lms}, fakeAssignments{lms}, fakeSubmissions{lms}, nil)
}
