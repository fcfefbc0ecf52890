package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

func entryPaths(entries []models.ArchiveEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

func readEntry(t *testing.T, entry models.ArchiveEntry) string {
	t.Helper()
	rc, err := entry.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func collectFor(t *testing.T, lms *fakeLMS, blobs *fakeBlobs, cfg AssetCollectorConfig, criterion models.SelectionCriterion) []models.ArchiveEntry {
	t.Helper()
	selection, err := newTestResolver(lms).Resolve(context.Background(), criterion)
	require.NoError(t, err)
	collector := NewAssetCollector(fakeFiles{lms}, blobs, cfg, nil)
	entries, err := collector.Collect(context.Background(), selection.Targets, models.LayoutFor(selection.Mode))
	require.NoError(t, err)
	return entries
}

func TestCollectStudentLayoutNestsStudentFirst(t *testing.T) {
	entries := collectFor(t, newFakeLMS(), newFakeBlobs(), AssetCollectorConfig{}, models.SelectionCriterion{Mode: models.ExportModeStudent, StudentID: 7})

	assert.Equal(t, []string{"O_Brien_Jr_/CS_101_A/cat.png", "O_Brien_Jr_/ART/tree.gif"}, entryPaths(entries))
}

func TestCollectCourseLayoutNestsCourseFirst(t *testing.T) {
	entries := collectFor(t, newFakeLMS(), newFakeBlobs(), AssetCollectorConfig{}, models.SelectionCriterion{Mode: models.ExportModeCourse, CourseModuleID: 40})

	assert.Equal(t, []string{"CS_101_A/O_Brien_Jr_/cat.png", "CS_101_A/Ana_Lee/dog.jpg"}, entryPaths(entries))
}

func TestCollectExcludesNonImagesAndMissingTypes(t *testing.T) {
	entries := collectFor(t, newFakeLMS(), newFakeBlobs(), AssetCollectorConfig{}, models.SelectionCriterion{Mode: models.ExportModeCourse, CourseModuleID: 40})

	for _, entry := range entries {
		assert.True(t, entry.File.IsImage(), entry.Path)
		assert.NotEqual(t, "notes.pdf", entry.File.FileName)
		assert.NotEqual(t, "raw.bin", entry.File.FileName)
	}
}

func TestCollectCollisionLastWriteWins(t *testing.T) {
	lms := newFakeLMS()
	lms.addSubmission(models.Submission{ID: 503, AssignmentID: 12, UserID: 7, Status: models.SubmissionStatusSubmitted},
		areaFile(6, 901, 503, "cat.png", "image/png", "h6"))
	blobs := newFakeBlobs()
	blobs.data["h6"] = []byte("second-cat")

	entries := collectFor(t, lms, blobs, AssetCollectorConfig{}, models.SelectionCriterion{Mode: models.ExportModeStudent, StudentID: 7, CourseIDs: []int64{5}})

	require.Equal(t, []string{"O_Brien_Jr_/CS_101_A/cat.png"}, entryPaths(entries))
	assert.Equal(t, "second-cat", readEntry(t, entries[0]))
}

func TestCollectCollisionDisambiguated(t *testing.T) {
	lms := newFakeLMS()
	lms.addSubmission(models.Submission{ID: 503, AssignmentID: 12, UserID: 7, Status: models.SubmissionStatusSubmitted},
		areaFile(6, 901, 503, "cat.png", "image/png", "h6"),
		areaFile(7, 901, 503, "cat-2.png", "image/png", "h7"))
	blobs := newFakeBlobs()
	blobs.data["h6"] = []byte("second-cat")
	blobs.data["h7"] = []byte("third-cat")

	entries := collectFor(t, lms, blobs, AssetCollectorConfig{DisambiguateCollisions: true}, models.SelectionCriterion{Mode: models.ExportModeStudent, StudentID: 7, CourseIDs: []int64{5}})

	assert.Equal(t, []string{
		"O_Brien_Jr_/CS_101_A/cat.png",
		"O_Brien_Jr_/CS_101_A/cat-2.png",
		"O_Brien_Jr_/CS_101_A/cat-2-2.png",
	}, entryPaths(entries))
	assert.Equal(t, "cat-bytes", readEntry(t, entries[0]))
	assert.Equal(t, "second-cat", readEntry(t, entries[1]))
	assert.Equal(t, "third-cat", readEntry(t, entries[2]))
}

func TestCollectDefersContentReads(t *testing.T) {
	blobs := newFakeBlobs()
	collectFor(t, newFakeLMS(), blobs, AssetCollectorConfig{}, models.SelectionCriterion{Mode: models.ExportModeStudent, StudentID: 7})

	opened, _ := blobs.openCount()
	assert.Zero(t, opened)
}

func TestCollectPropagatesListingFailure(t *testing.T) {
	lms := newFakeLMS()
	selection, err := newTestResolver(lms).Resolve(context.Background(), models.SelectionCriterion{Mode: models.ExportModeStudent, StudentID: 7})
	require.NoError(t, err)
	lms.listErr = errors.New("db down")

	_, err = NewAssetCollector(fakeFiles{lms}, newFakeBlobs(), AssetCollectorConfig{Workers: 2}, nil).
		Collect(context.Background(), selection.Targets, models.LayoutStudentFirst)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
