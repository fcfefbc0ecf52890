package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
)

var storedFileColumns = []string{"id", "contenthash", "contextid", "component", "filearea", "itemid", "filepath", "filename", "mimetype", "filesize", "timecreated"}

func TestFileListAreaExcludesDirectories(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	area := models.SubmissionArea(900, 500)
	rows := sqlmock.NewRows(storedFileColumns).
		AddRow(int64(1), "aa11", int64(900), models.SubmissionFileComponent, models.SubmissionFileArea, int64(500), "/", "cat.png", "image/png", int64(10), int64(1)).
		AddRow(int64(2), "bb22", int64(900), models.SubmissionFileComponent, models.SubmissionFileArea, int64(500), "/", "notes", nil, int64(3), int64(2))
	mock.ExpectQuery(`FROM files\s+WHERE contextid = \$1 AND component = \$2 AND filearea = \$3 AND itemid = \$4 AND filename <> \$5`).
		WithArgs(int64(900), models.SubmissionFileComponent, models.SubmissionFileArea, int64(500), models.DirectoryFilename).
		WillReturnRows(rows)

	files, err := repo.ListArea(context.Background(), area)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.True(t, files[0].IsImage())
	assert.Nil(t, files[1].MimeType)
	assert.False(t, files[1].IsImage())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileDeleteInArea(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	area := models.SubmissionArea(900, 500)
	mock.ExpectQuery(`DELETE FROM files\s+WHERE contextid = \$1 .* AND id = ANY\(\$6\)\s+RETURNING`).
		WithArgs(int64(900), models.SubmissionFileComponent, models.SubmissionFileArea, int64(500), models.DirectoryFilename, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(storedFileColumns).
			AddRow(int64(1), "aa11", int64(900), models.SubmissionFileComponent, models.SubmissionFileArea, int64(500), "/", "cat.png", "image/png", int64(10), int64(1)))

	removed, err := repo.DeleteInArea(context.Background(), area, []int64{1, 77})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "aa11", removed[0].ContentHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileCountByContentHash(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM files WHERE contenthash = \$1`).
		WithArgs("aa11").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByContentHash(context.Background(), "aa11")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
