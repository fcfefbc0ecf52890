package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
)

const fileColumns = `id, contenthash, contextid, component, filearea, itemid, filepath, filename, mimetype, filesize, timecreated`

// FileRepository reads and removes rows of the files table.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs the repository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// ListArea returns the files of one area without directory placeholders.
// The listing is flat; nested paths are returned as stored.
func (r *FileRepository) ListArea(ctx context.Context, area models.FileArea) ([]models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files
WHERE contextid = $1 AND component = $2 AND filearea = $3 AND itemid = $4 AND filename <> $5
ORDER BY filepath ASC, filename ASC, id ASC`
	var files []models.StoredFile
	if err := r.db.SelectContext(ctx, &files, query, area.ContextID, area.Component, area.Area, area.ItemID, models.DirectoryFilename); err != nil {
		return nil, fmt.Errorf("list area files: %w", err)
	}
	return files, nil
}

// FindByID returns a file row or sql.ErrNoRows.
func (r *FileRepository) FindByID(ctx context.Context, id int64) (*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND filename <> $2 LIMIT 1`
	var file models.StoredFile
	if err := r.db.GetContext(ctx, &file, query, id, models.DirectoryFilename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return &file, nil
}

// DeleteInArea removes the listed ids that belong to area and returns the removed rows.
func (r *FileRepository) DeleteInArea(ctx context.Context, area models.FileArea, ids []int64) ([]models.StoredFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `DELETE FROM files
WHERE contextid = $1 AND component = $2 AND filearea = $3 AND itemid = $4 AND filename <> $5 AND id = ANY($6)
RETURNING ` + fileColumns
	var removed []models.StoredFile
	if err := r.db.SelectContext(ctx, &removed, query, area.ContextID, area.Component, area.Area, area.ItemID, models.DirectoryFilename, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("delete area files: %w", err)
	}
	return removed, nil
}

// CountByContentHash returns how many file rows still reference a blob.
func (r *FileRepository) CountByContentHash(ctx context.Context, hash string) (int, error) {
	const query = `SELECT COUNT(*) FROM files WHERE contenthash = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, hash); err != nil {
		return 0, fmt.Errorf("count files by hash: %w", err)
	}
	return count, nil
}
