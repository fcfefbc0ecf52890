package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

type collectorFileLister interface {
	ListArea(ctx context.Context, area models.FileArea) ([]models.StoredFile, error)
}

// BlobReader opens stored file bytes by content hash.
type BlobReader interface {
	Open(ctx context.Context, hash string) (io.ReadCloser, error)
}

// AssetCollectorConfig tunes area listing fan-out and collision handling.
type AssetCollectorConfig struct {
	Workers                int
	DisambiguateCollisions bool
}

// AssetCollector plans archive entries for resolved submission targets.
type AssetCollector struct {
	files  collectorFileLister
	blobs  BlobReader
	cfg    AssetCollectorConfig
	logger *zap.Logger
}

// NewAssetCollector constructs the collector.
func NewAssetCollector(files collectorFileLister, blobs BlobReader, cfg AssetCollectorConfig, logger *zap.Logger) *AssetCollector {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetCollector{files: files, blobs: blobs, cfg: cfg, logger: logger}
}

// Collect lists every target's file area, keeps image files and assigns each
// a relative archive path according to layout. Entries are returned in target
// order. A later file mapping to an existing path replaces the earlier one in
// place unless collisions are disambiguated.
func (c *AssetCollector) Collect(ctx context.Context, targets []models.SubmissionTarget, layout models.Layout) ([]models.ArchiveEntry, error) {
	listed := make([][]models.StoredFile, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i := range targets {
		i := i
		g.Go(func() error {
			files, err := c.files.ListArea(gctx, targets[i].Area)
			if err != nil {
				return fmt.Errorf("list submission %d files: %w", targets[i].Submission.ID, err)
			}
			listed[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(ctxErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submission files")
	}

	plan := newEntryPlan(c.cfg.DisambiguateCollisions)
	for i, target := range targets {
		for _, file := range listed[i] {
			if !file.IsImage() {
				c.logger.Debug("skipping non-image file", zap.Int64("file_id", file.ID), zap.String("mimetype", file.ContentType()))
				continue
			}
			entry := models.ArchiveEntry{
				Path:       entryPath(layout, target, file.FileName),
				File:       file,
				Owner:      target.Owner,
				Course:     target.Course,
				Assignment: target.Assignment,
				Open:       c.opener(file.ContentHash),
			}
			if replaced := plan.add(entry); replaced {
				c.logger.Debug("archive path overwritten", zap.String("path", entry.Path), zap.Int64("file_id", file.ID))
			}
		}
	}
	return plan.entries, nil
}

func (c *AssetCollector) opener(hash string) models.ContentOpener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return c.blobs.Open(ctx, hash)
	}
}

func entryPath(layout models.Layout, target models.SubmissionTarget, filename string) string {
	student := StudentFolder(target.Owner)
	course := CourseFolder(target.Course)
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(filename)
	if layout == models.LayoutCourseFirst {
		return course + "/" + student + "/" + name
	}
	return student + "/" + course + "/" + name
}

type entryPlan struct {
	entries      []models.ArchiveEntry
	index        map[string]int
	disambiguate bool
}

func newEntryPlan(disambiguate bool) *entryPlan {
	return &entryPlan{index: make(map[string]int), disambiguate: disambiguate}
}

// add records entry and reports whether it replaced an earlier one.
func (p *entryPlan) add(entry models.ArchiveEntry) bool {
	pos, taken := p.index[entry.Path]
	if !taken {
		p.index[entry.Path] = len(p.entries)
		p.entries = append(p.entries, entry)
		return false
	}
	if !p.disambiguate {
		p.entries[pos] = entry
		return true
	}
	ext := path.Ext(entry.Path)
	stem := strings.TrimSuffix(entry.Path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if _, used := p.index[candidate]; !used {
			entry.Path = candidate
			p.index[candidate] = len(p.entries)
			p.entries = append(p.entries, entry)
			return false
		}
	}
}
