package service

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/export"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/storage"
)

// ArchivePrefix starts the name of every staged archive.
const ArchivePrefix = "submission-export-"

type stagingArea interface {
	Create(prefix string) (*os.File, error)
}

// ArchiveBuilderConfig tunes archive construction.
type ArchiveBuilderConfig struct {
	CompressionLevel int
	// Prefetch bounds how many entries are opened ahead of the writer.
	Prefetch int
	// Manifest adds a listing of all entries when set.
	Manifest export.Renderer
}

// ArchiveBuilder writes planned entries into a staged ZIP file.
type ArchiveBuilder struct {
	staging stagingArea
	cfg     ArchiveBuilderConfig
	logger  *zap.Logger
}

// NewArchiveBuilder constructs the builder.
func NewArchiveBuilder(staging stagingArea, cfg ArchiveBuilderConfig, logger *zap.Logger) *ArchiveBuilder {
	if cfg.CompressionLevel < flate.HuffmanOnly || cfg.CompressionLevel > flate.BestCompression {
		cfg.CompressionLevel = flate.DefaultCompression
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveBuilder{staging: staging, cfg: cfg, logger: logger}
}

type openedEntry struct {
	entry  models.ArchiveEntry
	reader io.ReadCloser
	err    error
}

// Build writes entries into a new archive named filename. Entries whose blob
// is missing are skipped. The staged file is removed on every error; on
// success it is removed when the returned result is closed.
func (b *ArchiveBuilder) Build(ctx context.Context, entries []models.ArchiveEntry, filename string) (result *models.ExportResult, err error) {
	if len(entries) == 0 {
		return nil, appErrors.ErrNothingToExport
	}

	tmp, err := b.staging.Create(ArchivePrefix)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrZipUnavailable.Code, appErrors.ErrZipUnavailable.Status, appErrors.ErrZipUnavailable.Message)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	ready := make(chan openedEntry, b.cfg.Prefetch)
	go produceEntries(runCtx, entries, ready)
	defer func() {
		cancel()
		for item := range ready {
			if item.reader != nil {
				_ = item.reader.Close()
			}
		}
	}()

	zw := zip.NewWriter(tmp)
	level := b.cfg.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	written := make([]models.ArchiveEntry, 0, len(entries))
	for item := range ready {
		if item.err != nil {
			if errors.Is(item.err, storage.ErrBlobNotFound) {
				b.logger.Warn("skipping entry with missing content", zap.String("path", item.entry.Path), zap.String("contenthash", item.entry.File.ContentHash))
				continue
			}
			if ctx.Err() != nil {
				break
			}
			return nil, b.unavailable("open entry content", item.entry.Path, item.err)
		}
		copyErr := writeEntry(ctx, zw, item.entry, item.reader)
		_ = item.reader.Close()
		if copyErr != nil {
			if ctx.Err() != nil {
				break
			}
			return nil, b.unavailable("write entry", item.entry.Path, copyErr)
		}
		written = append(written, item.entry)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, cancelled(ctxErr)
	}
	if len(written) == 0 {
		return nil, appErrors.ErrNothingToExport
	}

	if b.cfg.Manifest != nil {
		if err := b.writeManifest(zw, written); err != nil {
			return nil, b.unavailable("write manifest", b.cfg.Manifest.Filename(), err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, b.unavailable("finalize archive", filename, err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return nil, b.unavailable("stat archive", filename, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, b.unavailable("rewind archive", filename, err)
	}

	return &models.ExportResult{
		Filename: filename,
		Size:     info.Size(),
		Entries:  len(written),
		Content:  &stagedArchive{File: tmp},
	}, nil
}

func produceEntries(ctx context.Context, entries []models.ArchiveEntry, ready chan<- openedEntry) {
	defer close(ready)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		reader, err := entry.Open(ctx)
		select {
		case ready <- openedEntry{entry: entry, reader: reader, err: err}:
		case <-ctx.Done():
			if reader != nil {
				_ = reader.Close()
			}
			return
		}
	}
}

func writeEntry(ctx context.Context, zw *zip.Writer, entry models.ArchiveEntry, r io.Reader) error {
	header := &zip.FileHeader{
		Name:   entry.Path,
		Method: zip.Deflate,
	}
	if entry.File.TimeCreated > 0 {
		header.Modified = time.Unix(entry.File.TimeCreated, 0).UTC()
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, &contextReader{ctx: ctx, r: r})
	return err
}

func (b *ArchiveBuilder) writeManifest(zw *zip.Writer, entries []models.ArchiveEntry) error {
	manifest := export.Manifest{
		Title:   "Submission images",
		Headers: []string{"path", "owner", "course", "assignment", "mimetype", "size"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, entry := range entries {
		manifest.Rows = append(manifest.Rows, []string{
			entry.Path,
			entry.Owner.FullName(),
			entry.Course.ShortName,
			entry.Assignment.Name,
			entry.File.ContentType(),
			strconv.FormatInt(entry.File.FileSize, 10),
		})
	}
	data, err := b.cfg.Manifest.Render(manifest)
	if err != nil {
		return err
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: b.cfg.Manifest.Filename(), Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (b *ArchiveBuilder) unavailable(step, path string, err error) error {
	b.logger.Error("archive packaging failed", zap.String("step", step), zap.String("path", path), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrZipUnavailable.Code, appErrors.ErrZipUnavailable.Status, appErrors.ErrZipUnavailable.Message)
}

func cancelled(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrZipUnavailable.Code, appErrors.ErrZipUnavailable.Status, "export timed out")
	}
	return appErrors.Wrap(err, appErrors.ErrExportCancelled.Code, appErrors.ErrExportCancelled.Status, appErrors.ErrExportCancelled.Message)
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// stagedArchive deletes its backing file on Close.
type stagedArchive struct {
	*os.File
}

func (a *stagedArchive) Close() error {
	closeErr := a.File.Close()
	if err := os.Remove(a.File.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}
