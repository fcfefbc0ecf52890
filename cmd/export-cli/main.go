package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/app"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/config"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/logger"
)

var output string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			fmt.Fprintf(os.Stderr, "export-cli: [%s] %s: %s\n", appErrors.Level(err), appErr.Code, appErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "export-cli: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "export-cli",
		Short:         "Export submission images to a ZIP archive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Archive path (defaults to the suggested filename in the working directory)")
	cmd.AddCommand(newStudentCmd(), newCourseCmd())
	return cmd
}

func newStudentCmd() *cobra.Command {
	var studentID int64
	var courseIDs []int64
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Export one student's images across courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, deps *app.App) (*models.ExportResult, error) {
				return deps.Exports.ExportStudent(ctx, studentID, courseIDs)
			})
		},
	}
	cmd.Flags().Int64Var(&studentID, "id", 0, "Student user id")
	cmd.Flags().Int64SliceVar(&courseIDs, "course", nil, "Course id to include (repeatable); all active enrolments when omitted")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newCourseCmd() *cobra.Command {
	var courseModuleID int64
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Export every submission image of one assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, deps *app.App) (*models.ExportResult, error) {
				return deps.Exports.ExportCourse(ctx, courseModuleID)
			})
		},
	}
	cmd.Flags().Int64Var(&courseModuleID, "cmid", 0, "Assignment course module id")
	_ = cmd.MarkFlagRequired("cmid")
	return cmd
}

type exportFunc func(ctx context.Context, deps *app.App) (*models.ExportResult, error)

func run(ctx context.Context, export exportFunc) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	deps, err := app.New(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer deps.Close()

	result, err := export(ctx, deps)
	if err != nil {
		return err
	}
	defer result.Close() //nolint:errcheck

	target := output
	if target == "" {
		target = result.Filename
	}
	if err := writeArchive(target, result.Content); err != nil {
		return err
	}
	logr.Info("archive written",
		zap.String("path", target),
		zap.Int64("bytes", result.Size),
		zap.Int("entries", result.Entries))
	fmt.Println(target)
	return nil
}

func writeArchive(path string, r io.Reader) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if _, err = io.Copy(f, r); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}
