package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Staging hands out scratch files for archives under construction.
type Staging struct {
	dir string
}

// NewStaging uses dir for scratch files, or the OS temp dir when dir is empty.
func NewStaging(dir string) (*Staging, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Staging{dir: dir}, nil
}

// Create opens a new scratch file whose name starts with prefix.
func (s *Staging) Create(prefix string) (*os.File, error) {
	file, err := os.CreateTemp(s.dir, prefix+"*.zip")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	return file, nil
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// CleanupOlderThan removes scratch files with prefix older than ttl, left behind
// by a crashed process, and returns the deleted names.
func (s *Staging) CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read staging directory: %w", err)
	}
	deleted := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return deleted, fmt.Errorf("stat staging file: %w", err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("cleanup staging: %w", err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}
