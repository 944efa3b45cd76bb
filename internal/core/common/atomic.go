package common

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// StagedFile is a fully written temp file waiting to be renamed into place.
type StagedFile struct {
	tmpPath string
	path    string
}

// Stage writes a temp file next to path using write. Nothing is visible at
// path until Publish is called.
func Stage(path string, write func(w *bufio.Writer) error) (*StagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", tmp, err)
	}
	ok = true
	return &StagedFile{tmpPath: tmp, path: path}, nil
}

// Publish renames the staged file over its destination.
func (s *StagedFile) Publish() error {
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		_ = os.Remove(s.tmpPath)
		return fmt.Errorf("publish %s: %w", s.path, err)
	}
	return nil
}

// Discard removes the staged temp file. Safe to call after Publish.
func (s *StagedFile) Discard() {
	_ = os.Remove(s.tmpPath)
}

// WriteFileAtomic stages and publishes a single file.
func WriteFileAtomic(path string, write func(w *bufio.Writer) error) error {
	staged, err := Stage(path, write)
	if err != nil {
		return err
	}
	return staged.Publish()
}
