package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type fs struct {
	workspace string
}

// NewFileSystem returns a new File System backend.
func NewFileSystem(workspace string) (Backend, error) {
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, errors.Wrap(err, "could not create workspace")
	}

	return &fs{
		workspace: workspace,
	}, nil
}

func (b *fs) Name() string {
	return "file_system"
}

func (b *fs) Reader(filename string) (io.ReadCloser, error) {
	rc, err := os.Open(b.path(filename))
	if err != nil {
		return nil, errors.Wrap(err, "could not open file")
	}
	return rc, nil
}

func (b *fs) Writer(filename string) (io.WriteCloser, error) {
	wc, err := os.Create(b.path(filename))
	if err != nil {
		return nil, errors.Wrap(err, "could not create file")
	}
	return wc, nil
}

func (b *fs) Exist(filename string) (bool, error) {
	info, err := os.Stat(b.path(filename))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "could not stat file")
}

func (b *fs) Filenames() ([]string, error) {
	entries, err := os.ReadDir(b.workspace)
	if err != nil {
		return nil, errors.Wrap(err, "could not list files")
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filenames = append(filenames, entry.Name())
	}

	return filenames, nil
}

func (b *fs) Remove(filename string) error {
	err := os.Remove(b.path(filename))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "could not delete file")
	}
	return nil
}

func (b *fs) path(filename string) string {
	return filepath.Join(b.workspace, filepath.Base(filename))
}
