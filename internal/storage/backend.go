package storage

import "io"

// Backend is the interface that wraps the basic image file operations.
type Backend interface {
	// Name returns the name of the backend implementation.
	Name() string

	// Reader returns a ReadCloser of the file.
	Reader(filename string) (io.ReadCloser, error)
	// Writer returns a WriteCloser of the file.
	Writer(filename string) (io.WriteCloser, error)
	// Exist returns true if the file is present.
	Exist(filename string) (bool, error)

	// Filenames lists all the stored file names.
	Filenames() ([]string, error)

	// Remove deletes the given file. Removing a missing file is not an error.
	Remove(filename string) error
}
