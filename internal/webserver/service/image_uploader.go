package service

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/pkg/errors"
)

// An ImageUploader performs upload and metrics.
type ImageUploader struct {
	storage  storage.Backend
	filename string

	size     int64
	checksum string
}

// NewImageUploader returns a new ImageUploader.
func NewImageUploader(storage storage.Backend, filename string) *ImageUploader {
	return &ImageUploader{
		storage:  storage,
		filename: filename,
	}
}

// Upload performs the upload and records the image size and checksum.
func (s *ImageUploader) Upload(r io.Reader) error {
	wc, err := s.storage.Writer(s.filename)
	if err != nil {
		return err
	}

	h := md5.New()
	w := io.MultiWriter(h, wc)

	n, err := io.Copy(w, r)
	if err != nil {
		wc.Close()
		return errors.Wrap(err, "could not write image")
	}

	if err = wc.Close(); err != nil {
		return errors.Wrap(err, "could not write image")
	}

	s.size = n
	s.checksum = hex.EncodeToString(h.Sum(nil))
	return nil
}

// Size returns the number of uploaded bytes.
func (s *ImageUploader) Size() int64 {
	return s.size
}

// Checksum returns the md5 of the uploaded image.
func (s *ImageUploader) Checksum() string {
	return s.checksum
}
