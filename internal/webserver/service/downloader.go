package service

import (
	"io"
	"mime"
	"strings"

	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/xpath"
	"github.com/pkg/errors"
)

// DefaultImageContentType is served when the extension is unknown.
const DefaultImageContentType = "image/jpeg"

// An ImageDownloader streams a stored image.
type ImageDownloader struct {
	storage  storage.Backend
	filename string
}

// NewImageDownloader returns a new ImageDownloader.
func NewImageDownloader(storage storage.Backend, filename string) *ImageDownloader {
	return &ImageDownloader{
		storage:  storage,
		filename: filename,
	}
}

// Exist returns true if the image is stored.
func (s *ImageDownloader) Exist() (bool, error) {
	exist, err := s.storage.Exist(s.filename)
	return exist, errors.Wrap(err, "ImageDownloader")
}

func (s *ImageDownloader) Stream() (io.ReadCloser, error) {
	r, err := s.storage.Reader(s.filename)
	return r, errors.Wrap(err, "ImageDownloader")
}

func (s *ImageDownloader) ContentType() string {
	ct := mime.TypeByExtension("." + strings.ToLower(xpath.Ext(s.filename)))
	if !strings.HasPrefix(ct, "image/") {
		return DefaultImageContentType
	}
	return ct
}
