package service

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/xpath"
	"github.com/pkg/errors"
)

var (
	// ErrNotAnImage is returned when the uploaded file is not an image.
	ErrNotAnImage = errors.New("the file must be an image")
	// ErrInvalidRaspberryID is returned when the station identifier cannot be part of a file name.
	ErrInvalidRaspberryID = errors.New("invalid raspberry_id")
)

type (
	// A Report is the data sent by a station along with its capture.
	Report struct {
		RaspberryID    string
		Name           string
		Location       string
		DetectionCount int
		Temperature    float64
		Humidity       float64
		Latitude       float64
		Longitude      float64
		Confidence     float64
	}

	// An Image is the uploaded capture.
	Image struct {
		Filename    string
		ContentType string
		Body        io.Reader
	}

	// An Ingester stores the reports sent by the stations.
	// It is safe for concurrent use and must be shared by all the requests.
	Ingester struct {
		database database.Client
		storage  storage.Backend
		now      func() time.Time

		mu       sync.Mutex
		reserved map[string]bool
	}
)

// NewIngester returns a new Ingester.
func NewIngester(database database.Client, storage storage.Backend) *Ingester {
	return &Ingester{
		database: database,
		storage:  storage,
		now:      time.Now,
		reserved: map[string]bool{},
	}
}

// WithClock overrides the clock used to timestamp the reports.
func (s *Ingester) WithClock(now func() time.Time) *Ingester {
	s.now = now
	return s
}

// Ingest stores the image, registers or refreshes the station and saves the detection.
// The baseURL is used to craft the public image URL.
func (s *Ingester) Ingest(baseURL string, report Report, image Image) (*model.Detection, error) {
	if !xpath.Bare(report.RaspberryID) {
		return nil, ErrInvalidRaspberryID
	}
	if !strings.HasPrefix(image.ContentType, "image/") {
		return nil, ErrNotAnImage
	}

	at := s.now().UTC()
	filename, err := s.reserve(report.RaspberryID, image.Filename, at)
	if err != nil {
		return nil, errors.Wrap(err, "Ingester image")
	}
	defer s.release(filename)

	uploader := NewImageUploader(s.storage, filename)
	if err = uploader.Upload(image.Body); err != nil {
		s.storage.Remove(filename)
		return nil, errors.Wrap(err, "Ingester image")
	}

	detection := &model.Detection{
		RaspberryID:    report.RaspberryID,
		Timestamp:      at,
		DetectionCount: report.DetectionCount,
		Temperature:    report.Temperature,
		Humidity:       report.Humidity,
		Latitude:       report.Latitude,
		Longitude:      report.Longitude,
		Confidence:     report.Confidence,
		ImageFilename:  filename,
		ImageURL:       xpath.ImageURL(baseURL, filename),
		ImageSize:      uploader.Size(),
		ImageChecksum:  uploader.Checksum(),
	}

	_, err = s.database.RecordDetection(detection, func(station *model.Station) {
		if station.Name == "" {
			station.Name = report.Name
		}
		station.Location = report.Location
		station.Latitude = report.Latitude
		station.Longitude = report.Longitude
		station.Seen(at)
	})
	if err != nil {
		s.storage.Remove(filename)
		return nil, errors.Wrap(err, "Ingester")
	}
	return detection, nil
}

// reserve returns a free image file name and holds it until release.
// Names have a millisecond resolution so the stamp is shifted when it is already
// taken in the storage or by a pending upload.
func (s *Ingester) reserve(raspberryID, original string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		filename := xpath.ImageFilename(raspberryID, original, at)

		if !s.reserved[filename] {
			exist, err := s.storage.Exist(filename)
			if err != nil {
				return "", err
			}
			if !exist {
				s.reserved[filename] = true
				return filename, nil
			}
		}
		at = at.Add(time.Millisecond)
	}
}

func (s *Ingester) release(filename string) {
	s.mu.Lock()
	delete(s.reserved, filename)
	s.mu.Unlock()
}
