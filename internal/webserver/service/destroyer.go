package service

import (
	"time"

	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DateLayout is the format of the purge date bounds.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a purge date bound cannot be parsed.
var ErrInvalidDate = errors.New("dates must follow the YYYY-MM-DD format")

// A Destroyer removes record(s) and their file(s) from storage.
type Destroyer interface {
	Destroy() error
}

//
//-----
//

// A DetectionDestroyer removes a detection and its image.
type DetectionDestroyer struct {
	database  database.Client
	storage   storage.Backend
	detection *model.Detection
}

// NewDetectionDestroyer returns a new DetectionDestroyer.
func NewDetectionDestroyer(database database.Client, storage storage.Backend, detection *model.Detection) Destroyer {
	return &DetectionDestroyer{
		database:  database,
		storage:   storage,
		detection: detection,
	}
}

func (s *DetectionDestroyer) Destroy() error {
	if s.detection.ImageFilename != "" {
		err := s.storage.Remove(s.detection.ImageFilename)
		if err != nil {
			return errors.Wrap(err, "DetectionDestroyer storage")
		}
	}

	err := s.database.DeleteDetection(s.detection.ID)
	return errors.Wrap(err, "DetectionDestroyer detection")
}

//
//-----
//

// A StationDestroyer removes a station along with all its detections.
type StationDestroyer struct {
	database    database.Client
	storage     storage.Backend
	raspberryID string
}

// NewStationDestroyer returns a new StationDestroyer.
func NewStationDestroyer(database database.Client, storage storage.Backend, raspberryID string) Destroyer {
	return &StationDestroyer{
		database:    database,
		storage:     storage,
		raspberryID: raspberryID,
	}
}

func (s *StationDestroyer) Destroy() error {
	detections, err := s.database.AllDetectionsByStation(s.raspberryID)
	if err != nil {
		return errors.Wrap(err, "StationDestroyer find detections")
	}

	err = destroyAll(s.database, s.storage, detections)
	if err != nil {
		return errors.Wrap(err, "StationDestroyer")
	}

	err = s.database.DeleteStation(s.raspberryID)
	return errors.Wrap(err, "StationDestroyer station")
}

//
//-----
//

type (
	// A PurgeRequest selects the data to delete.
	PurgeRequest struct {
		RaspberryID string
		StartDate   string
		EndDate     string
	}

	// A PurgeResult describes what has been deleted.
	PurgeResult struct {
		Scope      string
		Detections int
		Stations   int
	}

	// A Purger deletes stored data.
	Purger struct {
		database database.Client
		storage  storage.Backend
	}
)

// Purge scopes.
const (
	PurgeScopeDates   = "dates"
	PurgeScopeStation = "station"
	PurgeScopeAll     = "all"
)

// NewPurger returns a new Purger.
func NewPurger(database database.Client, storage storage.Backend) *Purger {
	return &Purger{
		database: database,
		storage:  storage,
	}
}

// Purge deletes, in priority order, the detections received between both dates (inclusive),
// the given station and its detections, or everything.
func (s *Purger) Purge(req PurgeRequest) (PurgeResult, error) {
	switch {
	case req.StartDate != "" && req.EndDate != "":
		return s.purgeDates(req.StartDate, req.EndDate)
	case req.RaspberryID != "":
		return s.purgeStation(req.RaspberryID)
	default:
		return s.purgeAll()
	}
}

func (s *Purger) purgeDates(start, end string) (PurgeResult, error) {
	result := PurgeResult{Scope: PurgeScopeDates}

	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return result, ErrInvalidDate
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return result, ErrInvalidDate
	}

	detections, err := s.database.FindDetectionsBetween(from, to.AddDate(0, 0, 1))
	if err != nil {
		return result, errors.Wrap(err, "Purger")
	}

	result.Detections = len(detections)
	return result, errors.Wrap(destroyAll(s.database, s.storage, detections), "Purger")
}

func (s *Purger) purgeStation(raspberryID string) (PurgeResult, error) {
	result := PurgeResult{Scope: PurgeScopeStation}

	detections, err := s.database.AllDetectionsByStation(raspberryID)
	if err != nil {
		return result, errors.Wrap(err, "Purger")
	}

	_, err = s.database.FindStation(raspberryID)
	switch {
	case err == nil:
		result.Stations = 1
	case !s.database.IsNotFound(err):
		return result, errors.Wrap(err, "Purger")
	}

	result.Detections = len(detections)
	err = NewStationDestroyer(s.database, s.storage, raspberryID).Destroy()
	return result, errors.Wrap(err, "Purger")
}

func (s *Purger) purgeAll() (PurgeResult, error) {
	result := PurgeResult{Scope: PurgeScopeAll}

	stations, err := s.database.ListStations()
	if err != nil {
		return result, errors.Wrap(err, "Purger")
	}

	detections, err := s.database.AllDetections()
	if err != nil {
		return result, errors.Wrap(err, "Purger")
	}

	err = destroyAll(s.database, s.storage, detections)
	for _, station := range stations {
		err = multierr.Append(err, s.database.Delete(station))
	}

	result.Detections = len(detections)
	result.Stations = len(stations)
	return result, errors.Wrap(err, "Purger")
}

// destroyAll keeps going on failure and returns all the encountered errors.
func destroyAll(database database.Client, storage storage.Backend, detections []*model.Detection) error {
	var err error
	for _, detection := range detections {
		err = multierr.Append(err, NewDetectionDestroyer(database, storage, detection).Destroy())
	}
	return err
}
