package database

import (
	"time"

	"github.com/mdouchement/monitoraedes/internal/model"
)

// Default limits used by listing queries when no positive limit is given.
const (
	DefaultStationLimit = 20
	DefaultLatestLimit  = 50
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is nil or a not found error.
		IsNotFound(err error) bool

		StationInteraction
		DetectionInteraction
	}

	// A StationInteraction defines all the methods used to interact with a station record.
	StationInteraction interface {
		ListStations() ([]*model.Station, error)
		FindStation(raspberryID string) (*model.Station, error)
		DeleteStation(raspberryID string) error
		// MarkOffline flags the station as offline if it is still online and has not been seen since the given time.
		// It returns true when the station has been flagged.
		MarkOffline(raspberryID string, seenBefore time.Time) (bool, error)
	}

	// A DetectionInteraction defines all the methods used to interact with a detection record.
	DetectionInteraction interface {
		AllDetections() ([]*model.Detection, error)
		LatestDetections(limit int) ([]*model.Detection, error)
		FindDetectionsByStation(raspberryID string, limit int) ([]*model.Detection, error)
		AllDetectionsByStation(raspberryID string) ([]*model.Detection, error)
		FindDetectionByImage(filename string) (*model.Detection, error)
		// FindDetectionsBetween returns the detections received in [from, to).
		FindDetectionsBetween(from, to time.Time) ([]*model.Detection, error)
		DeleteDetection(id string) error
		// RecordDetection atomically saves the detection along with its station.
		// The station is registered when missing; update is applied to it before saving.
		RecordDetection(detection *model.Detection, update func(station *model.Station)) (*model.Station, error)
	}
)
