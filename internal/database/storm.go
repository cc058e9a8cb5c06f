package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/json"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/pkg/errors"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(json.Codec)

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.Init(&model.Station{}); err != nil {
		return errors.Wrap(err, "could not init station index")
	}

	err = db.Init(&model.Detection{})
	return errors.Wrap(err, "could not init detection index")
}

// StormReIndex rebuilds all the indexes.
func StormReIndex(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.ReIndex(&model.Station{}); err != nil {
		return errors.Wrap(err, "could not ReIndex stations")
	}

	err = db.ReIndex(&model.Detection{})
	return errors.Wrap(err, "could not ReIndex detections")
}

// StormOpen opens the given database.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

func (c *strm) Save(m model.Model) error {
	return save(c.db, m)
}

func save(n storm.Node, m model.Model) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return errors.Wrap(n.Save(m), "could not save the model")
}

func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

func (c *strm) Close() error {
	return c.db.Close()
}

func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

//
// Station
//

func (c *strm) ListStations() ([]*model.Station, error) {
	stations := make([]*model.Station, 0)
	err := c.db.All(&stations)
	if c.IsNotFound(err) {
		return stations, nil
	}
	return stations, errors.Wrap(err, "could not get all stations")
}

func (c *strm) FindStation(raspberryID string) (*model.Station, error) {
	var station model.Station
	err := c.db.One("RaspberryID", raspberryID, &station)
	return &station, errors.Wrap(err, "could not find station")
}

func (c *strm) DeleteStation(raspberryID string) error {
	err := c.db.Select(q.Eq("RaspberryID", raspberryID)).Delete(&model.Station{})
	if c.IsNotFound(err) {
		return nil
	}
	return errors.Wrap(err, "could not delete station")
}

func (c *strm) MarkOffline(raspberryID string, seenBefore time.Time) (bool, error) {
	tx, err := c.db.Begin(true)
	if err != nil {
		return false, errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	var station model.Station
	if err = tx.One("RaspberryID", raspberryID, &station); err != nil {
		if c.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "could not find station")
	}

	if station.Status == model.StatusOffline || !station.LastSeen.Before(seenBefore) {
		return false, nil
	}

	station.Status = model.StatusOffline
	if err = save(tx, &station); err != nil {
		return false, err
	}

	return true, errors.Wrap(tx.Commit(), "could not commit station")
}

//
// Detection
//

func (c *strm) AllDetections() ([]*model.Detection, error) {
	detections := make([]*model.Detection, 0)
	err := c.db.All(&detections)
	return c.many(detections, errors.Wrap(err, "could not get all detections"))
}

func (c *strm) LatestDetections(limit int) ([]*model.Detection, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}

	detections := make([]*model.Detection, 0)
	err := c.db.Select().OrderBy("Timestamp").Reverse().Limit(limit).Find(&detections)
	return c.many(detections, errors.Wrap(err, "could not get latest detections"))
}

func (c *strm) FindDetectionsByStation(raspberryID string, limit int) ([]*model.Detection, error) {
	if limit <= 0 {
		limit = DefaultStationLimit
	}

	detections := make([]*model.Detection, 0)
	err := c.db.Select(q.Eq("RaspberryID", raspberryID)).OrderBy("Timestamp").Reverse().Limit(limit).Find(&detections)
	return c.many(detections, errors.Wrap(err, "could not get detections by raspberry_id"))
}

func (c *strm) AllDetectionsByStation(raspberryID string) ([]*model.Detection, error) {
	detections := make([]*model.Detection, 0)
	err := c.db.Find("RaspberryID", raspberryID, &detections)
	return c.many(detections, errors.Wrap(err, "could not get all detections by raspberry_id"))
}

func (c *strm) FindDetectionByImage(filename string) (*model.Detection, error) {
	var detection model.Detection
	err := c.db.One("ImageFilename", filename, &detection)
	return &detection, errors.Wrap(err, "could not find detection")
}

func (c *strm) FindDetectionsBetween(from, to time.Time) ([]*model.Detection, error) {
	detections := make([]*model.Detection, 0)
	err := c.db.Select(q.Gte("Timestamp", from), q.Lt("Timestamp", to)).OrderBy("Timestamp").Find(&detections)
	return c.many(detections, errors.Wrap(err, "could not get detections by date range"))
}

func (c *strm) DeleteDetection(id string) error {
	err := c.db.Select(q.Eq("ID", id)).Delete(&model.Detection{})
	return errors.Wrap(err, "could not delete detection")
}

func (c *strm) RecordDetection(detection *model.Detection, update func(station *model.Station)) (*model.Station, error) {
	tx, err := c.db.Begin(true)
	if err != nil {
		return nil, errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	station := new(model.Station)
	err = tx.One("RaspberryID", detection.RaspberryID, station)
	switch {
	case c.IsNotFound(err):
		station = &model.Station{RaspberryID: detection.RaspberryID}
	case err != nil:
		return nil, errors.Wrap(err, "could not find station")
	}

	update(station)
	if err = save(tx, station); err != nil {
		return nil, errors.Wrap(err, "station")
	}

	if err = save(tx, detection); err != nil {
		return nil, errors.Wrap(err, "detection")
	}

	return station, errors.Wrap(tx.Commit(), "could not commit detection")
}

// many turns a not found error into an empty result.
func (c *strm) many(detections []*model.Detection, err error) ([]*model.Detection, error) {
	if c.IsNotFound(err) {
		return make([]*model.Detection, 0), nil
	}
	return detections, err
}
