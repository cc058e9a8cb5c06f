package database_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) database.Client {
	t.Helper()

	dbname := filepath.Join(t.TempDir(), "monitoraedes.db")
	require.NoError(t, database.StormInit(dbname))

	db, err := database.StormOpen(dbname)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(dbname)
	})
	return db
}

func detection(id string, at time.Time, count int) *model.Detection {
	return &model.Detection{
		RaspberryID:    id,
		Timestamp:      at,
		DetectionCount: count,
		Temperature:    25,
		Humidity:       70,
	}
}

func TestSaveStampsModel(t *testing.T) {
	db := open(t)

	station := &model.Station{RaspberryID: "RPI_1", Status: model.StatusOnline}
	require.NoError(t, db.Save(station))
	assert.NotEmpty(t, station.ID)
	assert.False(t, station.CreatedAt.IsZero())

	id := station.ID
	created := station.CreatedAt
	station.Name = "renamed"
	require.NoError(t, db.Save(station))
	assert.Equal(t, id, station.ID)
	assert.Equal(t, created, station.CreatedAt)

	found, err := db.FindStation("RPI_1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", found.Name)
}

func TestFindStationNotFound(t *testing.T) {
	db := open(t)

	_, err := db.FindStation("missing")
	assert.Error(t, err)
	assert.True(t, db.IsNotFound(err))
}

func TestDeleteStation(t *testing.T) {
	db := open(t)

	require.NoError(t, db.Save(&model.Station{RaspberryID: "RPI_1"}))
	require.NoError(t, db.DeleteStation("RPI_1"))
	require.NoError(t, db.DeleteStation("RPI_1"))

	stations, err := db.ListStations()
	require.NoError(t, err)
	assert.Empty(t, stations)
}

func TestLatestDetections(t *testing.T) {
	db := open(t)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Save(detection("RPI_1", now.Add(time.Duration(i)*time.Minute), i)))
	}

	detections, err := db.LatestDetections(3)
	require.NoError(t, err)
	require.Len(t, detections, 3)
	assert.Equal(t, 4, detections[0].DetectionCount)
	assert.Equal(t, 3, detections[1].DetectionCount)
	assert.Equal(t, 2, detections[2].DetectionCount)
}

func TestLatestDetectionsEmpty(t *testing.T) {
	db := open(t)

	detections, err := db.LatestDetections(0)
	require.NoError(t, err)
	assert.NotNil(t, detections)
	assert.Empty(t, detections)
}

func TestFindDetectionsByStation(t *testing.T) {
	db := open(t)
	now := time.Now().UTC()

	require.NoError(t, db.Save(detection("RPI_1", now, 1)))
	require.NoError(t, db.Save(detection("RPI_2", now, 2)))
	require.NoError(t, db.Save(detection("RPI_1", now.Add(time.Minute), 3)))

	detections, err := db.FindDetectionsByStation("RPI_1", 0)
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, 3, detections[0].DetectionCount)
	assert.Equal(t, 1, detections[1].DetectionCount)

	detections, err = db.FindDetectionsByStation("RPI_1", 1)
	require.NoError(t, err)
	require.Len(t, detections, 1)

	detections, err = db.AllDetectionsByStation("RPI_1")
	require.NoError(t, err)
	assert.Len(t, detections, 2)

	detections, err = db.FindDetectionsByStation("RPI_3", 10)
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestFindDetectionsBetween(t *testing.T) {
	db := open(t)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Save(detection("RPI_1", day.Add(-time.Second), 1)))
	require.NoError(t, db.Save(detection("RPI_1", day, 2)))
	require.NoError(t, db.Save(detection("RPI_1", day.Add(23*time.Hour), 3)))
	require.NoError(t, db.Save(detection("RPI_1", day.AddDate(0, 0, 1), 4)))

	detections, err := db.FindDetectionsBetween(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, 2, detections[0].DetectionCount)
	assert.Equal(t, 3, detections[1].DetectionCount)
}

func TestDeleteDetection(t *testing.T) {
	db := open(t)

	d := detection("RPI_1", time.Now().UTC(), 1)
	require.NoError(t, db.Save(d))
	require.NoError(t, db.DeleteDetection(d.ID))

	detections, err := db.AllDetections()
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestRecordDetection(t *testing.T) {
	db := open(t)
	now := time.Now().UTC()

	station, err := db.RecordDetection(detection("RPI_1", now, 1), func(station *model.Station) {
		station.Name = "Trap 1"
		station.Seen(now)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, station.ID)
	assert.Equal(t, model.StatusOnline, station.Status)

	station, err = db.RecordDetection(detection("RPI_1", now.Add(time.Minute), 2), func(station *model.Station) {
		assert.Equal(t, "Trap 1", station.Name)
		station.Location = "Lima"
	})
	require.NoError(t, err)
	assert.Equal(t, "Lima", station.Location)

	stations, err := db.ListStations()
	require.NoError(t, err)
	assert.Len(t, stations, 1)

	detections, err := db.AllDetectionsByStation("RPI_1")
	require.NoError(t, err)
	assert.Len(t, detections, 2)
}

func TestRecordDetectionConcurrently(t *testing.T) {
	db := open(t)
	now := time.Now().UTC()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := db.RecordDetection(detection("RPI_NEW", now, i), func(station *model.Station) {
				station.Seen(now)
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	stations, err := db.ListStations()
	require.NoError(t, err)
	assert.Len(t, stations, 1)

	detections, err := db.AllDetectionsByStation("RPI_NEW")
	require.NoError(t, err)
	assert.Len(t, detections, 8)
}

func TestMarkOffline(t *testing.T) {
	db := open(t)
	now := time.Now().UTC()

	require.NoError(t, db.Save(&model.Station{RaspberryID: "STALE", LastSeen: now.Add(-2 * time.Hour), Status: model.StatusOnline}))
	require.NoError(t, db.Save(&model.Station{RaspberryID: "FRESH", LastSeen: now, Status: model.StatusOnline}))

	flagged, err := db.MarkOffline("STALE", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, flagged)

	flagged, err = db.MarkOffline("STALE", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, flagged)

	flagged, err = db.MarkOffline("FRESH", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, flagged)

	flagged, err = db.MarkOffline("MISSING", now)
	require.NoError(t, err)
	assert.False(t, flagged)

	stale, err := db.FindStation("STALE")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stale.Status)

	fresh, err := db.FindStation("FRESH")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, fresh.Status)
}

func TestFindDetectionByImage(t *testing.T) {
	db := open(t)

	d := detection("RPI_1", time.Now().UTC(), 1)
	d.ImageFilename = "RPI_1_20240310_101010_123.jpg"
	require.NoError(t, db.Save(d))

	found, err := db.FindDetectionByImage(d.ImageFilename)
	require.NoError(t, err)
	assert.Equal(t, d.ID, found.ID)

	_, err = db.FindDetectionByImage("missing.jpg")
	assert.True(t, db.IsNotFound(err))
}

func TestSeed(t *testing.T) {
	db := open(t)

	n, err := database.Seed(db)
	require.NoError(t, err)
	assert.Equal(t, len(database.ReferenceStations), n)

	n, err = database.Seed(db)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	molina, err := db.FindStation("RPI_MOLINA")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, molina.Status)
	assert.Equal(t, "La Molina", molina.Location)
}
