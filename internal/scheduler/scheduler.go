package scheduler

import (
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/xpath"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// OrphanGrace is the age an unreferenced image must reach before being swept.
const OrphanGrace = 10 * time.Minute

// A Controller is an Iversion Of Control pattern used to init the server package.
type Controller struct {
	Logger        logger.Logger
	Database      database.Client
	Storage       storage.Backend
	Specification string
	OfflineAfter  time.Duration
}

// Start lauches the scheduler asynchronously.
// The returned cron must be stopped on shutdown.
func Start(c Controller) (*cron.Cron, error) {
	cron := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	log := c.Logger.WithPrefix("[scheduler]")

	_, err := cron.AddFunc(c.Specification, func() {
		now := time.Now()

		if err := Presence(c, now); err != nil {
			c.Logger.WithPrefix("[presence]").Error(err)
		}

		if err := SweepOrphans(c, now); err != nil {
			c.Logger.WithPrefix("[orphans]").Error(err)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not register presence task")
	}
	log.Info("Presence task registred")

	cron.Start()
	log.Info("Scheduler is running")
	return cron, nil
}

// Presence flags as offline the stations that have not reported since c.OfflineAfter.
func Presence(c Controller, now time.Time) error {
	log := c.Logger.WithPrefix("[presence]")

	stations, err := c.Database.ListStations()
	if err != nil {
		return err
	}

	deadline := now.Add(-c.OfflineAfter)
	for _, station := range stations {
		if station.Status == model.StatusOffline || !station.LastSeen.Before(deadline) {
			continue
		}

		// The station may have reported since it has been listed.
		flagged, err := c.Database.MarkOffline(station.RaspberryID, deadline)
		if err != nil {
			return err
		}
		if !flagged {
			continue
		}

		log.Infof("%s is offline (last seen %s)", station.RaspberryID, station.LastSeen.Format(time.RFC3339))
	}

	return nil
}

// SweepOrphans removes the stored images that no detection references.
func SweepOrphans(c Controller, now time.Time) error {
	log := c.Logger.WithPrefix("[orphans]")

	filenames, err := c.Storage.Filenames()
	if err != nil {
		return err
	}

	detections, err := c.Database.AllDetections()
	if err != nil {
		return err
	}

	referenced := make(map[string]bool, len(detections))
	for _, detection := range detections {
		referenced[detection.ImageFilename] = true
	}

	for _, filename := range filenames {
		if referenced[filename] {
			continue
		}

		t, ok := xpath.ImageTimestamp(filename)
		if !ok || now.Sub(t) < OrphanGrace {
			continue
		}

		if err = c.Storage.Remove(filename); err != nil {
			return err
		}
		log.Infof("Removed %s", filename)
	}

	return nil
}
