package database

import (
	"time"

	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/pkg/errors"
)

// ReferenceStations are the traps deployed before any report is received.
var ReferenceStations = []model.Station{
	{RaspberryID: "DIRIS_LIMA", Name: "Raspberry Pi DIRIS", Location: "El Agustino", Latitude: -12.0407, Longitude: -76.9951, Status: model.StatusOnline},
	{RaspberryID: "UPC_MONTERRICO", Name: "Raspberry Pi UPC", Location: "Monterrico", Latitude: -12.1037, Longitude: -76.9630, Status: model.StatusOnline},
	{RaspberryID: "RPI_MOLINA", Name: "Raspberry Pi Molina", Location: "La Molina", Latitude: -12.0729, Longitude: -76.9691, Status: model.StatusOffline},
}

// Seed inserts the ReferenceStations which are not already registered.
// It returns the number of inserted stations.
func Seed(db Client) (int, error) {
	var n int
	now := time.Now().UTC()

	for _, reference := range ReferenceStations {
		_, err := db.FindStation(reference.RaspberryID)
		if err == nil {
			continue
		}
		if !db.IsNotFound(err) {
			return n, errors.Wrap(err, "seed")
		}

		station := reference
		station.LastSeen = now
		if err = db.Save(&station); err != nil {
			return n, errors.Wrap(err, "seed")
		}
		n++
	}

	return n, nil
}
