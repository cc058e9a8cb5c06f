// Package legacy imports the SQLite database of the former Python receiver.
package legacy

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/model"
	"github.com/pkg/errors"
)

// timeLayouts are the formats produced by Python's isoformat() and SQLite's CURRENT_TIMESTAMP.
var timeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// A Result sums up an import.
type Result struct {
	Stations   int
	Detections int
	// Registered counts the stations created from detections that had no raspberry_info row.
	Registered int
}

// Import reads the raspberry_info and detections tables from the SQLite file at path and saves them in db.
// Existing stations are updated, detections are appended.
func Import(path string, db database.Client, log logger.Logger) (Result, error) {
	var result Result

	dsn, err := readOnlyDSN(path)
	if err != nil {
		return result, errors.Wrap(err, "could not open legacy database")
	}

	sqlite, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return result, errors.Wrap(err, "could not open legacy database")
	}
	defer sqlite.Close()

	if err = sqlite.Ping(); err != nil {
		return result, errors.Wrap(err, "could not open legacy database")
	}

	result.Stations, err = importStations(sqlite, db)
	if err != nil {
		return result, err
	}
	log.Infof("Imported %d stations", result.Stations)

	result.Detections, result.Registered, err = importDetections(sqlite, db)
	if err != nil {
		return result, err
	}
	log.Infof("Imported %d detections", result.Detections)
	if result.Registered > 0 {
		log.Warnf("Registered %d stations missing from raspberry_info", result.Registered)
	}

	return result, nil
}

func importStations(sqlite *sql.DB, db database.Client) (int, error) {
	rows, err := sqlite.Query(`SELECT raspberry_id, name, location, latitude, longitude, last_seen, status FROM raspberry_info`)
	if err != nil {
		return 0, errors.Wrap(err, "could not query raspberry_info")
	}
	defer rows.Close()

	var n int
	for rows.Next() {
		var (
			id, name, location, lastSeen, status sql.NullString
			latitude, longitude                  sql.NullFloat64
		)
		if err = rows.Scan(&id, &name, &location, &latitude, &longitude, &lastSeen, &status); err != nil {
			return n, errors.Wrap(err, "could not read raspberry_info")
		}
		if !id.Valid || id.String == "" {
			continue
		}

		station, err := db.FindStation(id.String)
		switch {
		case db.IsNotFound(err):
			station = &model.Station{RaspberryID: id.String}
		case err != nil:
			return n, errors.Wrap(err, "could not import station")
		}

		station.Name = name.String
		station.Location = location.String
		station.Latitude = latitude.Float64
		station.Longitude = longitude.Float64
		station.LastSeen = parseTime(lastSeen.String)
		station.Status = model.StatusOnline
		if status.String == model.StatusOffline {
			station.Status = model.StatusOffline
		}

		if err = db.Save(station); err != nil {
			return n, errors.Wrap(err, "could not import station")
		}
		n++
	}

	return n, errors.Wrap(rows.Err(), "could not read raspberry_info")
}

func importDetections(sqlite *sql.DB, db database.Client) (int, int, error) {
	columns, err := tableColumns(sqlite, "detections")
	if err != nil {
		return 0, 0, err
	}

	// Depending on its version, the receiver stored either the image_path or the image_filename/image_url pair,
	// with or without a confidence.
	selected := []string{"raspberry_id", "timestamp", "detection_count", "temperature", "humidity", "latitude", "longitude"}
	for _, optional := range []string{"confidence", "image_filename", "image_url", "image_path"} {
		if columns[optional] {
			selected = append(selected, optional)
		}
	}

	rows, err := sqlite.Query(`SELECT ` + strings.Join(selected, ", ") + ` FROM detections ORDER BY id`)
	if err != nil {
		return 0, 0, errors.Wrap(err, "could not query detections")
	}
	defer rows.Close()

	var n int
	registered := map[string]bool{}
	for rows.Next() {
		var (
			id, timestamp                                          sql.NullString
			count                                                  sql.NullInt64
			temperature, humidity, latitude, longitude, confidence sql.NullFloat64
			filename, url, path                                    sql.NullString
		)

		dest := []interface{}{&id, &timestamp, &count, &temperature, &humidity, &latitude, &longitude}
		for _, column := range selected[len(dest):] {
			switch column {
			case "confidence":
				dest = append(dest, &confidence)
			case "image_filename":
				dest = append(dest, &filename)
			case "image_url":
				dest = append(dest, &url)
			case "image_path":
				dest = append(dest, &path)
			}
		}

		if err = rows.Scan(dest...); err != nil {
			return n, len(registered), errors.Wrap(err, "could not read detections")
		}

		detection := &model.Detection{
			RaspberryID:    id.String,
			Timestamp:      parseTime(timestamp.String),
			DetectionCount: int(count.Int64),
			Temperature:    temperature.Float64,
			Humidity:       humidity.Float64,
			Latitude:       latitude.Float64,
			Longitude:      longitude.Float64,
			Confidence:     confidence.Float64,
			ImageFilename:  filename.String,
			ImageURL:       url.String,
		}
		if detection.ImageURL == "" {
			detection.ImageURL = path.String
		}
		if detection.ImageFilename == "" && detection.ImageURL != "" {
			detection.ImageFilename = detection.ImageURL[strings.LastIndexByte(detection.ImageURL, '/')+1:]
		}

		_, err = db.RecordDetection(detection, func(station *model.Station) {
			if station.ID != "" && !registered[station.RaspberryID] {
				return
			}

			registered[station.RaspberryID] = true
			if station.Name == "" {
				station.Name = station.RaspberryID
			}
			if detection.Timestamp.After(station.LastSeen) {
				station.Latitude = detection.Latitude
				station.Longitude = detection.Longitude
				station.Seen(detection.Timestamp)
			}
		})
		if err != nil {
			return n, len(registered), errors.Wrap(err, "could not import detection")
		}
		n++
	}

	return n, len(registered), errors.Wrap(rows.Err(), "could not read detections")
}

// readOnlyDSN returns the SQLite URI opening path in read-only mode.
// The path is escaped so that characters such as '?' or '#' are not taken as URI delimiters.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro",
	}
	return u.String(), nil
}

func tableColumns(sqlite *sql.DB, table string) (map[string]bool, error) {
	rows, err := sqlite.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "could not describe %s", table)
	}
	defer rows.Close()

	columns := map[string]bool{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, errors.Wrapf(err, "could not describe %s", table)
		}
		columns[name] = true
	}

	return columns, errors.Wrapf(rows.Err(), "could not describe %s", table)
}

// parseTime parses the naive timestamps of the legacy database as UTC.
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
