package model

import "time"

// A Detection is a single report sent by a Station.
type Detection struct {
	Base `json:",inline" storm:"inline"`

	RaspberryID    string    `json:"raspberry_id"    storm:"index"`
	Timestamp      time.Time `json:"timestamp"       storm:"index"`
	DetectionCount int       `json:"detection_count"`
	Temperature    float64   `json:"temperature"`
	Humidity       float64   `json:"humidity"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Confidence     float64   `json:"confidence"`
	ImageFilename  string    `json:"image_filename"  storm:"index"`
	ImageURL       string    `json:"image_url"`
	ImageSize      int64     `json:"image_size"`
	ImageChecksum  string    `json:"image_checksum"`
}
