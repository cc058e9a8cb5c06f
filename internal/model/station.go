package model

import "time"

// Station statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// A Station is a Raspberry Pi trap reporting detections.
type Station struct {
	Base `json:",inline" storm:"inline"`

	RaspberryID string    `json:"raspberry_id" storm:"unique"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	LastSeen    time.Time `json:"last_seen"`
	Status      string    `json:"status"       storm:"index"`
}

// Seen refreshes the presence of the station.
func (s *Station) Seen(t time.Time) {
	s.LastSeen = t
	s.Status = StatusOnline
}
