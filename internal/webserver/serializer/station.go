package serializer

import (
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
)

// StationSummaries returns the serialized form of the given summaries.
func StationSummaries(summaries []service.StationSummary) []map[string]interface{} {
	sl := make([]map[string]interface{}, 0, len(summaries))

	for _, summary := range summaries {
		sl = append(sl, StationSummary(summary))
	}

	return sl
}

// StationSummary returns the serialized form of the given summary.
// last_detection is null when the station never reported.
func StationSummary(summary service.StationSummary) map[string]interface{} {
	station := summary.Station

	var last interface{}
	if summary.LastDetection != nil {
		last = *summary.LastDetection
	}

	return map[string]interface{}{
		"raspberry_id":     station.RaspberryID,
		"name":             station.Name,
		"location":         station.Location,
		"latitude":         station.Latitude,
		"longitude":        station.Longitude,
		"last_seen":        station.LastSeen,
		"status":           station.Status,
		"total_detections": summary.TotalDetections,
		"last_detection":   last,
	}
}
