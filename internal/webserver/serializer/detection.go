package serializer

import (
	"github.com/mdouchement/monitoraedes/internal/model"
)

// Detections returns the serialized form of the given models.
func Detections(detections []*model.Detection) []map[string]interface{} {
	sl := make([]map[string]interface{}, 0, len(detections))

	for _, detection := range detections {
		sl = append(sl, Detection(detection))
	}

	return sl
}

// Detection returns the serialized form of the given model.
func Detection(detection *model.Detection) map[string]interface{} {
	return map[string]interface{}{
		"id":              detection.ID,
		"raspberry_id":    detection.RaspberryID,
		"timestamp":       detection.Timestamp,
		"detection_count": detection.DetectionCount,
		"temperature":     detection.Temperature,
		"humidity":        detection.Humidity,
		"latitude":        detection.Latitude,
		"longitude":       detection.Longitude,
		"confidence":      detection.Confidence,
		"image_filename":  detection.ImageFilename,
		"image_url":       detection.ImageURL,
		"image_size":      detection.ImageSize,
		"image_checksum":  detection.ImageChecksum,
		"created_at":      detection.CreatedAt,
	}
}

// StationImages returns the serialized form of the detections of a station, as listed in its gallery.
func StationImages(detections []*model.Detection) []map[string]interface{} {
	sl := make([]map[string]interface{}, 0, len(detections))

	for _, detection := range detections {
		sl = append(sl, map[string]interface{}{
			"id":              detection.ID,
			"timestamp":       detection.Timestamp,
			"detection_count": detection.DetectionCount,
			"confidence":      detection.Confidence,
			"image_filename":  detection.ImageFilename,
			"image_url":       detection.ImageURL,
			"temperature":     detection.Temperature,
			"humidity":        detection.Humidity,
		})
	}

	return sl
}
