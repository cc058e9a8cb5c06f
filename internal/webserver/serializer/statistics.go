package serializer

import (
	"github.com/mdouchement/monitoraedes/internal/webserver/service"
)

// Statistics returns the serialized form of the given statistics.
func Statistics(stats service.Statistics) map[string]interface{} {
	return map[string]interface{}{
		"total_detections":   stats.TotalDetections,
		"active_raspberries": stats.ActiveRaspberries,
		"avg_temperature":    stats.AvgTemperature,
		"avg_humidity":       stats.AvgHumidity,
		"detections_by_pi":   stats.DetectionsByPi,
	}
}
