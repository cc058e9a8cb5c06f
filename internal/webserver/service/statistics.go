package service

import (
	"math"
	"sort"
	"time"

	"github.com/mdouchement/monitoraedes/internal/model"
)

type (
	// Statistics aggregates all the received reports.
	Statistics struct {
		TotalDetections   int
		ActiveRaspberries int
		AvgTemperature    float64
		AvgHumidity       float64
		DetectionsByPi    map[string]int
	}

	// A StationSummary is a station along with its reporting activity.
	StationSummary struct {
		Station         *model.Station
		TotalDetections int
		LastDetection   *time.Time
	}
)

// ComputeStatistics returns the Statistics of the given detections.
// TotalDetections and DetectionsByPi count reports, not detected mosquitoes.
func ComputeStatistics(detections []*model.Detection) Statistics {
	stats := Statistics{
		DetectionsByPi: map[string]int{},
	}

	var temperature, humidity float64
	for _, detection := range detections {
		stats.DetectionsByPi[detection.RaspberryID]++
		temperature += detection.Temperature
		humidity += detection.Humidity
	}

	stats.TotalDetections = len(detections)
	stats.ActiveRaspberries = len(stats.DetectionsByPi)
	if stats.TotalDetections > 0 {
		stats.AvgTemperature = round2(temperature / float64(stats.TotalDetections))
		stats.AvgHumidity = round2(humidity / float64(stats.TotalDetections))
	}

	return stats
}

// SummarizeStations returns a summary for every station, ordered by raspberry_id.
// TotalDetections sums the detected mosquitoes of each report.
func SummarizeStations(stations []*model.Station, detections []*model.Detection) []StationSummary {
	summaries := make([]StationSummary, 0, len(stations))
	index := make(map[string]int, len(stations))

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].RaspberryID < stations[j].RaspberryID
	})

	for i, station := range stations {
		index[station.RaspberryID] = i
		summaries = append(summaries, StationSummary{Station: station})
	}

	for _, detection := range detections {
		i, ok := index[detection.RaspberryID]
		if !ok {
			continue
		}

		summary := &summaries[i]
		summary.TotalDetections += detection.DetectionCount
		if summary.LastDetection == nil || detection.Timestamp.After(*summary.LastDetection) {
			t := detection.Timestamp
			summary.LastDetection = &t
		}
	}

	return summaries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
