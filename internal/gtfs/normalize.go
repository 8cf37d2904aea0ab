package gtfs

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
)

// InferMode classifies a route's GTFS route_type into a coarse mode label.
// The build does not call it and models.BuildReport carries no per-mode
// counts; edge construction always keys off the raw route_type per
// spec.md §3/§4.1. Grounded on the teacher's gtfs.InferMode, demoted from a
// routing input to a standalone helper.
func InferMode(route Route) string {
	switch route.RouteType {
	case 0, 5, 6, 7:
		return "tram"
	case 1:
		return "subway"
	case 2:
		return "rail"
	case 3:
		return "bus"
	case 4:
		return "ferry"
	default:
		return "bus"
	}
}

// ParseTimeToSeconds converts a GTFS HH:MM:SS time to seconds past
// service-day midnight. Values >= 24:00:00 are valid and denote a
// same-service-day next-calendar-day event (spec.md §3).
func ParseTimeToSeconds(timeStr string) (int, error) {
	if timeStr == "" {
		return 0, fmt.Errorf("empty time string")
	}

	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %s", timeStr)
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", timeStr, err)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", timeStr, err)
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", timeStr, err)
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// InterpolateStopTimes fills in missing arrival/departure times for a
// single trip's stop_times (already sorted by stop_sequence), linearly
// interpolating between the surrounding timed stops. A missing time is
// represented by -1 (see parseStopTimes). Grounded on the teacher's
// gtfs.InterpolateStopTimes; generalized from a whole-feed pass to a
// per-trip one so it matches the Feed.InterpolatedStopTimesForTrip
// contract.
func InterpolateStopTimes(times []StopTime) []StopTime {
	if len(times) == 0 {
		return times
	}

	firstValid, lastValid := -1, -1
	for i, st := range times {
		if st.ArrivalTime >= 0 && st.DepartureTime >= 0 {
			if firstValid == -1 {
				firstValid = i
			}
			lastValid = i
		}
	}

	if firstValid == -1 {
		log.Printf("warning: trip %s has no timed stops, leaving times unset", times[0].TripID)
		return times
	}

	out := make([]StopTime, len(times))
	copy(out, times)

	for i := range out {
		if out[i].ArrivalTime >= 0 {
			continue
		}
		switch {
		case i < firstValid:
			out[i].ArrivalTime = out[firstValid].ArrivalTime
			out[i].DepartureTime = out[firstValid].DepartureTime
		case i > lastValid:
			out[i].ArrivalTime = out[lastValid].ArrivalTime
			out[i].DepartureTime = out[lastValid].DepartureTime
		default:
			prev := firstValid
			for j := i - 1; j >= firstValid; j-- {
				if out[j].ArrivalTime >= 0 {
					prev = j
					break
				}
			}
			next := lastValid
			for j := i + 1; j <= lastValid; j++ {
				if out[j].ArrivalTime >= 0 {
					next = j
					break
				}
			}
			if next == prev {
				out[i].ArrivalTime = out[prev].DepartureTime
				out[i].DepartureTime = out[prev].DepartureTime
				continue
			}
			span := out[next].ArrivalTime - out[prev].DepartureTime
			frac := float64(i-prev) / float64(next-prev)
			t := out[prev].DepartureTime + int(float64(span)*frac)
			out[i].ArrivalTime = t
			out[i].DepartureTime = t
		}
	}

	return out
}

// ValidateAndCleanStops removes stops with invalid or null-island
// coordinates, grounded on the teacher's gtfs.ValidateAndCleanStops.
func ValidateAndCleanStops(stops []Stop) []Stop {
	cleaned := make([]Stop, 0, len(stops))

	for _, stop := range stops {
		if stop.StopLat < -90 || stop.StopLat > 90 {
			log.Printf("warning: invalid latitude for stop %s: %f", stop.StopID, stop.StopLat)
			continue
		}
		if stop.StopLon < -180 || stop.StopLon > 180 {
			log.Printf("warning: invalid longitude for stop %s: %f", stop.StopID, stop.StopLon)
			continue
		}
		if stop.StopLat == 0 && stop.StopLon == 0 {
			log.Printf("warning: stop %s has null island coordinates, skipping", stop.StopID)
			continue
		}
		cleaned = append(cleaned, stop)
	}

	if len(cleaned) < len(stops) {
		log.Printf("cleaned stops: removed %d invalid stops", len(stops)-len(cleaned))
	}

	return cleaned
}

// DeduplicateStops collapses stops within thresholdMeters of an
// already-kept stop onto that stop, returning the deduplicated list and an
// old-id -> kept-id mapping. Grounded on the teacher's
// gtfs.DeduplicateStops; generalized from a DB-backed operation (which
// only ever used the in-process slice, never the pool argument) to a pure
// function.
func DeduplicateStops(stops []Stop, thresholdMeters float64) ([]Stop, map[string]string) {
	if len(stops) == 0 {
		return stops, make(map[string]string)
	}

	var deduplicated []Stop
	skip := make(map[int]bool)
	mapping := make(map[string]string)

	for i := 0; i < len(stops); i++ {
		if skip[i] {
			continue
		}
		current := stops[i]
		deduplicated = append(deduplicated, current)
		mapping[current.StopID] = current.StopID

		for j := i + 1; j < len(stops); j++ {
			if skip[j] {
				continue
			}
			d := haversineDistance(current.StopLat, current.StopLon, stops[j].StopLat, stops[j].StopLon)
			if d < thresholdMeters {
				log.Printf("deduplicating stop %s (duplicate of %s, distance: %.2fm)", stops[j].StopID, current.StopID, d)
				skip[j] = true
				mapping[stops[j].StopID] = current.StopID
			}
		}
	}

	log.Printf("deduplicated %d stops to %d (removed %d duplicates)", len(stops), len(deduplicated), len(stops)-len(deduplicated))

	return deduplicated, mapping
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
