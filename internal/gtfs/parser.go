package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StaticFeed is a Feed backed by data parsed from a GTFS zip (or a
// directory of GTFS text files), grounded on the teacher's
// internal/gtfs.ParseGTFSZip/GTFSFeed.
type StaticFeed struct {
	id          string
	stops       []Stop
	routes      []Route
	trips       []Trip
	agencies    []Agency
	frequencies []Frequency
	stopTimes   map[string][]StopTime // tripID -> stop_times, interpolated + sorted
	calendar    *serviceCalendar
	startDate   time.Time
	endDate     time.Time
}

func (f *StaticFeed) ID() string                { return f.id }
func (f *StaticFeed) Stops() []Stop             { return f.stops }
func (f *StaticFeed) Routes() []Route           { return f.routes }
func (f *StaticFeed) Trips() []Trip             { return f.trips }
func (f *StaticFeed) Agencies() []Agency        { return f.agencies }
func (f *StaticFeed) Frequencies() []Frequency  { return f.frequencies }
func (f *StaticFeed) StartDate() time.Time      { return f.startDate }
func (f *StaticFeed) EndDate() time.Time        { return f.endDate }

func (f *StaticFeed) ServiceIsActive(serviceID string, date time.Time) bool {
	return f.calendar.activeOn(serviceID, date)
}

func (f *StaticFeed) InterpolatedStopTimesForTrip(tripID string) []StopTime {
	return f.stopTimes[tripID]
}

// StaticTransfers is a Transfers backed by parsed transfers.txt rows.
type StaticTransfers struct {
	toStop               map[string][]Transfer
	fromStop             map[string][]Transfer
	routeSpecificAtStop  map[string]bool
}

func (t *StaticTransfers) HasNoRouteSpecificDepartureTransferRules(stopID string) bool {
	return !t.routeSpecificAtStop[stopID]
}

func (t *StaticTransfers) GetTransfersToStop(stopID string) []Transfer {
	return t.toStop[stopID]
}

func (t *StaticTransfers) GetTransfersFromStop(stopID string) []Transfer {
	return t.fromStop[stopID]
}

// ParseGTFSZip extracts and parses a GTFS zip file into a StaticFeed and
// StaticTransfers, grounded on the teacher's ParseGTFSZip (temp-dir
// extraction, one parse function per file, optional files tolerated).
func ParseGTFSZip(feedID, zipPath string) (*StaticFeed, *StaticTransfers, error) {
	tempDir, err := os.MkdirTemp("", "gtfs-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractZip(zipPath, tempDir); err != nil {
		return nil, nil, fmt.Errorf("failed to extract zip: %w", err)
	}

	return ParseGTFSDir(feedID, tempDir)
}

// ParseGTFSDir parses an already-extracted GTFS directory.
func ParseGTFSDir(feedID, dir string) (*StaticFeed, *StaticTransfers, error) {
	feed := &StaticFeed{id: feedID, calendar: newServiceCalendar()}

	stops, err := parseStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse stops (required): %w", err)
	}
	feed.stops = stops
	log.Printf("parsed %d stops", len(stops))

	routes, err := parseRoutes(filepath.Join(dir, "routes.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse routes (required): %w", err)
	}
	feed.routes = routes
	log.Printf("parsed %d routes", len(routes))

	trips, err := parseTrips(filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse trips (required): %w", err)
	}
	feed.trips = trips
	log.Printf("parsed %d trips", len(trips))

	stopTimes, err := parseStopTimes(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse stop_times (required): %w", err)
	}
	log.Printf("parsed %d stop_times", len(stopTimes))
	feed.stopTimes = groupAndInterpolate(stopTimes)

	if agencies, err := parseAgencies(filepath.Join(dir, "agency.txt")); err == nil {
		feed.agencies = agencies
		log.Printf("parsed %d agencies", len(agencies))
	} else {
		log.Printf("warning: failed to parse agency.txt: %v", err)
	}

	if freqs, err := parseFrequencies(filepath.Join(dir, "frequencies.txt")); err == nil {
		feed.frequencies = freqs
		log.Printf("parsed %d frequencies", len(freqs))
	} else {
		log.Printf("frequencies.txt not present or unparsable: %v", err)
	}

	if err := parseCalendar(filepath.Join(dir, "calendar.txt"), feed.calendar); err != nil {
		log.Printf("calendar.txt not present or unparsable: %v", err)
	}
	if err := parseCalendarDates(filepath.Join(dir, "calendar_dates.txt"), feed.calendar); err != nil {
		log.Printf("calendar_dates.txt not present or unparsable: %v", err)
	}
	feed.startDate, feed.endDate = feed.calendar.dateRange()

	transfers := &StaticTransfers{
		toStop:              make(map[string][]Transfer),
		fromStop:            make(map[string][]Transfer),
		routeSpecificAtStop: make(map[string]bool),
	}
	if rows, err := parseTransfers(filepath.Join(dir, "transfers.txt")); err == nil {
		for _, tr := range rows {
			transfers.toStop[tr.ToStopID] = append(transfers.toStop[tr.ToStopID], tr)
			transfers.fromStop[tr.FromStopID] = append(transfers.fromStop[tr.FromStopID], tr)
			if tr.ToRouteID != "" {
				transfers.routeSpecificAtStop[tr.ToStopID] = true
			}
		}
		log.Printf("parsed %d transfers", len(rows))
	} else {
		log.Printf("transfers.txt not present or unparsable: %v", err)
	}

	return feed, transfers, nil
}

func groupAndInterpolate(raw []StopTime) map[string][]StopTime {
	byTrip := make(map[string][]StopTime)
	for _, st := range raw {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}
	for tripID, times := range byTrip {
		sort.Slice(times, func(i, j int) bool { return times[i].StopSequence < times[j].StopSequence })
		byTrip[tripID] = InterpolateStopTimes(times)
	}
	return byTrip
}

func parseStops(path string) ([]Stop, error) {
	return readCSV(path, func(rec []string, col map[string]int) (Stop, bool, error) {
		stopID := getField(rec, col, "stop_id")
		latStr := getField(rec, col, "stop_lat")
		lonStr := getField(rec, col, "stop_lon")
		if stopID == "" || latStr == "" || lonStr == "" {
			return Stop{}, false, nil
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return Stop{}, false, nil
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return Stop{}, false, nil
		}
		locType := 0
		if lt := getField(rec, col, "location_type"); lt != "" {
			locType, _ = strconv.Atoi(lt)
		}
		return Stop{StopID: stopID, StopLat: lat, StopLon: lon, LocationType: locType}, true, nil
	})
}

func parseRoutes(path string) ([]Route, error) {
	return readCSV(path, func(rec []string, col map[string]int) (Route, bool, error) {
		routeID := getField(rec, col, "route_id")
		if routeID == "" {
			return Route{}, false, nil
		}
		routeType, _ := strconv.Atoi(getField(rec, col, "route_type"))
		return Route{RouteID: routeID, RouteType: routeType, AgencyID: getField(rec, col, "agency_id")}, true, nil
	})
}

func parseTrips(path string) ([]Trip, error) {
	return readCSV(path, func(rec []string, col map[string]int) (Trip, bool, error) {
		tripID := getField(rec, col, "trip_id")
		routeID := getField(rec, col, "route_id")
		if tripID == "" || routeID == "" {
			return Trip{}, false, nil
		}
		return Trip{
			TripID:    tripID,
			RouteID:   routeID,
			BlockID:   getField(rec, col, "block_id"),
			ServiceID: getField(rec, col, "service_id"),
		}, true, nil
	})
}

func parseStopTimes(path string) ([]StopTime, error) {
	return readCSV(path, func(rec []string, col map[string]int) (StopTime, bool, error) {
		tripID := getField(rec, col, "trip_id")
		stopID := getField(rec, col, "stop_id")
		seqStr := getField(rec, col, "stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			return StopTime{}, false, nil
		}
		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			return StopTime{}, false, nil
		}
		arr, arrErr := ParseTimeToSeconds(getField(rec, col, "arrival_time"))
		dep, depErr := ParseTimeToSeconds(getField(rec, col, "departure_time"))
		st := StopTime{TripID: tripID, StopID: stopID, StopSequence: seq}
		if arrErr == nil {
			st.ArrivalTime = arr
		} else {
			st.ArrivalTime = -1
		}
		if depErr == nil {
			st.DepartureTime = dep
		} else {
			st.DepartureTime = -1
		}
		return st, true, nil
	})
}

func parseAgencies(path string) ([]Agency, error) {
	return readCSV(path, func(rec []string, col map[string]int) (Agency, bool, error) {
		return Agency{
			AgencyID: getField(rec, col, "agency_id"),
			Timezone: getField(rec, col, "agency_timezone"),
		}, true, nil
	})
}

func parseFrequencies(path string) ([]Frequency, error) {
	return readCSV(path, func(rec []string, col map[string]int) (Frequency, bool, error) {
		tripID := getField(rec, col, "trip_id")
		if tripID == "" {
			return Frequency{}, false, nil
		}
		start, err1 := ParseTimeToSeconds(getField(rec, col, "start_time"))
		end, err2 := ParseTimeToSeconds(getField(rec, col, "end_time"))
		headway, _ := strconv.Atoi(getField(rec, col, "headway_secs"))
		if err1 != nil || err2 != nil {
			return Frequency{}, false, nil
		}
		return Frequency{
			TripID:      tripID,
			StartTime:   start,
			EndTime:     end,
			HeadwaySecs: headway,
			ExactTimes:  getField(rec, col, "exact_times") == "1",
		}, true, nil
	})
}

func parseTransfers(path string) ([]Transfer, error) {
	return readCSV(path, func(rec []string, col map[string]int) (Transfer, bool, error) {
		fromStop := getField(rec, col, "from_stop_id")
		toStop := getField(rec, col, "to_stop_id")
		if fromStop == "" || toStop == "" {
			return Transfer{}, false, nil
		}
		minT, _ := strconv.Atoi(getField(rec, col, "min_transfer_time"))
		return Transfer{
			FromStopID:       fromStop,
			FromRouteID:      getField(rec, col, "from_route_id"),
			ToStopID:         toStop,
			ToRouteID:        getField(rec, col, "to_route_id"),
			MinTransferTimeS: minT,
		}, true, nil
	})
}

func parseCalendar(path string, cal *serviceCalendar) error {
	rows, err := readCSV(path, func(rec []string, col map[string]int) (calendarRow, bool, error) {
		serviceID := getField(rec, col, "service_id")
		if serviceID == "" {
			return calendarRow{}, false, nil
		}
		start, err1 := parseGTFSDate(getField(rec, col, "start_date"))
		end, err2 := parseGTFSDate(getField(rec, col, "end_date"))
		if err1 != nil || err2 != nil {
			return calendarRow{}, false, nil
		}
		day := func(name string) bool { return getField(rec, col, name) == "1" }
		return calendarRow{
			serviceID: serviceID,
			weekday: [7]bool{
				day("monday"), day("tuesday"), day("wednesday"), day("thursday"),
				day("friday"), day("saturday"), day("sunday"),
			},
			startDate: start,
			endDate:   end,
		}, true, nil
	})
	if err != nil {
		return err
	}
	for _, r := range rows {
		cal.addCalendarRow(r)
	}
	return nil
}

func parseCalendarDates(path string, cal *serviceCalendar) error {
	rows, err := readCSV(path, func(rec []string, col map[string]int) (calendarException, bool, error) {
		serviceID := getField(rec, col, "service_id")
		date, err := parseGTFSDate(getField(rec, col, "date"))
		if serviceID == "" || err != nil {
			return calendarException{}, false, nil
		}
		return calendarException{
			serviceID: serviceID,
			date:      date,
			added:     getField(rec, col, "exception_type") == "1",
		}, true, nil
	})
	if err != nil {
		return err
	}
	for _, e := range rows {
		cal.addException(e)
	}
	return nil
}

func parseGTFSDate(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("invalid GTFS date: %q", s)
	}
	return time.Parse("20060102", s)
}

// readCSV opens path, reads its header, and calls parseRow for every data
// record, skipping malformed rows with a warning, exactly as the teacher's
// per-file parse functions do.
func readCSV[T any](path string, parseRow func(rec []string, col map[string]int) (T, bool, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := makeColumnMap(header)

	var out []T
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping malformed row in %s: %v", filepath.Base(path), err)
			continue
		}
		row, ok, err := parseRow(rec, col)
		if err != nil {
			log.Printf("warning: skipping row in %s: %v", filepath.Base(path), err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func makeColumnMap(header []string) map[string]int {
	col := make(map[string]int)
	for i, c := range header {
		col[strings.TrimSpace(c)] = i
	}
	return col
}

func getField(record []string, col map[string]int, name string) string {
	if idx, ok := col[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
