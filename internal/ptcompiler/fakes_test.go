package ptcompiler

import (
	"time"

	"github.com/passbi/gtfsgraph/internal/gtfs"
)

// fakeFeed is a minimal in-memory gtfs.Feed test double: every service runs
// every day in [start, end] unless explicitly excluded, which is enough to
// exercise the compiler's trip materialization and wiring logic without
// parsing real GTFS files.
type fakeFeed struct {
	feedID      string
	stops       []gtfs.Stop
	routes      []gtfs.Route
	trips       []gtfs.Trip
	agencies    []gtfs.Agency
	frequencies []gtfs.Frequency
	stopTimes   map[string][]gtfs.StopTime
	start, end  time.Time
	inactive    map[string]bool // serviceID -> never active, for testing gaps
}

func newFakeFeed(feedID string) *fakeFeed {
	return &fakeFeed{
		feedID:    feedID,
		stopTimes: make(map[string][]gtfs.StopTime),
		start:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), // a Monday
		end:       time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		inactive:  make(map[string]bool),
	}
}

func (f *fakeFeed) ID() string                   { return f.feedID }
func (f *fakeFeed) Stops() []gtfs.Stop           { return f.stops }
func (f *fakeFeed) Routes() []gtfs.Route         { return f.routes }
func (f *fakeFeed) Trips() []gtfs.Trip           { return f.trips }
func (f *fakeFeed) Agencies() []gtfs.Agency      { return f.agencies }
func (f *fakeFeed) Frequencies() []gtfs.Frequency { return f.frequencies }
func (f *fakeFeed) StartDate() time.Time         { return f.start }
func (f *fakeFeed) EndDate() time.Time           { return f.end }

func (f *fakeFeed) ServiceIsActive(serviceID string, date time.Time) bool {
	if f.inactive[serviceID] {
		return false
	}
	return !date.Before(f.start) && !date.After(f.end)
}

func (f *fakeFeed) InterpolatedStopTimesForTrip(tripID string) []gtfs.StopTime {
	return f.stopTimes[tripID]
}

// fakeTransfers treats every stop as RouteType-keyed unless explicitly
// marked route-specific, and serves whatever rows were registered.
type fakeTransfers struct {
	routeSpecific map[string]bool
	toStop        map[string][]gtfs.Transfer
	fromStop      map[string][]gtfs.Transfer
}

func newFakeTransfers() *fakeTransfers {
	return &fakeTransfers{
		routeSpecific: make(map[string]bool),
		toStop:        make(map[string][]gtfs.Transfer),
		fromStop:      make(map[string][]gtfs.Transfer),
	}
}

func (t *fakeTransfers) HasNoRouteSpecificDepartureTransferRules(stopID string) bool {
	return !t.routeSpecific[stopID]
}

func (t *fakeTransfers) GetTransfersToStop(stopID string) []gtfs.Transfer {
	return t.toStop[stopID]
}

func (t *fakeTransfers) GetTransfersFromStop(stopID string) []gtfs.Transfer {
	return t.fromStop[stopID]
}

func (t *fakeTransfers) addRow(row gtfs.Transfer) {
	t.toStop[row.ToStopID] = append(t.toStop[row.ToStopID], row)
	t.fromStop[row.FromStopID] = append(t.fromStop[row.FromStopID], row)
	if row.ToRouteID != "" {
		t.routeSpecific[row.ToStopID] = true
	}
}
