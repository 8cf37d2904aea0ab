// Package gtfs ingests a static GTFS feed into the Feed and Transfers
// collaborator interfaces spec.md §6 names, grounded on the teacher's
// internal/gtfs (ParseGTFSZip + CSV helpers) and internal/graph/builder.go
// (SQL-backed alternative, see postgres.go).
package gtfs

import "time"

// Feed is the external collaborator spec.md §6 describes: read-only access
// to a parsed GTFS feed.
type Feed interface {
	ID() string
	Stops() []Stop
	Routes() []Route
	Trips() []Trip
	Agencies() []Agency
	Frequencies() []Frequency
	// ServiceIsActive reports whether serviceID runs on date, resolved
	// from calendar.txt + calendar_dates.txt.
	ServiceIsActive(serviceID string, date time.Time) bool
	// StartDate and EndDate bound the feed's calendar window (spec.md §3's
	// feed_start_date used when interning Validity).
	StartDate() time.Time
	EndDate() time.Time
	// InterpolatedStopTimesForTrip returns tripID's stop_times in
	// stop_sequence order, with any missing arrival/departure times filled
	// in (spec.md §4.2 requires trip materialization to see a fully dense
	// stop_times sequence).
	InterpolatedStopTimesForTrip(tripID string) []StopTime
}

// Transfers is the external collaborator spec.md §6 describes for GTFS
// transfers.txt rows.
type Transfers interface {
	// HasNoRouteSpecificDepartureTransferRules reports whether stopID is
	// never named as a to_stop_id by a row that also names a to_route_id
	// — spec.md §4/§9's discriminator between RouteTypePlatform and
	// RoutePlatform.
	HasNoRouteSpecificDepartureTransferRules(stopID string) bool
	GetTransfersToStop(stopID string) []Transfer
	GetTransfersFromStop(stopID string) []Transfer
}

// Re-exported row types. These mirror internal/models but stay local to
// the gtfs package boundary so Feed/Transfers implementations (CSV,
// Postgres, or a test fixture) only need to satisfy one small surface.
type (
	Stop struct {
		StopID       string
		StopLat      float64
		StopLon      float64
		LocationType int
	}
	Route struct {
		RouteID   string
		RouteType int
		AgencyID  string
	}
	Trip struct {
		TripID    string
		RouteID   string
		BlockID   string
		ServiceID string
	}
	StopTime struct {
		TripID        string
		StopSequence  int
		StopID        string
		ArrivalTime   int
		DepartureTime int
	}
	Frequency struct {
		TripID      string
		StartTime   int
		EndTime     int
		HeadwaySecs int
		ExactTimes  bool
	}
	Agency struct {
		AgencyID string
		Timezone string
	}
	Transfer struct {
		FromStopID       string
		FromRouteID      string
		ToStopID         string
		ToRouteID        string
		MinTransferTimeS int
	}
)
