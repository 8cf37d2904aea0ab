// Package models holds the GTFS-level and graph-level data types spec.md §3
// defines. It has no behavior of its own; types that need operations (the
// validity bitset, platform descriptors, ordered timelines) live in their
// own packages and are referenced here as plain fields.
package models

import "time"

// LocationType mirrors the GTFS stops.txt location_type column. Only
// LocationStop stops participate in the compiler (spec.md §3).
type LocationType int

const (
	LocationStop    LocationType = 0
	LocationStation LocationType = 1
)

// Stop is the immutable input record spec.md §3 describes.
type Stop struct {
	StopID       string
	StopLat      float64
	StopLon      float64
	LocationType LocationType
}

// Route is a GTFS route.
type Route struct {
	RouteID   string
	RouteType int
	AgencyID  string
}

// Trip is a GTFS trip.
type Trip struct {
	TripID    string
	RouteID   string
	BlockID   string // empty means "no block"
	ServiceID string
}

// StopTime is one (trip_id, stop_sequence) -> stop_id row. Times are
// measured in seconds from service-day noon minus 12h, per spec.md §3: a
// value >= 86400 denotes a same-service-day next-calendar-day event.
type StopTime struct {
	TripID        string
	StopSequence  int
	StopID        string
	ArrivalTime   int
	DepartureTime int
}

// Frequency is a GTFS frequencies.txt row: trips in [StartTime, EndTime)
// are repeated every HeadwaySecs seconds.
type Frequency struct {
	TripID      string
	StartTime   int
	EndTime     int
	HeadwaySecs int
	ExactTimes  bool
}

// Agency is a GTFS agency, used to resolve a trip's IANA timezone via its
// route's AgencyID.
type Agency struct {
	AgencyID string
	Timezone string
}

// TransferRule is a single GTFS transfers.txt row. FromRouteID/ToRouteID are
// empty when the row does not name a route.
type TransferRule struct {
	FromStopID        string
	FromRouteID       string
	ToStopID          string
	ToRouteID         string
	MinTransferTimeS  int
}

// Service resolves a service_id to the set of calendar dates it is active
// on. Implementations are expected to evaluate calendar.txt +
// calendar_dates.txt exceptions once and answer ActiveOn from a precomputed
// set.
type Service interface {
	ActiveOn(date time.Time) bool
}

// EdgeType is the closed enumeration of edge kinds spec.md §3 defines.
type EdgeType int

const (
	EnterPT EdgeType = iota
	ExitPT
	EnterTimeExpandedNetwork
	LeaveTimeExpandedNetwork
	Wait
	WaitArrival
	Overnight
	Board
	Alight
	Dwell
	Hop
	Transfer
)

func (t EdgeType) String() string {
	switch t {
	case EnterPT:
		return "ENTER_PT"
	case ExitPT:
		return "EXIT_PT"
	case EnterTimeExpandedNetwork:
		return "ENTER_TIME_EXPANDED_NETWORK"
	case LeaveTimeExpandedNetwork:
		return "LEAVE_TIME_EXPANDED_NETWORK"
	case Wait:
		return "WAIT"
	case WaitArrival:
		return "WAIT_ARRIVAL"
	case Overnight:
		return "OVERNIGHT"
	case Board:
		return "BOARD"
	case Alight:
		return "ALIGHT"
	case Dwell:
		return "DWELL"
	case Hop:
		return "HOP"
	case Transfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// EdgeAttrs is the attribute bundle stored on every edge the compiler
// creates (spec.md §3 "Edge attributes").
type EdgeAttrs struct {
	Access     bool // always true: all PT edges are forward-only
	Type       EdgeType
	Time       int // seconds
	ValidityID int // interned Validity or FeedIdWithTimezone id, depending on Type
	Transfers  int // 0 or 1; 1 on BOARD edges
	Distance   float64 // meters; 0 on every non-HOP transit edge
}

// TripDescriptor is the serialized trip reference stored in
// trip_descriptors for BOARD/ALIGHT edges (spec.md §3).
type TripDescriptor struct {
	FeedID string
	TripID string
}

// BuildReport summarizes one compiler run, mirroring the teacher's
// ImportLog (internal/models.ImportLog in the original passbi_core):
// counts and timing an operator would want logged and returned from an API
// call, not part of the graph itself (see SPEC_FULL.md "Supplemented
// Features").
type BuildReport struct {
	RunID              string
	StartedAt          time.Time
	Duration           time.Duration
	StopsConnected     int
	StandaloneStops    int
	TripsEmitted       int
	BlocksEmitted      int
	EdgesByType        map[EdgeType]int
	OperatingDayPatterns int
	TimeZonesInterned  int
}
