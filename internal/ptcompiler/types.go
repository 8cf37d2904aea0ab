// Package ptcompiler is the core of the compiler: it turns a parsed GTFS
// feed plus a pedestrian street network into a time-expanded graph, via
// the pipeline ConnectStopsToStreetNetwork -> CreateTrips -> WireUpStops ->
// InsertGtfsTransfers (Compile orchestrates all four). Grounded on the
// teacher's internal/graph (Builder/InMemoryGraph) for the overall
// "build a graph against a store" shape, and on internal/routing/astar.go
// for the label-chain reconstruction idiom (reconstruct.go).
package ptcompiler

import (
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/platform"
	"github.com/passbi/gtfsgraph/internal/timeline"
)

// Side tables spec.md §3 names alongside the graph itself. None of these
// are optional bookkeeping: WireUpStops, InsertGtfsTransfers, and the
// realtime injector all read them back.
type sideTables struct {
	// stationNodes maps a GTFS stop_id to the node representing its
	// street-network entry/exit point (spec.md §4.1).
	stationNodes map[string]graphstore.NodeID

	// departureTimelines and arrivalTimelines are the two sibling ordered
	// maps spec.md §3 names per platform descriptor: one second_of_day ->
	// node_id map for departures, one for arrivals. A stop with zero dwell
	// shares one physical node between both maps at that key; a stop with
	// nonzero dwell allocates two distinct nodes (one per map).
	departureTimelines map[platform.Descriptor]*timeline.Timeline
	arrivalTimelines    map[platform.Descriptor]*timeline.Timeline

	// platformDescriptorByEdge records which platform an ENTER_PT, EXIT_PT,
	// or TRANSFER edge belongs to, keyed by the edge itself (spec.md §3
	// invariant 3). Reconstruction reads this to recover an edge's
	// feed_id; BOARD/ALIGHT edges get their feed_id from tripDescriptors
	// instead, so they are never written here.
	platformDescriptorByEdge map[graphstore.EdgeID]platform.Descriptor

	// stopSequences gives each trip's stop_id sequence in GTFS
	// stop_sequence order, used by the realtime injector's stop-time lookup
	// (spec.md §4.4 step 1).
	stopSequences map[tripKey][]string

	// tripRouteID records each trip's route_id, so later lookups (the
	// realtime injector) can always build a RoutePlatform(stop, route)
	// descriptor without re-deriving it from the feed.
	tripRouteID map[tripKey]string

	// tripDescriptors maps a trip key to its serialized descriptor, read by
	// path reconstruction to label BOARD/ALIGHT transitions.
	tripDescriptors map[tripKey]models.TripDescriptor

	// boardEdgesForTrip and alightEdgesForTrip record, per trip, the
	// BOARD edge entering the vehicle and the ALIGHT edge leaving it at
	// each stop_sequence position — the realtime injector and
	// reconstruction both need to find these by trip + position.
	boardEdgesForTrip  map[tripKey][]graphstore.EdgeID
	alightEdgesForTrip map[tripKey][]graphstore.EdgeID

	// onBoardNode records, per trip + stop_sequence position, the
	// "inside the vehicle at stop i" node HOP edges run between.
	onBoardNode map[tripKey][]graphstore.NodeID
}

// tripKey identifies one trip within one feed.
type tripKey struct {
	FeedID string
	TripID string
}

func newSideTables() *sideTables {
	return &sideTables{
		stationNodes:             make(map[string]graphstore.NodeID),
		departureTimelines:       make(map[platform.Descriptor]*timeline.Timeline),
		arrivalTimelines:         make(map[platform.Descriptor]*timeline.Timeline),
		platformDescriptorByEdge: make(map[graphstore.EdgeID]platform.Descriptor),
		stopSequences:            make(map[tripKey][]string),
		tripRouteID:              make(map[tripKey]string),
		tripDescriptors:          make(map[tripKey]models.TripDescriptor),
		boardEdgesForTrip:        make(map[tripKey][]graphstore.EdgeID),
		alightEdgesForTrip:       make(map[tripKey][]graphstore.EdgeID),
		onBoardNode:              make(map[tripKey][]graphstore.NodeID),
	}
}

func (s *sideTables) departureTimelineFor(d platform.Descriptor) *timeline.Timeline {
	tl, ok := s.departureTimelines[d]
	if !ok {
		tl = timeline.New()
		s.departureTimelines[d] = tl
	}
	return tl
}

func (s *sideTables) arrivalTimelineFor(d platform.Descriptor) *timeline.Timeline {
	tl, ok := s.arrivalTimelines[d]
	if !ok {
		tl = timeline.New()
		s.arrivalTimelines[d] = tl
	}
	return tl
}

// platformDescriptors returns every platform descriptor that has at least
// one departure or arrival entry, deduplicated across both maps.
func (s *sideTables) platformDescriptors() []platform.Descriptor {
	seen := make(map[platform.Descriptor]bool, len(s.departureTimelines)+len(s.arrivalTimelines))
	var out []platform.Descriptor
	for d := range s.departureTimelines {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for d := range s.arrivalTimelines {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
