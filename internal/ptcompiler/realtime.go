package ptcompiler

import (
	"fmt"
	"time"

	"github.com/passbi/gtfsgraph/internal/bitset"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/interning"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/platform"
	"github.com/passbi/gtfsgraph/internal/timeline"
)

// DelayedBoarding describes a single realtime-adjusted boarding event:
// trip (FeedID, TripID) is now expected to depart its stop_sequence-th stop
// at second ActualDepartureSecond (possibly ≥86400, spilling into the next
// calendar day) on the calendar day ServiceDate, instead of its scheduled
// time.
type DelayedBoarding struct {
	FeedID                string
	TripID                string
	StopSequence          int
	ActualDepartureSecond int
	ServiceDate           time.Time
}

// AddDelayedBoardEdge implements spec.md §4.4: stitch an ad-hoc boarding
// into an already-compiled timeline without touching the static schedule
// graph.
//  1. Look up the stop_id recorded for this trip at stop_sequence (the
//     caller names a position, not a stop, precisely so this lookup is
//     authoritative rather than trusting a possibly-stale caller-supplied
//     stop id).
//  2. Ensure/allocate a timeline node on that platform's departure
//     timeline at departure_time mod 86400 — the platform is always
//     RoutePlatform(stop, route), resolved from the trip's own recorded
//     route rather than guessed from a route_type fallback.
//  3. Intern a single-day Validity, day-shifted by
//     ActualDepartureSecond/86400 per invariant 5.
//  4. Emit BOARD timeline_node -> onboard_node with transfers=1.
//
// Riders already modeled in the static graph are unaffected; only a query
// landing at the new node sees the delay.
func AddDelayedBoardEdge(g graphstore.Graph, storage *interning.Storage, tables *sideTables, feed gtfs.Feed, b DelayedBoarding) (graphstore.EdgeID, error) {
	key := tripKey{FeedID: b.FeedID, TripID: b.TripID}
	onboard, ok := tables.onBoardNode[key]
	if !ok {
		return 0, fmt.Errorf("add delayed board edge: trip %s/%s not found in compiled graph", b.FeedID, b.TripID)
	}
	if b.StopSequence < 0 || b.StopSequence >= len(onboard) {
		return 0, fmt.Errorf("add delayed board edge: stop_sequence %d out of range for trip %s/%s", b.StopSequence, b.FeedID, b.TripID)
	}

	stopIDs, ok := tables.stopSequences[key]
	if !ok || b.StopSequence >= len(stopIDs) {
		return 0, fmt.Errorf("add delayed board edge: no stop_time recorded for %s/%s at stop_sequence %d", b.FeedID, b.TripID, b.StopSequence)
	}
	stopID := stopIDs[b.StopSequence]

	routeID, ok := tables.tripRouteID[key]
	if !ok {
		return 0, fmt.Errorf("add delayed board edge: no route recorded for trip %s/%s", b.FeedID, b.TripID)
	}

	desc := platform.NewRoute(b.FeedID, stopID, routeID)
	tl := tables.departureTimelineFor(desc)

	timelineKey := b.ActualDepartureSecond % secondsPerDay
	node := tl.GetOrInsert(timelineKey, func() timeline.NodeID {
		return timeline.NodeID(g.CreateNode(0, 0))
	})

	days := feedDayCount(feed)
	bits := bitset.New(days)
	dayIndex := int(b.ServiceDate.Sub(feed.StartDate()).Hours() / 24)
	if dayIndex >= 0 && dayIndex < days {
		bits.Set(dayIndex)
	}
	if dayShift := b.ActualDepartureSecond / secondsPerDay; dayShift > 0 {
		bits = bits.ShiftLeftBy(dayShift)
	}

	zoneID := resolveZoneID(feed)
	validityID := storage.InternValidity(interning.Validity{
		Bits:          bits,
		ZoneID:        zoneID,
		FeedStartDate: feed.StartDate().Format("20060102"),
	})

	onboardNode := onboard[b.StopSequence]
	edge := g.CreateEdge(graphstore.NodeID(node), onboardNode)
	g.SetEdgeAttrs(edge, models.EdgeAttrs{Access: true, Type: models.Board, ValidityID: validityID, Transfers: 1})
	tables.boardEdgesForTrip[key] = append(tables.boardEdgesForTrip[key], edge)

	return edge, nil
}
