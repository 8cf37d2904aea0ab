package ptcompiler

import (
	"fmt"
	"sort"
	"time"

	"github.com/passbi/gtfsgraph/internal/bitset"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/interning"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/platform"
	"github.com/passbi/gtfsgraph/internal/timeline"
)

// blockFrequencyMismatchMsg is the fatal condition spec.md §4.2 step 6
// names: a block whose trips don't all share the exact same
// frequencies.txt repetition schedule can't be expanded into one coherent
// set of vehicle realizations, so the build aborts rather than guess.
const blockFrequencyMismatchMsg = "Found a block with frequency-based trips. Not supported."

// tripInstance is one materialized run of a trip: either the trip itself,
// or one repetition generated from a frequencies.txt entry (spec.md §4.2).
type tripInstance struct {
	feedID    string
	tripID    string // synthesized as "<trip_id>#<n>" for frequency repetitions
	routeID   string
	routeType int
	blockID   string
	repIdx    int // repetition index within this trip's own frequency expansion
	stopIDs   []string
	arrivals  []int // seconds, same length as stopIDs
	departs   []int
	validity  *bitset.Set
}

// createTripsResult summarizes the materializer's pass.
type createTripsResult struct {
	tripsEmitted  int
	blocksEmitted int
}

// createTrips implements spec.md §4.2. Standalone trips (no block_id) are
// expanded and emitted independently. Trips sharing a block_id are
// expanded together: spec.md §4.2 steps 3/5/6 require every trip in a
// block to carry an identical frequencies.txt schedule (including the
// trivial all-empty case) before it can be treated as one set of vehicle
// realizations — a block whose trips disagree fails the build rather than
// silently dropping block-transfer wiring. Each trip's Validity bitset is
// day-shifted per invariant 5, then BOARD/HOP/ALIGHT/DWELL edges are
// emitted against each stop's platform timelines, and finally block-level
// in-vehicle continuation is wired per §4.3.3, one HOP per matching
// same-realization pair.
func createTrips(g graphstore.Graph, feed gtfs.Feed, transfers gtfs.Transfers, storage *interning.Storage, tables *sideTables) (createTripsResult, error) {
	var res createTripsResult

	days := feedDayCount(feed)
	zoneID := resolveZoneID(feed)

	routeTypeByID := make(map[string]int)
	for _, r := range feed.Routes() {
		routeTypeByID[r.RouteID] = r.RouteType
	}

	tripsByBlock := make(map[string][]gtfs.Trip)
	var standalone []gtfs.Trip
	for _, trip := range feed.Trips() {
		if trip.BlockID == "" {
			standalone = append(standalone, trip)
			continue
		}
		tripsByBlock[trip.BlockID] = append(tripsByBlock[trip.BlockID], trip)
	}

	materialize := func(trip gtfs.Trip) []tripInstance {
		rawTimes := feed.InterpolatedStopTimesForTrip(trip.TripID)
		if len(rawTimes) < 2 {
			return nil
		}
		sort.Slice(rawTimes, func(i, j int) bool { return rawTimes[i].StopSequence < rawTimes[j].StopSequence })

		instances := expandFrequencies(trip, rawTimes, frequenciesForTrip(feed, trip.TripID))
		validityBits := serviceValidityBits(feed, trip.ServiceID, days)

		for idx := range instances {
			inst := &instances[idx]
			inst.feedID = feed.ID()
			inst.routeID = trip.RouteID
			inst.routeType = routeTypeByID[trip.RouteID]
			inst.blockID = trip.BlockID

			shifted := validityBits.Clone()
			if inst.departs[0] >= secondsPerDay {
				shifted = shifted.ShiftLeftBy(1)
			}
			inst.validity = shifted
			validityID := storage.InternValidity(interning.Validity{
				Bits:          shifted,
				ZoneID:        zoneID,
				FeedStartDate: feed.StartDate().Format("20060102"),
			})

			emitTripEdges(g, transfers, tables, *inst, validityID)
			res.tripsEmitted++

			key := tripKey{FeedID: inst.feedID, TripID: inst.tripID}
			tables.stopSequences[key] = inst.stopIDs
			tables.tripRouteID[key] = inst.routeID
		}
		return instances
	}

	for _, trip := range standalone {
		materialize(trip)
	}

	blockRealizations := make(map[string]map[int][]tripInstance)
	for blockID, blockTrips := range tripsByBlock {
		if err := validateBlockFrequencies(feed, blockTrips); err != nil {
			return res, err
		}
		for _, trip := range blockTrips {
			for _, inst := range materialize(trip) {
				if blockRealizations[blockID] == nil {
					blockRealizations[blockID] = make(map[int][]tripInstance)
				}
				blockRealizations[blockID][inst.repIdx] = append(blockRealizations[blockID][inst.repIdx], inst)
			}
		}
	}

	res.blocksEmitted = wireBlockTransfers(g, storage, tables, blockRealizations, zoneID, feed.StartDate())

	return res, nil
}

// frequencySignature reduces a trip's frequencies.txt rows to the values
// that matter for block-compatibility comparison, in feed order.
type frequencySignature struct {
	startTime   int
	endTime     int
	headwaySecs int
}

func frequencySignatureOf(freqs []gtfs.Frequency) []frequencySignature {
	sig := make([]frequencySignature, len(freqs))
	for i, f := range freqs {
		sig[i] = frequencySignature{startTime: f.StartTime, endTime: f.EndTime, headwaySecs: f.HeadwaySecs}
	}
	return sig
}

func sameFrequencySignature(a, b []frequencySignature) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validateBlockFrequencies fails the build when a block's trips don't all
// carry the exact same frequencies.txt schedule (an empty schedule counts
// as a schedule too, so a block mixing frequency-based and plain
// schedule-based trips is rejected the same way as one mixing two
// different frequency schedules).
func validateBlockFrequencies(feed gtfs.Feed, trips []gtfs.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	want := frequencySignatureOf(frequenciesForTrip(feed, trips[0].TripID))
	for _, trip := range trips[1:] {
		got := frequencySignatureOf(frequenciesForTrip(feed, trip.TripID))
		if !sameFrequencySignature(want, got) {
			return fmt.Errorf("%s (block_id=%s)", blockFrequencyMismatchMsg, trips[0].BlockID)
		}
	}
	return nil
}

// expandFrequencies returns one tripInstance per frequencies.txt
// repetition, or a single instance carrying the trip's own stop_times if
// no frequency row applies to it. repIdx identifies a repetition's
// position so same-block trips can later be grouped by realization
// (spec.md §4.2 step 6).
func expandFrequencies(trip gtfs.Trip, times []gtfs.StopTime, freqs []gtfs.Frequency) []tripInstance {
	stopIDs := make([]string, len(times))
	arrivals := make([]int, len(times))
	departs := make([]int, len(times))
	for i, t := range times {
		stopIDs[i] = t.StopID
		arrivals[i] = t.ArrivalTime
		departs[i] = t.DepartureTime
	}

	if len(freqs) == 0 {
		return []tripInstance{{tripID: trip.TripID, stopIDs: stopIDs, arrivals: arrivals, departs: departs}}
	}

	baseStart := departs[0]
	var out []tripInstance
	n := 0
	for _, f := range freqs {
		for start := f.StartTime; start < f.EndTime; start += f.HeadwaySecs {
			offset := start - baseStart
			inst := tripInstance{
				tripID:  syntheticTripID(trip.TripID, n),
				repIdx:  n,
				stopIDs: append([]string(nil), stopIDs...),
			}
			inst.arrivals = make([]int, len(arrivals))
			inst.departs = make([]int, len(departs))
			for i := range arrivals {
				inst.arrivals[i] = arrivals[i] + offset
				inst.departs[i] = departs[i] + offset
			}
			out = append(out, inst)
			n++
			if f.HeadwaySecs <= 0 {
				break // guard against a malformed zero headway looping forever
			}
		}
	}
	return out
}

func syntheticTripID(base string, n int) string {
	return base + "#" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func frequenciesForTrip(feed gtfs.Feed, tripID string) []gtfs.Frequency {
	var out []gtfs.Frequency
	for _, f := range feed.Frequencies() {
		if f.TripID == tripID {
			out = append(out, f)
		}
	}
	return out
}

// feedDayCount returns the number of calendar days spanned by the feed's
// [StartDate, EndDate] window, the width of every interned Validity
// bitset.
func feedDayCount(feed gtfs.Feed) int {
	start, end := feed.StartDate(), feed.EndDate()
	if end.Before(start) {
		return 1
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// serviceValidityBits builds the per-day bitset for serviceID over the
// feed's calendar window, one bit per day in chronological order.
func serviceValidityBits(feed gtfs.Feed, serviceID string, days int) *bitset.Set {
	bits := bitset.New(days)
	start := feed.StartDate()
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		if feed.ServiceIsActive(serviceID, day) {
			bits.Set(i)
		}
	}
	return bits
}

// resolveZoneID picks the feed's IANA timezone from its first agency,
// falling back to UTC when the feed carries no agency.txt.
func resolveZoneID(feed gtfs.Feed) string {
	for _, a := range feed.Agencies() {
		if a.Timezone != "" {
			return a.Timezone
		}
	}
	return "UTC"
}

// emitTripEdges wires one trip instance's BOARD/HOP/ALIGHT/DWELL edges
// against each touched stop's departure and arrival platform timelines.
func emitTripEdges(g graphstore.Graph, transfers gtfs.Transfers, tables *sideTables, inst tripInstance, validityID int) {
	onboard := make([]graphstore.NodeID, len(inst.stopIDs))
	key := tripKey{FeedID: inst.feedID, TripID: inst.tripID}

	tables.tripDescriptors[key] = models.TripDescriptor{FeedID: inst.feedID, TripID: inst.tripID}

	for i, stopID := range inst.stopIDs {
		desc := platformDescriptorFor(transfers, inst.feedID, stopID, inst.routeID, inst.routeType)
		depTL := tables.departureTimelineFor(desc)
		arrTL := tables.arrivalTimelineFor(desc)

		depNode := depTL.GetOrInsert(inst.departs[i]%secondsPerDay, func() timeline.NodeID {
			return timeline.NodeID(g.CreateNode(0, 0))
		})

		var arrNode timeline.NodeID
		if inst.arrivals[i] == inst.departs[i] {
			arrNode = arrTL.GetOrInsert(inst.arrivals[i]%secondsPerDay, func() timeline.NodeID { return depNode })
		} else {
			arrNode = arrTL.GetOrInsert(inst.arrivals[i]%secondsPerDay, func() timeline.NodeID {
				return timeline.NodeID(g.CreateNode(0, 0))
			})
		}

		onboardNode := g.CreateNode(0, 0)
		onboard[i] = onboardNode

		boardEdge := g.CreateEdge(graphstore.NodeID(depNode), onboardNode)
		g.SetEdgeAttrs(boardEdge, models.EdgeAttrs{Access: true, Type: models.Board, ValidityID: validityID, Transfers: 1})
		tables.boardEdgesForTrip[key] = append(tables.boardEdgesForTrip[key], boardEdge)

		alightEdge := g.CreateEdge(onboardNode, graphstore.NodeID(arrNode))
		g.SetEdgeAttrs(alightEdge, models.EdgeAttrs{Access: true, Type: models.Alight, ValidityID: validityID})
		tables.alightEdgesForTrip[key] = append(tables.alightEdgesForTrip[key], alightEdge)

		if arrNode != depNode && i > 0 && i < len(inst.stopIDs)-1 {
			dwellEdge := g.CreateEdge(graphstore.NodeID(arrNode), graphstore.NodeID(depNode))
			g.SetEdgeAttrs(dwellEdge, models.EdgeAttrs{
				Access:     true,
				Type:       models.Dwell,
				Time:       inst.departs[i] - inst.arrivals[i],
				ValidityID: validityID,
			})
		}

		if i > 0 {
			hop := g.CreateEdge(onboard[i-1], onboardNode)
			g.SetEdgeAttrs(hop, models.EdgeAttrs{
				Access:     true,
				Type:       models.Hop,
				Time:       inst.arrivals[i] - inst.departs[i-1],
				ValidityID: validityID,
			})
		}
	}

	tables.onBoardNode[key] = onboard
}

// platformDescriptorFor builds the PlatformDescriptor spec.md §4/§9
// assigns to stopID: RouteType-keyed unless transfers.txt names a
// route-specific rule landing on this stop, in which case it is
// Route-keyed.
func platformDescriptorFor(transfers gtfs.Transfers, feedID, stopID, routeID string, routeType int) platform.Descriptor {
	if transfers.HasNoRouteSpecificDepartureTransferRules(stopID) {
		return platform.NewRouteType(feedID, stopID, routeType)
	}
	return platform.NewRoute(feedID, stopID, routeID)
}

// wireBlockTransfers implements spec.md §4.3.3: trips sharing a block_id
// run on the same physical vehicle, so a rider aboard trip A continuing
// into trip B never disembarks — wired as a direct HOP edge from A's last
// onboard node to B's first onboard node, restricted to the days both
// trips actually run. blocks is grouped by block_id and then by
// repetition index, so only trip instances belonging to the same
// frequency realization (or the single realization of a schedule-based
// block) are ever chained together.
func wireBlockTransfers(g graphstore.Graph, storage *interning.Storage, tables *sideTables, blocks map[string]map[int][]tripInstance, zoneID string, feedStart time.Time) int {
	emitted := 0

	for _, realizations := range blocks {
		for _, instances := range realizations {
			if len(instances) < 2 {
				continue
			}

			sort.Slice(instances, func(i, j int) bool { return instances[i].departs[0] < instances[j].departs[0] })

			// Reverse iteration: scan from the last trip backward; reachable
			// holds the validity of the following trip b, so each adjacent
			// pair's shared days are a single bitset AND.
			reachable := instances[len(instances)-1].validity
			for i := len(instances) - 2; i >= 0; i-- {
				a, b := instances[i], instances[i+1]
				lastStop := a.stopIDs[len(a.stopIDs)-1]
				firstStop := b.stopIDs[0]
				if lastStop != firstStop {
					reachable = a.validity
					continue
				}
				if a.arrivals[len(a.arrivals)-1] > b.departs[0] {
					reachable = a.validity
					continue
				}

				shared := a.validity.Clone()
				shared.And(reachable)
				if !shared.IsEmpty() {
					validityID := storage.InternValidity(interning.Validity{
						Bits:          shared,
						ZoneID:        zoneID,
						FeedStartDate: feedStart.Format("20060102"),
					})
					aOnboard := tables.onBoardNode[tripKey{FeedID: a.feedID, TripID: a.tripID}]
					bOnboard := tables.onBoardNode[tripKey{FeedID: b.feedID, TripID: b.tripID}]
					edge := g.CreateEdge(aOnboard[len(aOnboard)-1], bOnboard[0])
					g.SetEdgeAttrs(edge, models.EdgeAttrs{
						Access:     true,
						Type:       models.Hop,
						Time:       b.departs[0] - a.arrivals[len(a.arrivals)-1],
						ValidityID: validityID,
					})
					emitted++
				}

				reachable = a.validity
			}
		}
	}

	return emitted
}
