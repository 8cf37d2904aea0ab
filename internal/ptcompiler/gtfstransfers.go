package ptcompiler

import (
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/interning"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/platform"
)

// defaultSameStopTransferSeconds is the minimum dwell assumed for a
// same-stop transfer between two platforms when no transfers.txt row names
// that stop pair explicitly.
const defaultSameStopTransferSeconds = 0

// insertGtfsTransfersResult summarizes the transfer-wiring pass.
type insertGtfsTransfersResult struct {
	edgesCreated int
}

// insertGtfsTransfers implements spec.md §4.3.4: wire a TRANSFER edge from
// every arrival in a source platform's timeline to the earliest reachable
// departure (Ceiling of arrival time + minimum transfer time) in each
// platform a rider could walk to from there. Explicit transfers.txt rows
// are honored first; a same-stop pair with no matching explicit row falls
// back to an implicit zero-second transfer between its platforms. Every
// explicit row is wired, in transfers.txt row order; rows naming the same
// (stop, stop) pair are not de-duplicated.
func insertGtfsTransfers(g graphstore.Graph, feed gtfs.Feed, transfers gtfs.Transfers, storage *interning.Storage, tables *sideTables) insertGtfsTransfersResult {
	var res insertGtfsTransfersResult
	zoneID := resolveZoneID(feed)
	feedTZID := storage.InternTimeZone(interning.FeedIdWithTimezone{FeedID: feed.ID(), ZoneID: zoneID})

	platformsByStop := make(map[string][]platform.Descriptor)
	for _, desc := range tables.platformDescriptors() {
		platformsByStop[desc.StopID] = append(platformsByStop[desc.StopID], desc)
	}

	explicitPairs := make(map[[2]string]bool)

	for _, stop := range feed.Stops() {
		rows := transfers.GetTransfersFromStop(stop.StopID)
		for _, row := range rows {
			explicitPairs[[2]string{row.FromStopID, row.ToStopID}] = true
			res.edgesCreated += wireTransferRow(g, tables, platformsByStop, row, feedTZID)
		}
	}

	for stopID, descs := range platformsByStop {
		if explicitPairs[[2]string{stopID, stopID}] {
			continue // an explicit same-stop row already covers this pair
		}
		if len(descs) < 2 {
			continue
		}
		for _, from := range descs {
			for _, to := range descs {
				if from == to {
					continue
				}
				res.edgesCreated += wireTransferEdges(g, tables, from, to, defaultSameStopTransferSeconds, feedTZID)
			}
		}
	}

	return res
}

func wireTransferRow(g graphstore.Graph, tables *sideTables, platformsByStop map[string][]platform.Descriptor, row gtfs.Transfer, feedTZID int) int {
	fromCandidates := platformsByStop[row.FromStopID]
	toCandidates := platformsByStop[row.ToStopID]

	edges := 0
	for _, from := range fromCandidates {
		if !from.MatchesRouteOrNil(row.FromStopID, row.FromRouteID) {
			continue
		}
		for _, to := range toCandidates {
			if !to.MatchesRouteOrNil(row.ToStopID, row.ToRouteID) {
				continue
			}
			edges += wireTransferEdges(g, tables, from, to, row.MinTransferTimeS, feedTZID)
		}
	}
	return edges
}

// wireTransferEdges implements spec.md's from_arrival_timeline_node rule:
// the "from" side of a transfer is always read from the source platform's
// arrival timeline (when did a rider actually get there), and the "to"
// side is always read from the destination platform's departure timeline
// (when can a rider leave from there), never the other way around.
func wireTransferEdges(g graphstore.Graph, tables *sideTables, from, to platform.Descriptor, minTransferSeconds int, feedTZID int) int {
	fromArrivalTL := tables.arrivalTimelines[from]
	toDepartureTL := tables.departureTimelines[to]
	if fromArrivalTL == nil || toDepartureTL == nil {
		return 0
	}

	edges := 0
	for _, entry := range fromArrivalTL.Entries() {
		targetTime := entry.Key + minTransferSeconds
		destKey, destNode, ok := toDepartureTL.Ceiling(targetTime)
		if !ok {
			continue
		}

		edge := g.CreateEdge(graphstore.NodeID(entry.Node), graphstore.NodeID(destNode))
		g.SetEdgeAttrs(edge, models.EdgeAttrs{
			Access:     true,
			Type:       models.Transfer,
			Time:       destKey - entry.Key,
			ValidityID: feedTZID,
		})
		tables.platformDescriptorByEdge[edge] = from
		edges++
	}
	return edges
}
