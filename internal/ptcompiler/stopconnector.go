package ptcompiler

import (
	"fmt"
	"log"

	"github.com/passbi/gtfsgraph/internal/geo"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/models"
)

// MaxStreetSnapDistanceMeters bounds how far a GTFS stop may be from an
// existing street node before the connector gives up and allocates a
// standalone node instead.
const MaxStreetSnapDistanceMeters = 150.0

// connectStopsToStreetNetworkResult summarizes the connector's pass, fed
// into the final BuildReport.
type connectStopsToStreetNetworkResult struct {
	stopsConnected  int
	standaloneStops int
}

// connectStopsToStreetNetwork implements spec.md §4.1: every GTFS stop
// must have a node on the routable graph representing its street-level
// entry/exit point. Stops within range of the pedestrian network snap to
// the nearest street node; stops with no street node nearby get a fresh
// node plus a zero-length, foot-accessible self-loop so the graph stays
// structurally uniform for downstream lookups. station_nodes is a
// bijection per feed from stop_id onto street nodes (spec.md §3 invariant
// 4); a duplicate stop_id is fatal rather than silently overwritten.
func connectStopsToStreetNetwork(g graphstore.Graph, idx geo.LocationIndex, stops []gtfs.Stop, tables *sideTables) (connectStopsToStreetNetworkResult, error) {
	var res connectStopsToStreetNetworkResult

	for _, stop := range stops {
		if stop.LocationType != 0 {
			continue // only LocationStop stops participate, per spec.md §3
		}

		if _, exists := tables.stationNodes[stop.StopID]; exists {
			return res, fmt.Errorf("Duplicate stop id: %s", stop.StopID)
		}

		snap := idx.Closest(stop.StopLat, stop.StopLon, MaxStreetSnapDistanceMeters)
		if snap.IsValid() {
			tables.stationNodes[stop.StopID] = snap.ClosestNode()
			res.stopsConnected++
			continue
		}

		log.Printf("stop %s has no street node within %.0fm, allocating standalone node", stop.StopID, MaxStreetSnapDistanceMeters)
		node := g.CreateNode(stop.StopLat, stop.StopLon)
		selfLoop := g.CreateEdge(node, node)
		g.SetEdgeAttrs(selfLoop, models.EdgeAttrs{Access: true, Type: models.Hop, Time: 0})
		tables.stationNodes[stop.StopID] = node
		res.standaloneStops++
	}

	return res, nil
}
