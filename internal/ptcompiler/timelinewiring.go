package ptcompiler

import (
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/timeline"
)

// secondsPerDay is the width of one canonical service day. The compiler
// builds one representative day's worth of platform timelines; which
// calendar days a given HOP/BOARD/ALIGHT/DWELL edge is usable on is
// carried separately by its interned Validity (spec.md §3/§4.2), not by
// building a separate timeline per date.
const secondsPerDay = 86400

// wireUpStopsResult summarizes the timeline-wiring pass.
type wireUpStopsResult struct {
	edgesByType map[models.EdgeType]int
}

// wireUpStops implements spec.md §4.3.1/§4.3.2. Every platform carries two
// sibling ordered timelines (spec.md §3): one for departures, one for
// arrivals. For each platform, this creates a root node linked to its
// stop's station node (ENTER_PT/EXIT_PT), links the root into the
// departure timeline only (one ENTER_TIME_EXPANDED_NETWORK edge per
// departure entry) and into the arrival timeline only (one
// LEAVE_TIME_EXPANDED_NETWORK edge per arrival entry), then chains each
// timeline's own entries on its own: departures ascending (WAIT, so a
// depart-after search walks forward in time) and arrivals descending
// (WAIT_ARRIVAL, so an arrive-by search walks backward). Each chain closes
// across the day boundary with its own OVERNIGHT edge.
func wireUpStops(g graphstore.Graph, tables *sideTables) wireUpStopsResult {
	res := wireUpStopsResult{edgesByType: make(map[models.EdgeType]int)}
	count := func(t models.EdgeType) { res.edgesByType[t]++ }

	for _, desc := range tables.platformDescriptors() {
		depEntries := entriesFor(tables.departureTimelines[desc])
		arrEntries := entriesFor(tables.arrivalTimelines[desc])
		if len(depEntries) == 0 && len(arrEntries) == 0 {
			continue
		}

		station, ok := tables.stationNodes[desc.StopID]
		if !ok {
			continue // stop never connected to the street network; skip
		}

		root := g.CreateNode(0, 0)

		enterPT := g.CreateEdge(station, root)
		g.SetEdgeAttrs(enterPT, models.EdgeAttrs{Access: true, Type: models.EnterPT})
		tables.platformDescriptorByEdge[enterPT] = desc
		count(models.EnterPT)

		exitPT := g.CreateEdge(root, station)
		g.SetEdgeAttrs(exitPT, models.EdgeAttrs{Access: true, Type: models.ExitPT})
		tables.platformDescriptorByEdge[exitPT] = desc
		count(models.ExitPT)

		for _, e := range depEntries {
			enter := g.CreateEdge(root, graphstore.NodeID(e.Node))
			g.SetEdgeAttrs(enter, models.EdgeAttrs{Access: true, Type: models.EnterTimeExpandedNetwork, Time: e.Key})
			count(models.EnterTimeExpandedNetwork)
		}
		for _, e := range arrEntries {
			leave := g.CreateEdge(graphstore.NodeID(e.Node), root)
			g.SetEdgeAttrs(leave, models.EdgeAttrs{Access: true, Type: models.LeaveTimeExpandedNetwork})
			count(models.LeaveTimeExpandedNetwork)
		}

		wireDepartureChain(g, depEntries, count)
		wireArrivalChain(g, arrEntries, count)
	}

	return res
}

func entriesFor(tl *timeline.Timeline) []timeline.Entry {
	if tl == nil {
		return nil
	}
	return tl.Entries()
}

// wireDepartureChain links consecutive departure entries ascending (WAIT),
// so a depart-after search reaches any later departure at the same
// platform by walking forward once it has entered the time-expanded
// network there. The chain wraps across midnight with one OVERNIGHT edge
// from the last entry of the day back to the first.
func wireDepartureChain(g graphstore.Graph, entries []timeline.Entry, count func(models.EdgeType)) {
	for i := 0; i < len(entries)-1; i++ {
		cur, next := entries[i], entries[i+1]
		wait := g.CreateEdge(graphstore.NodeID(cur.Node), graphstore.NodeID(next.Node))
		g.SetEdgeAttrs(wait, models.EdgeAttrs{Access: true, Type: models.Wait, Time: next.Key - cur.Key})
		count(models.Wait)
	}
	if len(entries) == 0 {
		return
	}
	first, last := entries[0], entries[len(entries)-1]
	wrap := secondsPerDay - last.Key + first.Key
	overnight := g.CreateEdge(graphstore.NodeID(last.Node), graphstore.NodeID(first.Node))
	g.SetEdgeAttrs(overnight, models.EdgeAttrs{Access: true, Type: models.Overnight, Time: wrap})
	count(models.Overnight)
}

// wireArrivalChain links consecutive arrival entries descending
// (WAIT_ARRIVAL), so an arrive-by search reaches any earlier arrival at the
// same platform by walking backward once it has left the time-expanded
// network there. spec.md §4.3.2 mirrors the overnight edge of §4.3.1
// exactly, so the wrap also runs last entry of the day -> first entry.
func wireArrivalChain(g graphstore.Graph, entries []timeline.Entry, count func(models.EdgeType)) {
	for i := len(entries) - 1; i > 0; i-- {
		cur, prev := entries[i], entries[i-1]
		waitArrival := g.CreateEdge(graphstore.NodeID(cur.Node), graphstore.NodeID(prev.Node))
		g.SetEdgeAttrs(waitArrival, models.EdgeAttrs{Access: true, Type: models.WaitArrival, Time: cur.Key - prev.Key})
		count(models.WaitArrival)
	}
	if len(entries) == 0 {
		return
	}
	first, last := entries[0], entries[len(entries)-1]
	wrap := secondsPerDay - last.Key + first.Key
	overnight := g.CreateEdge(graphstore.NodeID(last.Node), graphstore.NodeID(first.Node))
	g.SetEdgeAttrs(overnight, models.EdgeAttrs{Access: true, Type: models.Overnight, Time: wrap})
	count(models.Overnight)
}
