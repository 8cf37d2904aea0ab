package ptcompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/platform"
	"github.com/passbi/gtfsgraph/internal/timeline"
)

func TestWireUpStopsConnectsStationAndChainsTimeline(t *testing.T) {
	g := graphstore.NewInMemory()
	tables := newSideTables()

	station := g.CreateNode(0, 0)
	tables.stationNodes["S1"] = station

	desc := platform.NewRouteType("F1", "S1", 3)
	dep := tables.departureTimelineFor(desc)
	dn1 := dep.GetOrInsert(100, func() timeline.NodeID { return timeline.NodeID(g.CreateNode(0, 0)) })
	dn2 := dep.GetOrInsert(200, func() timeline.NodeID { return timeline.NodeID(g.CreateNode(0, 0)) })

	arr := tables.arrivalTimelineFor(desc)
	an1 := arr.GetOrInsert(150, func() timeline.NodeID { return timeline.NodeID(g.CreateNode(0, 0)) })
	an2 := arr.GetOrInsert(250, func() timeline.NodeID { return timeline.NodeID(g.CreateNode(0, 0)) })

	res := wireUpStops(g, tables)

	assert.Equal(t, 1, res.edgesByType[models.EnterPT])
	assert.Equal(t, 1, res.edgesByType[models.ExitPT])
	assert.Equal(t, 2, res.edgesByType[models.EnterTimeExpandedNetwork])
	assert.Equal(t, 2, res.edgesByType[models.LeaveTimeExpandedNetwork])
	assert.Equal(t, 1, res.edgesByType[models.Wait])
	assert.Equal(t, 1, res.edgesByType[models.WaitArrival])
	assert.Equal(t, 2, res.edgesByType[models.Overnight])

	// WAIT edge dn1 -> dn2 carries the gap between them, ascending.
	var waitEdge graphstore.EdgeID
	var waitFound bool
	for _, e := range g.OutEdges(graphstore.NodeID(dn1)) {
		attrs, ok := g.EdgeAttrs(e)
		require.True(t, ok)
		if attrs.Type == models.Wait {
			waitEdge = e
			waitFound = true
		}
	}
	require.True(t, waitFound)
	attrs, _ := g.EdgeAttrs(waitEdge)
	assert.Equal(t, 100, attrs.Time)

	// WAIT_ARRIVAL edge an2 -> an1 carries the gap between them, descending.
	var waitArrivalEdge graphstore.EdgeID
	var waitArrivalFound bool
	for _, e := range g.OutEdges(graphstore.NodeID(an2)) {
		attrs, ok := g.EdgeAttrs(e)
		require.True(t, ok)
		if attrs.Type == models.WaitArrival {
			waitArrivalEdge = e
			waitArrivalFound = true
		}
	}
	require.True(t, waitArrivalFound)
	attrs, _ = g.EdgeAttrs(waitArrivalEdge)
	assert.Equal(t, 100, attrs.Time)

	// Departure chain's OVERNIGHT wraps last back to first.
	var depOvernightFound bool
	for _, e := range g.OutEdges(graphstore.NodeID(dn2)) {
		attrs, ok := g.EdgeAttrs(e)
		require.True(t, ok)
		if attrs.Type == models.Overnight {
			depOvernightFound = true
			assert.Equal(t, secondsPerDay-200+100, attrs.Time)
		}
	}
	assert.True(t, depOvernightFound)

	// Arrival chain's OVERNIGHT also wraps last back to first (spec.md
	// §4.3.2: "same as 4.3.1").
	var arrOvernightFound bool
	for _, e := range g.OutEdges(graphstore.NodeID(an2)) {
		attrs, ok := g.EdgeAttrs(e)
		require.True(t, ok)
		if attrs.Type == models.Overnight {
			arrOvernightFound = true
			assert.Equal(t, secondsPerDay-250+150, attrs.Time)
		}
	}
	assert.True(t, arrOvernightFound)
}

func TestWireUpStopsSkipsEmptyTimelines(t *testing.T) {
	g := graphstore.NewInMemory()
	tables := newSideTables()
	tables.stationNodes["S1"] = g.CreateNode(0, 0)
	tables.departureTimelineFor(platform.NewRouteType("F1", "S1", 3)) // empty

	res := wireUpStops(g, tables)

	assert.Equal(t, 0, res.edgesByType[models.EnterPT])
	assert.Equal(t, 1, g.NodeCount()) // only the station node was created
}
