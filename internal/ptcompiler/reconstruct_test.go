package ptcompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/interning"
	"github.com/passbi/gtfsgraph/internal/models"
)

func buildReconstructFixture(t *testing.T) (graphstore.Graph, *sideTables, graphstore.NodeID, graphstore.EdgeID, graphstore.NodeID, graphstore.EdgeID, graphstore.NodeID, graphstore.EdgeID, graphstore.NodeID, graphstore.EdgeID) {
	t.Helper()
	g := graphstore.NewInMemory()
	feed, transfers := twoStopFeed()
	storage := interning.NewStorage()
	tables := newSideTables()
	_, err := createTrips(g, feed, transfers, storage, tables)
	require.NoError(t, err)

	key := tripKey{FeedID: "F1", TripID: "T1"}
	boardEdge := tables.boardEdgesForTrip[key][0]
	hopEdges := g.OutEdges(tables.onBoardNode[key][0])
	var hopEdge graphstore.EdgeID
	for _, e := range hopEdges {
		attrs, _ := g.EdgeAttrs(e)
		if attrs.Type == models.Hop {
			hopEdge = e
		}
	}
	alightEdge := tables.alightEdgesForTrip[key][1]

	boardFrom, boardTo, _ := g.Endpoints(boardEdge)
	_, hopTo, _ := g.Endpoints(hopEdge)
	_, alightTo, _ := g.Endpoints(alightEdge)

	walkNode := g.CreateNode(0, 0)
	walkEdge := g.CreateEdge(walkNode, boardFrom)
	g.SetEdgeAttrs(walkEdge, models.EdgeAttrs{Access: true, Type: models.Hop, Time: 30})

	return g, tables, walkNode, walkEdge, boardFrom, boardEdge, boardTo, hopEdge, alightTo, alightEdge
}

func TestReconstructPathArriveByTrueWalksChildToParentThenReverses(t *testing.T) {
	g, tables, walkNode, walkEdge, boardFrom, boardEdge, boardTo, hopEdge, alightTo, alightEdge := buildReconstructFixture(t)
	_, hopTo, _ := g.Endpoints(hopEdge)

	root := &Label{Node: walkNode}
	l1 := &Label{Node: boardFrom, Edge: walkEdge, Parent: root}
	l2 := &Label{Node: boardTo, Edge: boardEdge, Parent: l1}
	l3 := &Label{Node: hopTo, Edge: hopEdge, Parent: l2}
	l4 := &Label{Node: alightTo, Edge: alightEdge, Parent: l3}

	transitions, err := ReconstructPath(g, tables, l4, true)
	require.NoError(t, err)

	require.Len(t, transitions, 4)
	assert.False(t, transitions[0].Origin)
	assert.Equal(t, models.Hop, transitions[0].Type)
	assert.Equal(t, 30, transitions[0].Time) // the walk leg, chronologically first
	assert.Equal(t, models.Board, transitions[1].Type)
	require.NotNil(t, transitions[1].Trip)
	assert.Equal(t, "T1", transitions[1].Trip.TripID)
	assert.Equal(t, models.Hop, transitions[2].Type) // the trip's HOP leg
	assert.Equal(t, models.Alight, transitions[3].Type)
	require.NotNil(t, transitions[3].Trip)
}

func TestReconstructPathArriveByFalsePrependsSentinelWithoutReversing(t *testing.T) {
	g, tables, walkNode, walkEdge, boardFrom, boardEdge, boardTo, hopEdge, alightTo, alightEdge := buildReconstructFixture(t)
	_, hopTo, _ := g.Endpoints(hopEdge)

	root := &Label{Node: walkNode}
	l1 := &Label{Node: boardFrom, Edge: walkEdge, Parent: root}
	l2 := &Label{Node: boardTo, Edge: boardEdge, Parent: l1}
	l3 := &Label{Node: hopTo, Edge: hopEdge, Parent: l2}
	l4 := &Label{Node: alightTo, Edge: alightEdge, Parent: l3}

	transitions, err := ReconstructPath(g, tables, l4, false)
	require.NoError(t, err)

	// Sentinel first, then one transition per hop walked parent-ward from
	// last, with no reversal — the literal spec contract for arrive_by=false.
	require.Len(t, transitions, 5)
	assert.True(t, transitions[0].Origin)
	assert.Equal(t, alightTo, transitions[0].FromNode)
	assert.Equal(t, alightTo, transitions[0].ToNode)

	assert.Equal(t, models.Alight, transitions[1].Type)
	assert.Equal(t, models.Hop, transitions[2].Type)
	assert.Equal(t, models.Board, transitions[3].Type)
	assert.Equal(t, models.Hop, transitions[4].Type)
	assert.Equal(t, 30, transitions[4].Time)
}

func TestReconstructPathFailsOnEndpointMismatch(t *testing.T) {
	g, tables, walkNode, _, boardFrom, boardEdge, boardTo, _, _, _ := buildReconstructFixture(t)
	_ = boardFrom

	root := &Label{Node: walkNode}
	// Mislabel the parent chain: claim boardEdge was reached from walkNode
	// directly, but boardEdge's real endpoints are (boardFrom -> boardTo).
	bad := &Label{Node: boardTo, Edge: boardEdge, Parent: root}

	_, err := ReconstructPath(g, tables, bad, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconstruction endpoint mismatch")
}
